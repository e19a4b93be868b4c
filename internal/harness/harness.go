package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/roach88/pointoforder/internal/bridge"
	"github.com/roach88/pointoforder/internal/config"
	"github.com/roach88/pointoforder/internal/engine"
	"github.com/roach88/pointoforder/internal/session"
	"github.com/roach88/pointoforder/internal/store"
	"github.com/roach88/pointoforder/internal/testutil"
)

// StepLimit bounds the ticks a single wait_unlocked or settle step may run.
const StepLimit = 100000

// Harness is the state of one scenario run.
type Harness struct {
	store    *store.Store
	sess     *session.Session
	machine  *engine.Machine
	executor *bridge.Executor
	sink     *engine.MemorySink
	logger   *slog.Logger
}

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	logger *slog.Logger
}

// WithLogger routes session logs to l. By default they are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = l
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory session log. Session ids and
// timestamps come from deterministic generators, and the machine is
// stepped directly rather than by a wall-clock driver, so identical
// scenarios produce identical results.
//
// The returned error covers setup failures only; failed expectations and
// assertions are reported in the Result.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	rc := &runConfig{logger: testutil.DiscardLogger()}
	for _, opt := range opts {
		opt(rc)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	cfg := config.Default()
	cfg.Serial = scenario.Serial
	cfg.Seed = scenario.Seed
	cfg.Timing = scenario.Timing.Apply(cfg.Timing)
	if err := cfg.Timing.Validate(); err != nil {
		return nil, fmt.Errorf("scenario timing: %w", err)
	}

	sink := engine.NewMemorySink()
	var recorder *store.Recorder
	clock := testutil.NewStepClock(testutil.Epoch, time.Second)

	sess, err := session.Start(ctx, cfg,
		session.WithIDGenerator(session.NewSequenceGenerator("scenario")),
		session.WithSink(sink),
		session.WithSinkFor(func(id string) engine.EventSink {
			recorder = st.NewRecorder(id, rc.logger)
			return recorder
		}),
		session.WithLogger(rc.logger),
		session.WithNow(clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	if err := st.WriteSession(ctx, store.NewSessionRecord(sess.ID, sess.Seed, sess.Created, sess.Puzzle)); err != nil {
		return nil, fmt.Errorf("failed to log session: %w", err)
	}

	h := &Harness{
		store:    st,
		sess:     sess,
		machine:  sess.Machine,
		executor: bridge.NewExecutor(bridge.ForMachine(sess.Machine), rc.logger),
		sink:     sink,
		logger:   rc.logger,
	}

	result := NewResult()
	result.Session = sess.ID
	for i, step := range scenario.Steps {
		rec := h.executeStep(ctx, i+1, step)
		result.Steps = append(result.Steps, rec)
		for _, msg := range checkExpect(rec, step.Expect) {
			result.AddError(fmt.Sprintf("step %d (%s): %s", rec.Step, rec.Action, msg))
		}
	}
	result.Events = sink.Events()

	if err := recorder.Err(); err != nil {
		return nil, fmt.Errorf("session log: %w", err)
	}

	actx := &AssertionContext{
		Store:   st,
		Session: sess.ID,
		Ctx:     ctx,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// executeStep applies one step and records what it did.
func (h *Harness) executeStep(ctx context.Context, n int, step Step) StepRecord {
	before := len(h.sink.Events())
	m := h.machine
	rec := StepRecord{Step: n}

	switch {
	case step.Press != 0:
		rec.Action = fmt.Sprintf("press %d", step.Press)
		rec.Applied = applied(m.Press(step.Press - 1))

	case step.PressCorrect, step.PressWrong:
		rec.Action = "press correct"
		if step.PressWrong {
			rec.Action = "press wrong"
		}
		slot, ok := h.pick(step.PressCorrect)
		if !ok {
			rec.Error = "no round is showing"
			rec.Applied = applied(false)
			break
		}
		rec.Applied = applied(m.Press(slot))

	case step.Play != "":
		rec.Action = "play: " + step.Play
		_, err := h.executor.Execute(ctx, step.Play)
		rec.Applied = applied(err == nil)
		rec.Error = stepError(err)

	case step.PlayCorrect:
		rec.Action = "play correct"
		err := m.Play(h.sess.Puzzle.IsAcceptable)
		rec.Applied = applied(err == nil)
		rec.Error = stepError(err)

	case step.Tick > 0:
		rec.Action = fmt.Sprintf("tick %d", step.Tick)
		m.Advance(step.Tick)

	case step.WaitUnlocked:
		rec.Action = "wait unlocked"
		for i := 0; i < StepLimit && anyLocked(m); i++ {
			m.Tick()
		}
		if anyLocked(m) {
			rec.Error = fmt.Sprintf("slots still locked after %d ticks", StepLimit)
		}

	case step.Settle:
		rec.Action = "settle"
		m.Settle(StepLimit)
		if m.Busy() {
			rec.Error = fmt.Sprintf("still busy after %d ticks", StepLimit)
		}
	}

	events := h.sink.Events()[before:]
	rec.Events = make([]EventRecord, len(events))
	for i, ev := range events {
		rec.Events[i] = newEventRecord(ev)
	}
	rec.Tick = m.Now()
	rec.State = m.State().String()
	rec.Mistakes = m.Mistakes()

	h.logger.Debug("scenario step",
		"step", n,
		"action", rec.Action,
		"tick", rec.Tick,
		"state", rec.State,
		"events", len(rec.Events),
	)
	return rec
}

// pick returns the correct slot, or the first decoy slot, of the round on
// show.
func (h *Harness) pick(correct bool) (int, bool) {
	round, ok := h.machine.Round()
	if !ok {
		return 0, false
	}
	if correct {
		return round.Correct, true
	}
	for slot := range round.Cards {
		if slot != round.Correct {
			return slot, true
		}
	}
	return 0, false
}

func anyLocked(m *engine.Machine) bool {
	for slot := 0; slot < engine.NumSlots; slot++ {
		if m.Locked(slot) {
			return true
		}
	}
	return false
}

func applied(ok bool) *bool {
	return &ok
}

func stepError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, bridge.ErrMalformedCommand):
		return StepErrMalformed
	case engine.IsNotIdle(err):
		return StepErrNotIdle
	default:
		return err.Error()
	}
}

// checkExpect compares a step record against its expect clause.
func checkExpect(rec StepRecord, e *Expect) []string {
	if e == nil {
		return nil
	}
	var errs []string
	if e.State != "" && e.State != rec.State {
		errs = append(errs, fmt.Sprintf("state = %s, want %s", rec.State, e.State))
	}
	if e.Mistakes != nil && *e.Mistakes != rec.Mistakes {
		errs = append(errs, fmt.Sprintf("mistakes = %d, want %d", rec.Mistakes, *e.Mistakes))
	}
	if e.Tick != nil && *e.Tick != rec.Tick {
		errs = append(errs, fmt.Sprintf("tick = %d, want %d", rec.Tick, *e.Tick))
	}
	if e.Applied != nil && (rec.Applied == nil || *rec.Applied != *e.Applied) {
		got := "n/a"
		if rec.Applied != nil {
			got = fmt.Sprint(*rec.Applied)
		}
		errs = append(errs, fmt.Sprintf("applied = %s, want %v", got, *e.Applied))
	}
	if e.Error != rec.Error {
		errs = append(errs, fmt.Sprintf("error = %q, want %q", rec.Error, e.Error))
	}
	return errs
}

// Outcome is the result of one scenario file in a directory run.
type Outcome struct {
	Path   string
	Name   string
	Result *Result
	Err    error
}

// Passed reports whether the scenario loaded, ran and passed.
func (o Outcome) Passed() bool {
	return o.Err == nil && o.Result != nil && o.Result.Pass
}

// RunDir loads and runs every *.yaml scenario in dir, in file name order.
// Load and setup failures are reported per scenario; the error covers only
// an unreadable directory.
func RunDir(ctx context.Context, dir string, opts ...Option) ([]Outcome, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("scenario directory: %w", err)
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("scenario directory: %w", err)
	}
	sort.Strings(paths)

	outcomes := make([]Outcome, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		o := Outcome{Path: path}
		scenario, err := LoadScenario(path)
		if err != nil {
			o.Err = err
			outcomes = append(outcomes, o)
			continue
		}
		o.Name = scenario.Name
		o.Result, o.Err = Run(ctx, scenario, opts...)
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}
