package engine

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/roach88/pointoforder/internal/card"
	"github.com/roach88/pointoforder/internal/puzzle"
)

// NumSlots is the number of candidate slots a player can press.
const NumSlots = puzzle.NumChoices

// State is the interaction state of a session.
type State int

const (
	// StateIdle means all candidates are face down and input reveals them.
	StateIdle State = iota
	// StateRevealed means candidates are face up and the countdown runs.
	StateRevealed
	// StateResolving means a mistake was recorded and cards are turning
	// back over.
	StateResolving
	// StateSolved is terminal.
	StateSolved
)

var stateNames = [...]string{"idle", "revealed", "resolving", "solved"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText renders the state by name in JSON and YAML output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Timing holds the tick-based durations of the interaction.
type Timing struct {
	// TickInterval is the wall-clock length of a tick under a Driver.
	TickInterval time.Duration `json:"tick_interval" yaml:"tick_interval"`

	// TimeoutTicks is how long cards stay face up before a timeout mistake.
	TimeoutTicks int `json:"timeout_ticks" yaml:"timeout_ticks"`

	// FlipStaggerTicks delays slot i's flip by i*FlipStaggerTicks.
	FlipStaggerTicks int `json:"flip_stagger_ticks" yaml:"flip_stagger_ticks"`

	// FlipTicks is how long a single card takes to turn over.
	FlipTicks int `json:"flip_ticks" yaml:"flip_ticks"`
}

// DefaultTiming returns 100ms ticks, a 5s timeout, a 0.2s stagger between
// slots and a half-second flip.
func DefaultTiming() Timing {
	return Timing{
		TickInterval:     100 * time.Millisecond,
		TimeoutTicks:     50,
		FlipStaggerTicks: 2,
		FlipTicks:        5,
	}
}

// Validate checks that every duration is usable.
func (t Timing) Validate() error {
	switch {
	case t.TickInterval <= 0:
		return fmt.Errorf("tick interval must be positive, got %s", t.TickInterval)
	case t.TimeoutTicks < 1:
		return fmt.Errorf("timeout ticks must be at least 1, got %d", t.TimeoutTicks)
	case t.FlipStaggerTicks < 0:
		return fmt.Errorf("flip stagger ticks must not be negative, got %d", t.FlipStaggerTicks)
	case t.FlipTicks < 1:
		return fmt.Errorf("flip ticks must be at least 1, got %d", t.FlipTicks)
	}
	return nil
}

// Option configures a Machine.
type Option func(*Machine)

// WithRand sets the random source used to deal rounds.
func WithRand(rng *rand.Rand) Option {
	return func(m *Machine) {
		m.rng = rng
	}
}

// WithSink sets where events are delivered.
func WithSink(sink EventSink) Option {
	return func(m *Machine) {
		m.sink = sink
	}
}

// WithLogger sets the logger for state transitions and ignored input.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = l
	}
}

// WithTiming overrides DefaultTiming.
func WithTiming(t Timing) Option {
	return func(m *Machine) {
		m.timing = t
	}
}

// Machine is the interaction state machine for one puzzle.
//
// A Machine is not safe for concurrent use. Either call it from a single
// goroutine, stepping time with Tick, or hand it to a Driver.
type Machine struct {
	puzzle *puzzle.Puzzle
	timing Timing
	rng    *rand.Rand
	sink   EventSink
	logger *slog.Logger

	sched  *Scheduler
	events *Clock

	state     State
	round     puzzle.Round
	rounds    int
	mistakes  int
	faceUp    [NumSlots]bool
	lockOwner [NumSlots]*flipTask
	countdown *countdown
}

// NewMachine creates an idle machine for p.
func NewMachine(p *puzzle.Puzzle, opts ...Option) *Machine {
	m := &Machine{
		puzzle: p,
		timing: DefaultTiming(),
		sched:  NewScheduler(),
		events: NewClock(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if m.sink == nil {
		m.sink = SinkFunc(func(Event) {})
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Puzzle returns the puzzle being played.
func (m *Machine) Puzzle() *puzzle.Puzzle {
	return m.puzzle
}

// Timing returns the machine's timing.
func (m *Machine) Timing() Timing {
	return m.timing
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Mistakes returns the number of mistakes recorded so far.
func (m *Machine) Mistakes() int {
	return m.mistakes
}

// Round returns the most recently dealt round. ok is false before the first
// reveal.
func (m *Machine) Round() (r puzzle.Round, ok bool) {
	return m.round, m.rounds > 0
}

// Locked reports whether slot is owned by an in-flight flip.
func (m *Machine) Locked(slot int) bool {
	if slot < 0 || slot >= NumSlots {
		return false
	}
	return m.lockOwner[slot] != nil
}

// Now returns the current tick.
func (m *Machine) Now() int64 {
	return m.sched.Now()
}

// Tick advances time by one tick.
func (m *Machine) Tick() int64 {
	return m.sched.Tick()
}

// Advance runs n ticks.
func (m *Machine) Advance(n int) {
	for i := 0; i < n; i++ {
		m.sched.Tick()
	}
}

// Settle ticks until no task is pending or limit ticks have run, and
// returns the number of ticks taken.
func (m *Machine) Settle(limit int) int {
	n := 0
	for n < limit && m.sched.Pending() > 0 {
		m.sched.Tick()
		n++
	}
	return n
}

// Busy reports whether any timed work is outstanding.
func (m *Machine) Busy() bool {
	return m.sched.Pending() > 0
}

// Press handles input on slot and reports whether it had any effect.
//
// Out-of-range and locked slots are ignored. In Idle any press deals and
// reveals a round. In Revealed the pressed card either solves the puzzle or
// records a mistake. Presses in Resolving and Solved are ignored.
func (m *Machine) Press(slot int) bool {
	if slot < 0 || slot >= NumSlots {
		m.logger.Debug("press ignored: slot out of range", "slot", slot)
		return false
	}
	if m.lockOwner[slot] != nil {
		m.logger.Debug("press ignored: slot locked", "slot", slot, "state", m.state.String())
		return false
	}

	switch m.state {
	case StateIdle:
		m.reveal()
		return true

	case StateRevealed:
		pressed := m.round.Cards[slot]
		if slot == m.round.Correct {
			m.state = StateSolved
			m.emit(Event{Kind: EventSuccess, Slot: slot, Cards: []card.Card{pressed}})
			m.logger.Info("puzzle solved", "slot", slot, "card", pressed.String(), "mistakes", m.mistakes)
			return true
		}
		m.state = StateResolving
		m.mistakes++
		m.emit(Event{Kind: EventMistake, Reason: ReasonWrongCard, Slot: slot, Cards: []card.Card{pressed}})
		m.logger.Info("wrong card", "slot", slot, "card", pressed.String(), "mistakes", m.mistakes)
		return true

	default:
		m.logger.Debug("press ignored", "slot", slot, "state", m.state.String())
		return false
	}
}

// Play automates a reveal-and-choose sequence: it presses slot 0 to deal,
// waits for every slot to unlock, then presses the first slot whose card
// satisfies match. If nothing matches no press is made and the timeout
// decides the round.
//
// Play is only valid in Idle; otherwise it returns a *StateError.
func (m *Machine) Play(match func(card.Card) bool) error {
	if m.state != StateIdle {
		return &StateError{State: m.state}
	}
	m.Press(0)
	m.sched.Schedule(&playTask{m: m, match: match})
	return nil
}

func (m *Machine) reveal() {
	m.round = m.puzzle.Deal(m.rng)
	m.rounds++

	for slot := 0; slot < NumSlots; slot++ {
		m.faceUp[slot] = true
		m.startFlip(slot, true)
	}
	m.state = StateRevealed
	m.countdown = &countdown{m: m}
	m.sched.Schedule(m.countdown)

	cards := append([]card.Card(nil), m.round.Cards[:]...)
	m.emit(Event{Kind: EventReveal, Slot: -1, Cards: cards})
	m.logger.Info("cards revealed", "round", m.rounds, "cards", card.Join(cards, " "))
}

func (m *Machine) conceal() {
	for slot := 0; slot < NumSlots; slot++ {
		m.startFlip(slot, false)
	}
}

// startFlip takes ownership of slot's lock and schedules the flip.
func (m *Machine) startFlip(slot int, up bool) {
	t := &flipTask{
		m:         m,
		slot:      slot,
		up:        up,
		wait:      slot * m.timing.FlipStaggerTicks,
		remaining: m.timing.FlipTicks,
	}
	m.lockOwner[slot] = t
	m.sched.Schedule(t)
}

func (m *Machine) emit(ev Event) {
	ev.Seq = m.events.Next()
	ev.Tick = m.sched.Now()
	ev.Round = m.rounds
	m.sink.Record(ev)
}

// SlotView is what a player can see of one slot.
type SlotView struct {
	FaceUp bool       `json:"face_up"`
	Locked bool       `json:"locked"`
	Card   *card.Card `json:"card,omitempty"`
}

// Snapshot is a read-only view of the machine. It never reveals which slot
// is correct.
type Snapshot struct {
	State     State              `json:"state"`
	Tick      int64              `json:"tick"`
	Round     int                `json:"round"`
	Mistakes  int                `json:"mistakes"`
	Remaining int                `json:"remaining_ticks"`
	Pile      []card.Card        `json:"pile"`
	Slots     [NumSlots]SlotView `json:"slots"`
}

// Snapshot captures the current view.
func (m *Machine) Snapshot() Snapshot {
	s := Snapshot{
		State:    m.state,
		Tick:     m.sched.Now(),
		Round:    m.rounds,
		Mistakes: m.mistakes,
		Pile:     append([]card.Card(nil), m.puzzle.Pile...),
	}
	if m.state == StateRevealed && m.countdown != nil {
		s.Remaining = m.timing.TimeoutTicks - m.countdown.elapsed
	}
	for i := range s.Slots {
		s.Slots[i] = SlotView{FaceUp: m.faceUp[i], Locked: m.lockOwner[i] != nil}
		if m.faceUp[i] {
			c := m.round.Cards[i]
			s.Slots[i].Card = &c
		}
	}
	return s
}
