package harness

import "github.com/roach88/pointoforder/internal/engine"

// EventRecord is an event as it appears in a transcript. Slots and cards
// are left out: they depend on the deal, while the timeline does not.
type EventRecord struct {
	Seq    int64  `json:"seq"`
	Tick   int64  `json:"tick"`
	Kind   string `json:"kind"`
	Reason string `json:"reason,omitempty"`
	Round  int    `json:"round"`
}

func newEventRecord(ev engine.Event) EventRecord {
	return EventRecord{
		Seq:    ev.Seq,
		Tick:   ev.Tick,
		Kind:   string(ev.Kind),
		Reason: string(ev.Reason),
		Round:  ev.Round,
	}
}

// StepRecord is what one step did.
type StepRecord struct {
	Step   int    `json:"step"`
	Action string `json:"action"`

	// Tick is the machine tick once the step finished.
	Tick int64 `json:"tick"`

	// Applied is set for presses and plays.
	Applied *bool `json:"applied,omitempty"`

	// Error is a step error code, or the error text for anything else.
	Error string `json:"error,omitempty"`

	State    string        `json:"state"`
	Mistakes int           `json:"mistakes"`
	Events   []EventRecord `json:"events"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	Session string `json:"session"`

	// Steps holds one record per scenario step.
	Steps []StepRecord `json:"steps"`

	// Events is the full event log, cards included.
	Events []engine.Event `json:"events"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepRecord{},
		Events: []engine.Event{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
