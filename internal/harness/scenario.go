package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pointoforder/internal/engine"
)

// Scenario is a scripted session: a serial and seed that fix the puzzle,
// a list of steps driving the machine, and assertions over what happened.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	Serial string `yaml:"serial"`
	Seed   int64  `yaml:"seed"`

	// Timing overrides individual engine timing fields.
	Timing TimingOverride `yaml:"timing,omitempty"`

	// Steps run in order against a fresh session.
	Steps []Step `yaml:"steps"`

	// Assertions validate the event log and the stored state afterwards.
	Assertions []Assertion `yaml:"assertions"`
}

// TimingOverride replaces the named engine.Timing fields. Unset fields
// keep their defaults.
type TimingOverride struct {
	TimeoutTicks     *int `yaml:"timeout_ticks,omitempty"`
	FlipStaggerTicks *int `yaml:"flip_stagger_ticks,omitempty"`
	FlipTicks        *int `yaml:"flip_ticks,omitempty"`
}

// Apply returns t with the overrides applied.
func (o TimingOverride) Apply(t engine.Timing) engine.Timing {
	if o.TimeoutTicks != nil {
		t.TimeoutTicks = *o.TimeoutTicks
	}
	if o.FlipStaggerTicks != nil {
		t.FlipStaggerTicks = *o.FlipStaggerTicks
	}
	if o.FlipTicks != nil {
		t.FlipTicks = *o.FlipTicks
	}
	return t
}

// Step is one action. Exactly one action field must be set.
type Step struct {
	// Press presses a slot, numbered 1 to 4. Out-of-range numbers are
	// passed through so scenarios can check that they are ignored.
	Press int `yaml:"press,omitempty"`

	// PressCorrect presses the slot holding the correct card.
	PressCorrect bool `yaml:"press_correct,omitempty"`

	// PressWrong presses the first slot holding a decoy.
	PressWrong bool `yaml:"press_wrong,omitempty"`

	// Play sends command text through the bridge.
	Play string `yaml:"play,omitempty"`

	// PlayCorrect starts an automated play that picks the correct card.
	PlayCorrect bool `yaml:"play_correct,omitempty"`

	// Tick advances time by the given number of ticks.
	Tick int `yaml:"tick,omitempty"`

	// WaitUnlocked ticks until no slot is locked.
	WaitUnlocked bool `yaml:"wait_unlocked,omitempty"`

	// Settle ticks until no timed work is outstanding.
	Settle bool `yaml:"settle,omitempty"`

	// Expect is checked after the action.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the machine's condition after a step. Unset fields are
// not checked.
type Expect struct {
	State    string `yaml:"state,omitempty"`
	Mistakes *int   `yaml:"mistakes,omitempty"`
	Tick     *int64 `yaml:"tick,omitempty"`
	Applied  *bool  `yaml:"applied,omitempty"`

	// Error is "malformed", "not_idle" or empty for no error.
	Error string `yaml:"error,omitempty"`
}

// Step error codes as they appear in scenarios and transcripts.
const (
	StepErrMalformed = "malformed"
	StepErrNotIdle   = "not_idle"
)

func (s Step) actions() int {
	n := 0
	for _, set := range []bool{
		s.Press != 0, s.PressCorrect, s.PressWrong, s.Play != "",
		s.PlayCorrect, s.Tick != 0, s.WaitUnlocked, s.Settle,
	} {
		if set {
			n++
		}
	}
	return n
}

// Assertion validates the event log or final stored state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Kind is the event kind (event_contains, event_count).
	Kind string `yaml:"kind,omitempty"`

	// Reason narrows event_contains to a mistake reason.
	Reason string `yaml:"reason,omitempty"`

	// Round narrows event_contains to a round.
	Round int `yaml:"round,omitempty"`

	// Count is the expected number of events (event_count).
	Count int `yaml:"count,omitempty"`

	// Kinds is the expected order of event kinds (event_order).
	Kinds []string `yaml:"kinds,omitempty"`

	// Table, Where and Expect query the session log (final_state).
	// Where must match exactly one row; Expect is a subset match.
	Table  string         `yaml:"table,omitempty"`
	Where  map[string]any `yaml:"where,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertEventContains = "event_contains"
	AssertEventOrder    = "event_order"
	AssertEventCount    = "event_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Serial == "" {
		return fmt.Errorf("serial is required")
	}
	if s.Seed == 0 {
		return fmt.Errorf("seed is required and must be non-zero")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		switch n := step.actions(); {
		case n == 0:
			return fmt.Errorf("steps[%d]: no action given", i)
		case n > 1:
			return fmt.Errorf("steps[%d]: %d actions given, want exactly one", i, n)
		}
		if step.Tick < 0 {
			return fmt.Errorf("steps[%d]: tick must be positive", i)
		}
		if e := step.Expect; e != nil && e.Error != "" && e.Error != StepErrMalformed && e.Error != StepErrNotIdle {
			return fmt.Errorf("steps[%d].expect: unknown error %q", i, e.Error)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertEventContains:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for event_contains", index)
		}
	case AssertEventOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for event_order", index)
		}
	case AssertEventCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for event_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
