package harness

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Transcript is the golden form of a scenario run.
type Transcript struct {
	Scenario string       `json:"scenario"`
	Session  string       `json:"session"`
	Serial   string       `json:"serial"`
	Seed     int64        `json:"seed"`
	Steps    []StepRecord `json:"steps"`
}

// NewTranscript builds the transcript of result.
func NewTranscript(scenario *Scenario, result *Result) Transcript {
	return Transcript{
		Scenario: scenario.Name,
		Session:  result.Session,
		Serial:   scenario.Serial,
		Seed:     scenario.Seed,
		Steps:    result.Steps,
	}
}

// Marshal renders the transcript as indented JSON.
func (tr Transcript) Marshal() ([]byte, error) {
	return json.MarshalIndent(tr, "", "  ")
}

// RunWithGolden executes a scenario and compares its transcript against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the transcript doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's transcript against its golden
// file without re-running the scenario.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	data, err := NewTranscript(scenario, result).Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return nil
}
