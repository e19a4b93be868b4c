package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pointoforder/internal/engine"
)

const minimalScenario = `
name: minimal
description: "Reveal once"
serial: AB1CD2
seed: 1
steps:
  - press: 1
`

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")

	content := `
name: test_scenario
description: "Test scenario for validation"
serial: AB1CD2
seed: 7
timing:
  timeout_ticks: 30
steps:
  - press: 2
    expect: { state: revealed, applied: true }
  - play: "play A of hearts"
    expect: { error: not_idle }
  - settle: true
assertions:
  - type: event_count
    kind: reveal
    count: 1
  - type: final_state
    table: sessions
    where: { id: $session }
    expect: { seed: 7 }
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "AB1CD2", scenario.Serial)
	assert.Equal(t, int64(7), scenario.Seed)
	require.Len(t, scenario.Steps, 3)
	assert.Equal(t, 2, scenario.Steps[0].Press)
	require.NotNil(t, scenario.Steps[0].Expect.Applied)
	assert.True(t, *scenario.Steps[0].Expect.Applied)
	assert.Equal(t, "play A of hearts", scenario.Steps[1].Play)
	assert.Equal(t, StepErrNotIdle, scenario.Steps[1].Expect.Error)
	assert.True(t, scenario.Steps[2].Settle)

	require.Len(t, scenario.Assertions, 2)
	assert.Equal(t, SessionPlaceholder, scenario.Assertions[1].Where["id"])
	assert.Equal(t, 7, scenario.Assertions[1].Expect["seed"])
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(minimalScenario + "assertion: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"missing name", `
description: "x"
serial: AB1CD2
seed: 1
steps: [{press: 1}]
`, "name is required"},
		{"missing description", `
name: x
serial: AB1CD2
seed: 1
steps: [{press: 1}]
`, "description is required"},
		{"missing serial", `
name: x
description: "x"
seed: 1
steps: [{press: 1}]
`, "serial is required"},
		{"zero seed", `
name: x
description: "x"
serial: AB1CD2
steps: [{press: 1}]
`, "seed is required"},
		{"no steps", `
name: x
description: "x"
serial: AB1CD2
seed: 1
`, "steps list is required"},
		{"empty step", `
name: x
description: "x"
serial: AB1CD2
seed: 1
steps: [{expect: {state: idle}}]
`, "steps[0]: no action given"},
		{"two actions", `
name: x
description: "x"
serial: AB1CD2
seed: 1
steps: [{press: 1, settle: true}]
`, "2 actions given"},
		{"negative tick", `
name: x
description: "x"
serial: AB1CD2
seed: 1
steps: [{tick: -2}]
`, "tick must be positive"},
		{"unknown error code", `
name: x
description: "x"
serial: AB1CD2
seed: 1
steps: [{press: 1, expect: {error: boom}}]
`, "unknown error"},
		{"unknown assertion", `
name: x
description: "x"
serial: AB1CD2
seed: 1
steps: [{press: 1}]
assertions: [{type: trace_contains}]
`, "unknown assertion type"},
		{"event_count without kind", `
name: x
description: "x"
serial: AB1CD2
seed: 1
steps: [{press: 1}]
assertions: [{type: event_count, count: 1}]
`, "kind is required for event_count"},
		{"final_state without expect", `
name: x
description: "x"
serial: AB1CD2
seed: 1
steps: [{press: 1}]
assertions: [{type: final_state, table: sessions}]
`, "expect is required for final_state"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTimingOverride_Apply(t *testing.T) {
	timeout, flip := 12, 1
	o := TimingOverride{TimeoutTicks: &timeout, FlipTicks: &flip}

	got := o.Apply(engine.DefaultTiming())
	assert.Equal(t, 12, got.TimeoutTicks)
	assert.Equal(t, 1, got.FlipTicks)
	assert.Equal(t, engine.DefaultTiming().FlipStaggerTicks, got.FlipStaggerTicks)
	assert.Equal(t, engine.DefaultTiming().TickInterval, got.TickInterval)
}

func TestLoadScenario_Testdata(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		_, err := LoadScenario(path)
		assert.NoError(t, err, path)
	}
}
