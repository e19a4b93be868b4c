// Package config loads session settings from YAML or CUE files.
//
// Files are checked against an embedded CUE schema before they are merged
// over Default, then the merged result is checked again in Go for rules
// that span fields.
package config

import (
	"fmt"
	"time"

	"github.com/roach88/pointoforder/internal/engine"
	"github.com/roach88/pointoforder/internal/puzzle"
	"github.com/roach88/pointoforder/internal/rules"
)

// Config is a fully resolved session configuration.
type Config struct {
	Serial     string        `json:"serial" yaml:"serial"`
	Seed       int64         `json:"seed" yaml:"seed"`
	Database   string        `json:"database,omitempty" yaml:"database,omitempty"`
	Timing     engine.Timing `json:"timing" yaml:"timing"`
	Generation Generation    `json:"generation" yaml:"generation"`
}

// Generation holds puzzle search settings.
type Generation struct {
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`
}

// Default returns the built-in configuration. Serial is left empty and must
// come from a file or a flag.
func Default() Config {
	return Config{
		Timing:     engine.DefaultTiming(),
		Generation: Generation{MaxAttempts: puzzle.DefaultMaxAttempts},
	}
}

// Validate checks the resolved configuration. An empty serial is allowed
// here; callers that need one use Params.
func (c Config) Validate() error {
	if c.Serial != "" {
		if _, err := rules.ParamsFromSerial(c.Serial); err != nil {
			return &Error{Code: ErrCodeInvalid, Field: "serial", Message: err.Error()}
		}
	}
	if err := c.Timing.Validate(); err != nil {
		return &Error{Code: ErrCodeInvalid, Field: "timing", Message: err.Error()}
	}
	if c.Generation.MaxAttempts < 1 {
		return &Error{Code: ErrCodeInvalid, Field: "generation.max_attempts", Message: "must be at least 1"}
	}
	// A round must be able to finish flipping before it times out, or an
	// automated play could never press anything.
	settle := (engine.NumSlots-1)*c.Timing.FlipStaggerTicks + c.Timing.FlipTicks
	if settle >= c.Timing.TimeoutTicks {
		return &Error{
			Code:    ErrCodeInvalid,
			Field:   "timing",
			Message: fmt.Sprintf("cards take %d ticks to settle but time out after %d", settle, c.Timing.TimeoutTicks),
		}
	}
	return nil
}

// Params derives the rule parameters from the serial.
func (c Config) Params() (rules.Params, error) {
	if c.Serial == "" {
		return rules.Params{}, fmt.Errorf("no serial configured: %w", rules.ErrInvalidSerial)
	}
	return rules.ParamsFromSerial(c.Serial)
}

// SeedOrNow returns Seed, or a clock-derived seed when Seed is 0.
func (c Config) SeedOrNow() int64 {
	if c.Seed != 0 {
		return c.Seed
	}
	return time.Now().UnixNano()
}
