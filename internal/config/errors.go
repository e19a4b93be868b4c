package config

import (
	"fmt"

	"cuelang.org/go/cue/token"
)

// Error codes for configuration failures.
const (
	ErrCodeReadFailed  = "C001" // File could not be read
	ErrCodeParseFailed = "C002" // YAML or CUE syntax error
	ErrCodeSchema      = "C003" // Document violates the schema
	ErrCodeInvalid     = "C004" // Values are individually valid but unusable
	ErrCodeUnsupported = "C005" // Unknown file extension
)

// Error describes a configuration file that could not be used.
type Error struct {
	Code    string
	Message string
	Path    string    // config file path, if any
	Field   string    // dotted field path, if known
	Pos     token.Pos // CUE position, if available
}

func (e *Error) Error() string {
	loc := e.Path
	if e.Pos.IsValid() {
		loc = fmt.Sprintf("%s:%d:%d", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
	}
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if loc != "" {
		return fmt.Sprintf("%s: %s: %s", loc, e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}
