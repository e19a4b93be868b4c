package puzzle

import (
	"errors"
	"fmt"
)

// GenerationError reports a puzzle that could not be generated.
//
// Dead ends inside the backtracking search are expected and never surface
// as errors. Only exhausting every top-level attempt, or cancellation, does.
type GenerationError struct {
	// Code identifies the error category.
	Code GenerationErrorCode

	// Message is a human-readable description.
	Message string

	// Attempts is the number of full searches run before giving up.
	Attempts int

	// Err is the underlying cause, if any.
	Err error
}

// GenerationErrorCode categorizes generation errors.
type GenerationErrorCode string

const (
	// ErrCodeAttemptsExhausted means no valid puzzle was found within the
	// configured number of attempts. This points at a configuration problem.
	ErrCodeAttemptsExhausted GenerationErrorCode = "ATTEMPTS_EXHAUSTED"

	// ErrCodeCancelled means the context was cancelled between attempts.
	ErrCodeCancelled GenerationErrorCode = "CANCELLED"

	// ErrCodeInvalidOptions means the generator options are unusable.
	ErrCodeInvalidOptions GenerationErrorCode = "INVALID_OPTIONS"
)

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s after %d attempts: %v", e.Code, e.Message, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s: %s after %d attempts", e.Code, e.Message, e.Attempts)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsAttemptsExhausted reports whether err is an exhausted-attempts error.
// Uses errors.As to handle wrapped errors.
func IsAttemptsExhausted(err error) bool {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Code == ErrCodeAttemptsExhausted
	}
	return false
}

// IsCancelled reports whether generation stopped because of its context.
func IsCancelled(err error) bool {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Code == ErrCodeCancelled
	}
	return false
}

// InvariantError describes a puzzle that breaks one of its structural
// invariants. Returned by Validate.
type InvariantError struct {
	Invariant string
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("puzzle invariant %q violated: %s", e.Invariant, e.Detail)
}
