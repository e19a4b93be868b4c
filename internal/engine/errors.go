package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNotIdle is returned when an automated play is requested while
	// cards are face up or turning.
	ErrNotIdle = errors.New("cards are not face down")

	// ErrStopped is returned by Driver methods once Run has exited.
	ErrStopped = errors.New("driver stopped")
)

// StateError wraps ErrNotIdle with the state the machine was actually in.
type StateError struct {
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s (state %s)", ErrNotIdle, e.State)
}

func (e *StateError) Unwrap() error {
	return ErrNotIdle
}

// IsNotIdle reports whether err was caused by acting outside Idle.
func IsNotIdle(err error) bool {
	return errors.Is(err, ErrNotIdle)
}
