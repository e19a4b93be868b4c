package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/pointoforder/internal/engine"
)

// Recorder is an engine.EventSink that appends events to the log.
//
// Sinks cannot return errors, so write failures are logged and the first
// one is kept for Err. Gameplay never stops because the log is unavailable.
type Recorder struct {
	store     *Store
	sessionID string
	logger    *slog.Logger

	mu  sync.Mutex
	err error
}

// NewRecorder creates a recorder for one session.
func (s *Store) NewRecorder(sessionID string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: s, sessionID: sessionID, logger: logger}
}

// Record writes ev.
func (r *Recorder) Record(ev engine.Event) {
	if err := r.store.WriteEvent(context.Background(), r.sessionID, ev); err != nil {
		r.logger.Error("event log write failed",
			"error", err,
			"session", r.sessionID,
			"seq", ev.Seq,
			"kind", string(ev.Kind),
		)
		r.mu.Lock()
		if r.err == nil {
			r.err = err
		}
		r.mu.Unlock()
	}
}

// Err returns the first write failure, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
