package engine

import (
	"log/slog"
	"sync"

	"github.com/roach88/pointoforder/internal/card"
)

// EventKind identifies what happened.
type EventKind string

const (
	// EventReveal is emitted when four candidates are dealt face up.
	EventReveal EventKind = "reveal"
	// EventSuccess is emitted once when the correct card is pressed.
	EventSuccess EventKind = "success"
	// EventMistake is emitted on a wrong press or a timeout.
	EventMistake EventKind = "mistake"
	// EventIdle is emitted when the last card finishes turning face down.
	EventIdle EventKind = "idle"
)

// MistakeReason says why a mistake was recorded.
type MistakeReason string

const (
	ReasonWrongCard MistakeReason = "wrong_card"
	ReasonTimeout   MistakeReason = "timeout"
)

// Event is a single observable outcome of the state machine.
type Event struct {
	// Seq orders events within a machine, starting at 1.
	Seq int64 `json:"seq" yaml:"seq"`

	// Tick is the scheduler tick at which the event happened.
	Tick int64 `json:"tick" yaml:"tick"`

	Kind   EventKind     `json:"kind" yaml:"kind"`
	Reason MistakeReason `json:"reason,omitempty" yaml:"reason,omitempty"`

	// Round is the 1-based reveal count the event belongs to.
	Round int `json:"round" yaml:"round"`

	// Slot is the pressed slot for success and wrong-card mistakes, or -1.
	Slot int `json:"slot" yaml:"slot"`

	// Cards holds the four dealt cards for reveal events and the pressed
	// card for success and wrong-card mistakes.
	Cards []card.Card `json:"cards,omitempty" yaml:"cards,omitempty"`
}

// EventSink receives machine events. Record is called from the goroutine
// driving the machine and must not call back into it.
type EventSink interface {
	Record(ev Event)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(ev Event)

// Record calls f.
func (f SinkFunc) Record(ev Event) {
	f(ev)
}

// MultiSink fans an event out to several sinks in order.
type MultiSink []EventSink

// Record forwards ev to every sink.
func (m MultiSink) Record(ev Event) {
	for _, s := range m {
		s.Record(ev)
	}
}

// MemorySink keeps every event in memory. Safe for concurrent use.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// NewMemorySink creates an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Record appends ev.
func (s *MemorySink) Record(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

// Events returns a copy of all recorded events.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

// OfKind returns the recorded events of the given kind.
func (s *MemorySink) OfKind(kind EventKind) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, ev := range s.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

// Count returns how many events of kind were recorded.
func (s *MemorySink) Count(kind EventKind) int {
	return len(s.OfKind(kind))
}

// LogSink writes each event to a logger at info level.
type LogSink struct {
	Logger *slog.Logger
}

// Record logs ev.
func (s LogSink) Record(ev Event) {
	attrs := []any{
		"seq", ev.Seq,
		"tick", ev.Tick,
		"round", ev.Round,
	}
	if ev.Reason != "" {
		attrs = append(attrs, "reason", string(ev.Reason))
	}
	if ev.Slot >= 0 {
		attrs = append(attrs, "slot", ev.Slot)
	}
	if len(ev.Cards) > 0 {
		attrs = append(attrs, "cards", card.Join(ev.Cards, " "))
	}
	s.Logger.Info("event "+string(ev.Kind), attrs...)
}
