// Package mcp exposes a running puzzle session as Model Context Protocol
// tools, so an assistant can play over stdio.
package mcp

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/pointoforder/internal/bridge"
	"github.com/roach88/pointoforder/internal/engine"
	"github.com/roach88/pointoforder/internal/session"
)

// EventBuffer collects machine events between tool calls. Pass it to
// session.WithSink before the session starts.
type EventBuffer struct {
	mu     sync.Mutex
	events []engine.Event
}

// NewEventBuffer creates an empty buffer.
func NewEventBuffer() *EventBuffer {
	return &EventBuffer{}
}

// Record appends ev.
func (b *EventBuffer) Record(ev engine.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
}

// Drain returns and forgets every buffered event. Never nil.
func (b *EventBuffer) Drain() []engine.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	events := b.events
	b.events = nil
	if events == nil {
		events = []engine.Event{}
	}
	return events
}

// ToolResponse is the JSON envelope returned by every tool.
type ToolResponse struct {
	Session  string          `json:"session"`
	Serial   string          `json:"serial"`
	Snapshot engine.Snapshot `json:"snapshot"`
	Events   []engine.Event  `json:"events"`
	Solved   bool            `json:"solved"`
	Message  string          `json:"message,omitempty"`
}

// Server holds the one session served by this process.
type Server struct {
	sess     *session.Session
	driver   *engine.Driver
	executor *bridge.Executor
	events   *EventBuffer
	logger   *slog.Logger
}

// NewServer wraps a session whose machine is run by driver and whose events
// flow into events. The caller runs the driver.
func NewServer(sess *session.Session, driver *engine.Driver, events *EventBuffer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		sess:     sess,
		driver:   driver,
		executor: bridge.NewExecutor(driver, logger),
		events:   events,
		logger:   logger,
	}
}

func (s *Server) respond(message string) *ToolResponse {
	snap := s.driver.Snapshot()
	return &ToolResponse{
		Session:  s.sess.ID,
		Serial:   s.sess.Serial,
		Snapshot: snap,
		Events:   s.events.Drain(),
		Solved:   snap.State == engine.StateSolved,
		Message:  message,
	}
}

func respondJSON(resp *ToolResponse) string {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Sprintf(`{"error": "marshal error: %v"}`, err)
	}
	return string(data)
}
