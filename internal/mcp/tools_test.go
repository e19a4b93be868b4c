package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pointoforder/internal/card"
	"github.com/roach88/pointoforder/internal/config"
	"github.com/roach88/pointoforder/internal/engine"
	"github.com/roach88/pointoforder/internal/session"
)

type decoded struct {
	Session  string `json:"session"`
	Serial   string `json:"serial"`
	Snapshot struct {
		State string `json:"state"`
		Slots []struct {
			FaceUp bool       `json:"face_up"`
			Locked bool       `json:"locked"`
			Card   *card.Card `json:"card"`
		} `json:"slots"`
	} `json:"snapshot"`
	Events []struct {
		Kind string `json:"kind"`
	} `json:"events"`
	Solved  bool   `json:"solved"`
	Message string `json:"message"`
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newServer(t *testing.T) (*Server, *session.Session) {
	t.Helper()
	cfg := config.Default()
	cfg.Serial = "AB1CD2"
	cfg.Seed = 4
	cfg.Timing = engine.Timing{
		TickInterval:     time.Millisecond,
		TimeoutTicks:     100000,
		FlipStaggerTicks: 1,
		FlipTicks:        1,
	}

	events := NewEventBuffer()
	sess, err := session.Start(context.Background(), cfg,
		session.WithIDGenerator(session.NewSequenceGenerator("mcp")),
		session.WithSink(events),
		session.WithLogger(quietLogger()),
	)
	require.NoError(t, err)

	driver := engine.NewDriver(sess.Machine)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = driver.Run(ctx) }()

	return NewServer(sess, driver, events, quietLogger()), sess
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return tc.Text
}

func decode(t *testing.T, res *mcp.CallToolResult) decoded {
	t.Helper()
	require.False(t, res.IsError, resultText(t, res))
	var d decoded
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &d))
	return d
}

func getState(t *testing.T, s *Server) decoded {
	t.Helper()
	res, err := s.handleGetState(context.Background(), call(nil))
	require.NoError(t, err)
	return decode(t, res)
}

// revealAndSettle presses slot 1 and waits until every card is face up and
// unlocked.
func revealAndSettle(t *testing.T, s *Server) decoded {
	t.Helper()
	res, err := s.handlePress(context.Background(), call(map[string]any{"slot": 1}))
	require.NoError(t, err)
	assert.Equal(t, "slot 1 pressed", decode(t, res).Message)

	var last decoded
	require.Eventually(t, func() bool {
		last = getState(t, s)
		for _, slot := range last.Snapshot.Slots {
			if !slot.FaceUp || slot.Locked {
				return false
			}
		}
		return true
	}, 2*time.Second, time.Millisecond)
	return last
}

func TestTools(t *testing.T) {
	var names []string
	for _, tool := range Tools() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"get_state", "press", "play", "wait"}, names)
}

func TestGetState_Idle(t *testing.T) {
	s, sess := newServer(t)

	d := getState(t, s)
	assert.Equal(t, "mcp-1", d.Session)
	assert.Equal(t, sess.Serial, d.Serial)
	assert.Equal(t, "idle", d.Snapshot.State)
	assert.Len(t, d.Snapshot.Slots, engine.NumSlots)
	assert.Empty(t, d.Events)
	assert.False(t, d.Solved)
}

func TestPress_InvalidSlot(t *testing.T) {
	s, _ := newServer(t)

	for _, slot := range []any{0, 5, "x"} {
		res, err := s.handlePress(context.Background(), call(map[string]any{"slot": slot}))
		require.NoError(t, err)
		assert.True(t, res.IsError, "slot %v", slot)
	}
}

func TestPress_SolvesPuzzle(t *testing.T) {
	s, sess := newServer(t)

	d := revealAndSettle(t, s)
	correct := 0
	for i, slot := range d.Snapshot.Slots {
		require.NotNil(t, slot.Card)
		if sess.Puzzle.IsAcceptable(*slot.Card) {
			correct = i + 1
		}
	}
	require.NotZero(t, correct, "one revealed card continues the pile")

	res, err := s.handlePress(context.Background(), call(map[string]any{"slot": correct}))
	require.NoError(t, err)
	d = decode(t, res)
	assert.True(t, d.Solved)
	assert.Equal(t, "solved", d.Snapshot.State)
	require.NotEmpty(t, d.Events)
	assert.Equal(t, "success", d.Events[len(d.Events)-1].Kind)
}

func TestPlay_Malformed(t *testing.T) {
	s, _ := newServer(t)

	res, err := s.handlePlay(context.Background(), call(map[string]any{"command": "deal me in"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Could not parse")
	assert.Equal(t, "idle", getState(t, s).Snapshot.State, "malformed command must not touch the session")
}

func TestPlay_NotIdle(t *testing.T) {
	s, _ := newServer(t)
	revealAndSettle(t, s)

	res, err := s.handlePlay(context.Background(), call(map[string]any{"command": "play A of spades"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "not face down")
}

func TestPlay_Started(t *testing.T) {
	s, _ := newServer(t)

	res, err := s.handlePlay(context.Background(), call(map[string]any{"command": "play A/K of hearts"}))
	require.NoError(t, err)
	d := decode(t, res)
	assert.Equal(t, "started play A/K of ♥", d.Message)
	require.NotEmpty(t, d.Events)
	assert.Equal(t, "reveal", d.Events[0].Kind)
}

func TestWait(t *testing.T) {
	s, _ := newServer(t)

	res, err := s.handleWait(context.Background(), call(map[string]any{"ticks": 0}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	start := time.Now()
	res, err = s.handleWait(context.Background(), call(map[string]any{"ticks": 5}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Less(t, time.Since(start), MaxWait)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err = s.handleWait(ctx, call(map[string]any{"ticks": 100000}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestEventBuffer_Drain(t *testing.T) {
	b := NewEventBuffer()
	assert.NotNil(t, b.Drain())

	b.Record(engine.Event{Seq: 1, Kind: engine.EventReveal})
	b.Record(engine.Event{Seq: 2, Kind: engine.EventMistake})
	got := b.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[1].Seq)
	assert.Empty(t, b.Drain())
}
