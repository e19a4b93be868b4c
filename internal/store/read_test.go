package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pointoforder/internal/card"
	"github.com/roach88/pointoforder/internal/engine"
)

func TestReadSession_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadSession(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSessions_Empty(t *testing.T) {
	s := createTestStore(t)

	got, err := s.ListSessions(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListSessions_OrderAndCounts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// Written out of order; listing sorts by id.
	require.NoError(t, s.WriteSession(ctx, createTestSession("s-2")))
	require.NoError(t, s.WriteSession(ctx, createTestSession("s-1")))

	played := []engine.Event{
		revealEvent(1, 1),
		{Seq: 2, Tick: 14, Kind: engine.EventMistake, Reason: engine.ReasonWrongCard, Round: 1, Slot: 2, Cards: []card.Card{card.MustParse("4s")}},
		{Seq: 3, Tick: 26, Kind: engine.EventIdle, Round: 1, Slot: -1},
		revealEvent(4, 2),
		{Seq: 5, Tick: 60, Kind: engine.EventSuccess, Round: 2, Slot: 0, Cards: []card.Card{card.MustParse("3h")}},
	}
	for _, ev := range played {
		require.NoError(t, s.WriteEvent(ctx, "s-1", ev))
	}

	got, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "s-1", got[0].ID)
	assert.Equal(t, 2, got[0].Reveals)
	assert.Equal(t, 1, got[0].Mistakes)
	assert.True(t, got[0].Solved)

	assert.Equal(t, "s-2", got[1].ID)
	assert.Zero(t, got[1].Reveals)
	assert.False(t, got[1].Solved)

	events, err := s.ReadEvents(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, played, events)
}

func TestReadEvents_Empty(t *testing.T) {
	s := createTestStore(t)

	events, err := s.ReadEvents(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestQuery(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteSession(ctx, createTestSession("q-1")))
	require.NoError(t, s.WriteEvent(ctx, "q-1", revealEvent(1, 1)))

	rows, err := s.Query(ctx, "SELECT kind, slot FROM events WHERE session_id = ?", "q-1")
	require.NoError(t, err)
	defer rows.Close()

	require.True(t, rows.Next())
	var kind string
	var slot int
	require.NoError(t, rows.Scan(&kind, &slot))
	assert.Equal(t, "reveal", kind)
	assert.Equal(t, -1, slot)
	assert.False(t, rows.Next())
}
