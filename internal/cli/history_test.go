package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pointoforder/internal/card"
	"github.com/roach88/pointoforder/internal/engine"
	"github.com/roach88/pointoforder/internal/rules"
	"github.com/roach88/pointoforder/internal/store"
)

func seedHistory(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, st.WriteSession(ctx, store.SessionRecord{
		ID:         "s-1",
		Serial:     "AB1CD2",
		Seed:       7,
		Active:     []rules.Kind{rules.SuitTransition, rules.RankDistance},
		Inactive:   []rules.Kind{rules.Divisibility},
		Pile:       []card.Card{card.MustParse("As"), card.MustParse("4h")},
		Acceptable: []card.Card{card.MustParse("7h")},
		Decoys:     []card.Card{card.MustParse("7c")},
		Attempts:   1,
		CreatedAt:  time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
	}))
	events := []engine.Event{
		{Seq: 1, Tick: 0, Kind: engine.EventReveal, Round: 1, Slot: -1,
			Cards: []card.Card{card.MustParse("7c"), card.MustParse("7h"), card.MustParse("8d"), card.MustParse("2s")}},
		{Seq: 2, Tick: 6, Kind: engine.EventSuccess, Round: 1, Slot: 1, Cards: []card.Card{card.MustParse("7h")}},
	}
	for _, ev := range events {
		require.NoError(t, st.WriteEvent(ctx, "s-1", ev))
	}
	return path
}

func runHistoryCmd(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewHistoryCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestHistory_ListText(t *testing.T) {
	db := seedHistory(t)
	out, err := runHistoryCmd(t, "text", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "s-1")
	assert.Contains(t, out, "AB1CD2")
	assert.Contains(t, out, "solved")
}

func TestHistory_ListJSON(t *testing.T) {
	db := seedHistory(t)
	out, err := runHistoryCmd(t, "json", "--db", db)
	require.NoError(t, err)

	var resp struct {
		Status string                 `json:"status"`
		Data   []store.SessionSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "s-1", resp.Data[0].ID)
	assert.Equal(t, 1, resp.Data[0].Reveals)
	assert.True(t, resp.Data[0].Solved)
}

func TestHistory_SessionEvents(t *testing.T) {
	db := seedHistory(t)

	out, err := runHistoryCmd(t, "text", "--db", db, "--session", "s-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Serial AB1CD2, seed 7, started 2026-03-04 05:06:07")
	assert.Contains(t, out, "round 1: 1:7♣  2:7♥  3:8♦  4:2♠")
	assert.Contains(t, out, "correct! slot 2 held 7♥")

	out, err = runHistoryCmd(t, "json", "--db", db, "--session", "s-1")
	require.NoError(t, err)
	var resp struct {
		Data SessionEvents `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "AB1CD2", resp.Data.Session.Serial)
	require.Len(t, resp.Data.Events, 2)
	assert.Equal(t, engine.EventSuccess, resp.Data.Events[1].Kind)
}

func TestHistory_Errors(t *testing.T) {
	_, err := runHistoryCmd(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")

	_, err = runHistoryCmd(t, "text", "--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")

	db := seedHistory(t)
	_, err = runHistoryCmd(t, "text", "--db", db, "--session", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestHistory_JSONErrors(t *testing.T) {
	db := seedHistory(t)
	tests := []struct {
		name string
		args []string
		code string
	}{
		{"unknown session", []string{"--db", db, "--session", "nope"}, CodeUnknownSession},
		{"missing database", []string{"--db", filepath.Join(t.TempDir(), "missing.db")}, CodeCommand},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runHistoryCmd(t, "json", tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp), "stdout: %q", out)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestHistory_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := runHistoryCmd(t, "text", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions logged.")
}
