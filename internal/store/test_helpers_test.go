package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/pointoforder/internal/card"
	"github.com/roach88/pointoforder/internal/engine"
	"github.com/roach88/pointoforder/internal/rules"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSession builds a session record with fixed contents.
func createTestSession(id string) SessionRecord {
	return SessionRecord{
		ID:         id,
		Serial:     "AB1CD2",
		Seed:       7,
		Active:     []rules.Kind{rules.SuitTransition, rules.RankDistance},
		Inactive:   []rules.Kind{rules.Divisibility},
		Pile:       cards("As", "4h", "7c", "10d", "Ks"),
		Acceptable: cards("3s", "3h"),
		Decoys:     cards("3c", "3d", "4s", "4d"),
		Attempts:   2,
		CreatedAt:  time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
	}
}

func cards(names ...string) []card.Card {
	out := make([]card.Card, len(names))
	for i, n := range names {
		out[i] = card.MustParse(n)
	}
	return out
}

func revealEvent(seq int64, round int) engine.Event {
	return engine.Event{
		Seq:   seq,
		Tick:  seq * 10,
		Kind:  engine.EventReveal,
		Round: round,
		Slot:  -1,
		Cards: cards("3h", "3c", "4s", "3d"),
	}
}
