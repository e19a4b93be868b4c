package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/pointoforder/internal/card"
	"github.com/roach88/pointoforder/internal/engine"
	"github.com/roach88/pointoforder/internal/puzzle"
	"github.com/roach88/pointoforder/internal/rules"
)

// SessionRecord is the logged form of a generated session.
type SessionRecord struct {
	ID         string       `json:"id"`
	Serial     string       `json:"serial"`
	Seed       int64        `json:"seed"`
	Active     []rules.Kind `json:"active"`
	Inactive   []rules.Kind `json:"inactive"`
	Pile       []card.Card  `json:"pile"`
	Acceptable []card.Card  `json:"acceptable"`
	Decoys     []card.Card  `json:"decoys"`
	Attempts   int          `json:"attempts"`
	CreatedAt  time.Time    `json:"created_at"`
}

// NewSessionRecord captures p for the log.
func NewSessionRecord(id string, seed int64, created time.Time, p *puzzle.Puzzle) SessionRecord {
	return SessionRecord{
		ID:         id,
		Serial:     p.Params.Serial,
		Seed:       seed,
		Active:     rules.Kinds(p.Active),
		Inactive:   rules.Kinds(p.Inactive),
		Pile:       append([]card.Card(nil), p.Pile...),
		Acceptable: append([]card.Card(nil), p.Acceptable...),
		Decoys:     append([]card.Card(nil), p.Decoys...),
		Attempts:   p.Attempts,
		CreatedAt:  created.UTC(),
	}
}

// WriteSession inserts a session record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
func (s *Store) WriteSession(ctx context.Context, rec SessionRecord) error {
	active, err := marshalKinds(rec.Active)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	inactive, err := marshalKinds(rec.Inactive)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	pile, err := marshalCards(rec.Pile)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	acceptable, err := marshalCards(rec.Acceptable)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	decoys, err := marshalCards(rec.Decoys)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions
		(id, serial, seed, active, inactive, pile, acceptable, decoys, attempts, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.Serial,
		rec.Seed,
		active,
		inactive,
		pile,
		acceptable,
		decoys,
		rec.Attempts,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// WriteEvent appends a machine event to a session's log.
// Uses ON CONFLICT DO NOTHING keyed on (session_id, seq).
//
// Note: The session must already exist (foreign key constraint).
func (s *Store) WriteEvent(ctx context.Context, sessionID string, ev engine.Event) error {
	cards, err := marshalCards(ev.Cards)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO events
		(session_id, seq, tick, kind, reason, round, slot, cards)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		sessionID,
		ev.Seq,
		ev.Tick,
		string(ev.Kind),
		string(ev.Reason),
		ev.Round,
		ev.Slot,
		cards,
	)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}
