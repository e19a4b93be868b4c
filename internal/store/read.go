package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/pointoforder/internal/engine"
)

// SessionSummary is a session with its outcome counts.
type SessionSummary struct {
	SessionRecord
	Reveals  int  `json:"reveals"`
	Mistakes int  `json:"mistakes"`
	Solved   bool `json:"solved"`
}

// ReadSession returns one session, or ErrNotFound.
func (s *Store) ReadSession(ctx context.Context, id string) (SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, serial, seed, active, inactive, pile, acceptable, decoys, attempts, created_at
		FROM sessions
		WHERE id = ?
	`, id)

	rec, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRecord{}, fmt.Errorf("read session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return SessionRecord{}, fmt.Errorf("read session %s: %w", id, err)
	}
	return rec, nil
}

// ListSessions returns every session with outcome counts, oldest first.
//
// Returns an empty slice (not nil) when the log is empty.
func (s *Store) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.serial, s.seed, s.active, s.inactive, s.pile, s.acceptable,
		       s.decoys, s.attempts, s.created_at,
		       COALESCE(SUM(e.kind = 'reveal'), 0),
		       COALESCE(SUM(e.kind = 'mistake'), 0),
		       COALESCE(SUM(e.kind = 'success'), 0)
		FROM sessions s
		LEFT JOIN events e ON e.session_id = s.id
		GROUP BY s.id
		ORDER BY s.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	out := []SessionSummary{}
	for rows.Next() {
		var sum SessionSummary
		var successes int
		rec, err := scanSession(rows, &sum.Reveals, &sum.Mistakes, &successes)
		if err != nil {
			return nil, err
		}
		sum.SessionRecord = rec
		sum.Solved = successes > 0
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

// ReadEvents returns a session's events in seq order.
//
// Returns an empty slice (not nil) if the session has no events.
func (s *Store) ReadEvents(ctx context.Context, sessionID string) ([]engine.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, tick, kind, reason, round, slot, cards
		FROM events
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []engine.Event{}
	for rows.Next() {
		var (
			ev     engine.Event
			kind   string
			reason string
			cards  string
		)
		if err := rows.Scan(&ev.Seq, &ev.Tick, &kind, &reason, &ev.Round, &ev.Slot, &cards); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Kind = engine.EventKind(kind)
		ev.Reason = engine.MistakeReason(reason)
		parsed, err := unmarshalCards(cards)
		if err != nil {
			return nil, err
		}
		if len(parsed) > 0 {
			ev.Cards = parsed
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanSession reads the ten session columns followed by any extra columns.
func scanSession(row scanner, extra ...any) (SessionRecord, error) {
	var (
		rec                                            SessionRecord
		active, inactive, pile, acceptable, decoys, at string
	)
	dest := append([]any{
		&rec.ID, &rec.Serial, &rec.Seed, &active, &inactive,
		&pile, &acceptable, &decoys, &rec.Attempts, &at,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SessionRecord{}, err
		}
		return SessionRecord{}, fmt.Errorf("scan session: %w", err)
	}

	var err error
	if rec.Active, err = unmarshalKinds(active); err != nil {
		return SessionRecord{}, err
	}
	if rec.Inactive, err = unmarshalKinds(inactive); err != nil {
		return SessionRecord{}, err
	}
	if rec.Pile, err = unmarshalCards(pile); err != nil {
		return SessionRecord{}, err
	}
	if rec.Acceptable, err = unmarshalCards(acceptable); err != nil {
		return SessionRecord{}, err
	}
	if rec.Decoys, err = unmarshalCards(decoys); err != nil {
		return SessionRecord{}, err
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
		return SessionRecord{}, fmt.Errorf("scan session: created_at: %w", err)
	}
	return rec, nil
}
