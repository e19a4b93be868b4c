// Package store keeps an optional SQLite audit log of played sessions.
//
// Each session row records the generated puzzle; each event row records one
// outcome emitted by the state machine. The log is append-only and is never
// used to restore a game: every session generates a fresh puzzle.
//
// # Ordering
//
//   - Events are keyed and ordered by (session_id, seq), the machine's
//     logical event counter, never by wall time.
//   - Sessions are ordered by id. UUIDv7 ids sort by creation time.
//   - Every query has an explicit ORDER BY with COLLATE BINARY on text keys.
//
// # Idempotency
//
// Writes use ON CONFLICT DO NOTHING, so replaying the same events into the
// log is harmless.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Events must belong to a recorded session
package store
