// Package harness runs scripted puzzle sessions and checks what happened.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: solve_after_wrong_card
//	description: "A wrong press costs a mistake; the next round can still be won"
//	serial: AB1CD2
//	seed: 7
//	timing:
//	  timeout_ticks: 20
//	  flip_stagger_ticks: 1
//	  flip_ticks: 2
//	steps:
//	  - press: 1
//	    expect: { state: revealed }
//	  - wait_unlocked: true
//	  - press_wrong: true
//	    expect: { state: resolving, mistakes: 1 }
//	  - settle: true
//	assertions:
//	  - type: event_order
//	    kinds: [reveal, mistake, idle]
//	  - type: final_state
//	    table: events
//	    where: { session_id: $session, seq: 2 }
//	    expect: { reason: wrong_card }
//
// Each step sets exactly one action: press (slot 1 to 4), press_correct,
// press_wrong, play (bridge command text), play_correct, tick,
// wait_unlocked or settle.
//
// # Assertion Types
//
//   - event_contains: some event has the kind, and the reason and round when given
//   - event_order: the kinds occur in order, other events may intervene
//   - event_count: exactly count events have the kind
//   - final_state: one row of the session log matches where and holds expect
//
// # Deterministic Testing
//
// The serial and seed fix the puzzle and every deal. Session ids come from a
// sequence generator, timestamps from testutil.StepClock, and the machine is
// ticked directly, so a scenario always produces the same transcript. Each
// run logs to its own in-memory SQLite database.
//
// Transcripts record each step's tick, state, mistake count and events.
// They leave out slots and cards, so golden files capture the timing model
// without pinning the generator's output.
package harness
