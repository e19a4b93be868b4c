// Package engine implements the interaction state machine that a player
// drives against a generated puzzle.
//
// ARCHITECTURE:
//
// Tick Scheduler:
// Time is a logical tick counter. Every timed behaviour (the reveal
// countdown, each card flip, an automated play waiting for the cards to
// settle) is a Task stepped once per tick by the Scheduler. Tasks re-read
// the machine's state on every step, so a press that solves the puzzle
// simply causes the countdown to stop at its next step.
//
// States:
//
//	Idle ──press──▶ Revealed ──correct──▶ Solved
//	                   │
//	           wrong / timeout
//	                   ▼
//	               Resolving ──last card face down──▶ Idle
//
// Slot Locks:
// Each flip owns its slot's lock from scheduling until it completes. A
// locked slot ignores input. A conceal that starts while a reveal flip is
// still running takes the lock over; the older flip finishing does not
// release it.
//
// Single-Writer Driver:
// Machine is not safe for concurrent use. Driver owns a Machine in one
// goroutine, advancing it from a time.Ticker and applying presses queued
// from other goroutines between ticks. Tests and the scenario harness step
// a Machine directly with Tick for fully deterministic runs.
package engine
