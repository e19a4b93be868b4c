// Package rules implements the adjacency rule pool and the per-session
// parameters derived from a serial number.
//
// The pool is closed: suit-transition, divisibility alternation and rank
// distance. Each Rule value carries the parameters it needs, so evaluating a
// rule reads no shared state. A puzzle activates two rules and leaves one
// inactive; see package puzzle.
package rules
