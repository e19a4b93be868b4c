package engine

import "sync/atomic"

// Clock is a monotonic logical counter. The scheduler uses one to number
// ticks and the machine uses another to number events, so ordering never
// depends on wall-clock time.
//
// Clock is safe for concurrent use, although the Driver's single-writer loop
// means only one goroutine normally calls Next.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at start.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next increments the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current value without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
