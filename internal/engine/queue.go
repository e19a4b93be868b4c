package engine

import "sync"

// input is a player or automation action waiting to be applied by the
// Driver loop. apply runs on the loop goroutine with the machine locked.
type input struct {
	name  string
	apply func(m *Machine)
}

// inputQueue is a thread-safe FIFO of inputs. Any goroutine may enqueue;
// only the Driver loop dequeues.
//
// A buffered signal channel lets the loop wait for input in a select next to
// the ticker and its context.
type inputQueue struct {
	mu     sync.Mutex
	items  []input
	closed bool
	signal chan struct{}
}

func newInputQueue() *inputQueue {
	return &inputQueue{
		items:  make([]input, 0, 8),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds in to the back of the queue. Returns false once closed.
func (q *inputQueue) Enqueue(in input) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items = append(q.items, in)

	// Non-blocking; the buffer of one coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front input without blocking.
func (q *inputQueue) TryDequeue() (input, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return input{}, false
	}
	in := q.items[0]
	// Clear the slot so the closure can be collected.
	q.items[0] = input{}
	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return in, true
}

// Wait returns a channel that fires when input may be available. It is
// closed, and so fires forever, after Close.
func (q *inputQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued inputs.
func (q *inputQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Closed reports whether Close has been called.
func (q *inputQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close stops further enqueues and wakes the waiter.
func (q *inputQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
