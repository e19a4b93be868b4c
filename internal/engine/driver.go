package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/pointoforder/internal/card"
)

// Driver runs a Machine in real time.
//
// Run owns the machine in a single goroutine: a ticker advances it one tick
// per TickInterval, and presses or plays enqueued from any goroutine are
// applied between ticks in arrival order.
type Driver struct {
	m      *Machine
	queue  *inputQueue
	logger *slog.Logger

	// mu guards m so Snapshot can be read while Run is active.
	mu   sync.Mutex
	done chan struct{}
}

// NewDriver wraps m. The machine must not be used directly afterwards.
func NewDriver(m *Machine) *Driver {
	return &Driver{
		m:      m,
		queue:  newInputQueue(),
		logger: m.logger,
		done:   make(chan struct{}),
	}
}

// Press queues a press on slot. The press is applied asynchronously and,
// like Machine.Press, may turn out to have no effect.
func (d *Driver) Press(slot int) error {
	in := input{
		name:  "press",
		apply: func(m *Machine) { m.Press(slot) },
	}
	if !d.queue.Enqueue(in) {
		return ErrStopped
	}
	return nil
}

// PressWait queues a press on slot and waits for the loop to apply it. The
// result reports whether the press had any effect.
func (d *Driver) PressWait(ctx context.Context, slot int) (bool, error) {
	reply := make(chan bool, 1)
	in := input{
		name:  "press",
		apply: func(m *Machine) { reply <- m.Press(slot) },
	}
	if !d.queue.Enqueue(in) {
		return false, ErrStopped
	}
	select {
	case ok := <-reply:
		return ok, nil
	case <-d.done:
		return false, ErrStopped
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Play queues an automated play and waits until the loop has accepted or
// rejected it. The outcome of the chosen press arrives later as an event.
func (d *Driver) Play(ctx context.Context, match func(card.Card) bool) error {
	reply := make(chan error, 1)
	in := input{
		name:  "play",
		apply: func(m *Machine) { reply <- m.Play(match) },
	}
	if !d.queue.Enqueue(in) {
		return ErrStopped
	}
	select {
	case err := <-reply:
		return err
	case <-d.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the machine's current view.
func (d *Driver) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.m.Snapshot()
}

// Done is closed when Run returns.
func (d *Driver) Done() <-chan struct{} {
	return d.done
}

// Stop makes Run return after draining queued input.
func (d *Driver) Stop() {
	d.queue.Close()
}

// Run drives the machine until it is solved, the context is cancelled, or
// Stop is called. It returns nil when solved or stopped.
func (d *Driver) Run(ctx context.Context) error {
	defer close(d.done)
	defer d.queue.Close()

	ticker := time.NewTicker(d.m.timing.TickInterval)
	defer ticker.Stop()

	d.logger.Debug("driver started", "tick_interval", d.m.timing.TickInterval)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("driver stopping: context cancelled")
			return ctx.Err()

		case <-d.queue.Wait():
			d.drain()
			if d.queue.Closed() && d.queue.Len() == 0 {
				d.logger.Info("driver stopping: stopped")
				return nil
			}

		case <-ticker.C:
			d.mu.Lock()
			d.m.Tick()
			d.mu.Unlock()
		}

		if d.solved() {
			d.logger.Debug("driver stopping: solved")
			return nil
		}
	}
}

// drain applies every queued input.
func (d *Driver) drain() {
	for {
		in, ok := d.queue.TryDequeue()
		if !ok {
			return
		}

		d.mu.Lock()
		d.logger.Debug("applying input", "input", in.name, "tick", d.m.Now())
		in.apply(d.m)
		d.mu.Unlock()
	}
}

func (d *Driver) solved() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.m.state == StateSolved
}
