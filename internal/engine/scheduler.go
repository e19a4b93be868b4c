package engine

// Task is a unit of timed work stepped once per tick.
//
// Step receives the tick number and reports whether the task is finished.
// Tasks read the machine's current state on every step rather than trusting
// anything captured when they were scheduled.
type Task interface {
	Step(tick int64) (done bool)
}

// TaskFunc adapts a function to Task.
type TaskFunc func(tick int64) bool

// Step calls f.
func (f TaskFunc) Step(tick int64) bool {
	return f(tick)
}

// Scheduler runs tasks against a logical tick clock.
//
// Tasks step in the order they were scheduled. A task scheduled while a tick
// is in progress is not stepped until the following tick.
type Scheduler struct {
	clock *Clock
	tasks []Task
}

// NewScheduler creates an empty scheduler at tick 0.
func NewScheduler() *Scheduler {
	return &Scheduler{clock: NewClock()}
}

// Schedule appends t to the run list.
func (s *Scheduler) Schedule(t Task) {
	s.tasks = append(s.tasks, t)
}

// Tick advances the clock by one and steps every task that was scheduled
// before the tick began. It returns the new tick number.
func (s *Scheduler) Tick() int64 {
	now := s.clock.Next()

	running := s.tasks
	s.tasks = nil

	kept := running[:0]
	for _, t := range running {
		if !t.Step(now) {
			kept = append(kept, t)
		}
	}
	// Tasks scheduled during this tick land in s.tasks and run after the
	// survivors, preserving scheduling order.
	s.tasks = append(kept, s.tasks...)
	return now
}

// Now returns the current tick.
func (s *Scheduler) Now() int64 {
	return s.clock.Current()
}

// Pending returns the number of unfinished tasks.
func (s *Scheduler) Pending() int {
	return len(s.tasks)
}
