package clock

import (
	"container/heap"
	"sync"
)

// Sim is a manually-advanced clock, used by switchcontroller's tests to
// drive dwell timers, recycle retries, and wait-for-any futures
// deterministically without sleeping real wall-clock time.
//
// Callbacks fire synchronously, in deadline order, from within Advance —
// there is no background goroutine, so Sim itself is the single logical
// thread the spec's concurrency model requires; callers must not invoke
// Sim's methods concurrently from multiple goroutines.
type Sim struct {
	mu      sync.Mutex
	now     float64
	pending timerHeap
	nextSeq uint64
}

// NewSim creates a simulated clock starting at t=0.
func NewSim() *Sim {
	return &Sim{}
}

// Now returns the simulated current time.
func (c *Sim) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// ScheduleOnce registers cb to fire the next time Advance crosses
// delaySeconds from now.
func (c *Sim) ScheduleOnce(delaySeconds float64, cb func()) func() {
	c.mu.Lock()
	c.nextSeq++
	t := &pendingTimer{
		deadline: c.now + delaySeconds,
		seq:      c.nextSeq,
		cb:       cb,
	}
	heap.Push(&c.pending, t)
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		t.canceled = true
		c.mu.Unlock()
	}
}

// Advance moves the simulated clock forward by seconds, firing every
// callback whose deadline is now due, in deadline order. Callbacks
// scheduled by other callbacks during the same Advance call are also
// fired if their deadline falls within the same advance, matching how a
// real clock would behave if it happened to tick past several deadlines
// at once.
func (c *Sim) Advance(seconds float64) {
	c.mu.Lock()
	target := c.now + seconds
	c.mu.Unlock()

	for {
		c.mu.Lock()
		if len(c.pending) == 0 || c.pending[0].deadline > target {
			c.now = target
			c.mu.Unlock()
			return
		}
		item := heap.Pop(&c.pending).(*pendingTimer)
		c.now = item.deadline
		canceled := item.canceled
		c.mu.Unlock()

		if !canceled {
			item.cb()
		}
	}
}

// Set jumps the simulated clock directly to t, without firing any
// callbacks. Useful for establishing a non-zero starting point in tests.
func (c *Sim) Set(t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
