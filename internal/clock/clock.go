// Package clock provides the monotonic time source and one-shot timer
// scheduler that switchcontroller.Controller consumes as its Clock port.
//
// Two implementations are provided: Real, a wall-clock backed
// scheduler with a single coalesced wake timer (grounded on the teacher's
// eventloop.Loop timer heap and wake-coalescing design), and Sim, a
// manually-advanced clock for deterministic tests.
package clock

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// Real is a wall-clock backed implementation of switchcontroller.Clock.
//
// All scheduled callbacks are delivered on the goroutine that calls Run,
// never on the timer's own goroutine — this is what lets
// switchcontroller.Controller treat every Clock callback as happening on
// its single logical "tick" thread, per the spec's single-threaded
// cooperative concurrency model.
type Real struct {
	mu       sync.Mutex
	start    time.Time
	pending  timerHeap
	nextSeq  uint64
	recalc   chan struct{}
	timer    *time.Timer
	closed   bool
	closedCh chan struct{}
}

// NewReal creates a real-time clock anchored at the current instant.
func NewReal() *Real {
	c := &Real{
		start:    time.Now(),
		recalc:   make(chan struct{}, 1),
		closedCh: make(chan struct{}),
	}
	return c
}

// Now returns the number of fractional seconds since the clock was created.
func (c *Real) Now() float64 {
	return time.Since(c.start).Seconds()
}

// cancelHandle pairs a clock with one of its scheduled timers. It is not
// used by ScheduleOnce, which hands callers a plain cancel func instead.
type cancelHandle struct {
	clock *Real
	timer *pendingTimer
}

// ScheduleOnce schedules cb to run once, delaySeconds from now, on the Run
// goroutine. It returns a function that cancels the callback if it has not
// already fired.
func (c *Real) ScheduleOnce(delaySeconds float64, cb func()) func() {
	c.mu.Lock()
	c.nextSeq++
	t := &pendingTimer{
		deadline: c.Now() + delaySeconds,
		seq:      c.nextSeq,
		cb:       cb,
	}
	heap.Push(&c.pending, t)
	c.mu.Unlock()

	c.wake()

	return func() {
		c.mu.Lock()
		t.canceled = true
		c.mu.Unlock()
	}
}

func (c *Real) wake() {
	select {
	case c.recalc <- struct{}{}:
	default:
	}
}

// Run blocks, firing scheduled callbacks as their deadlines elapse, until
// ctx is canceled. It must be called from exactly one goroutine — that
// goroutine becomes the controller's tick thread.
func (c *Real) Run(ctx context.Context) error {
	defer close(c.closedCh)

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		c.mu.Lock()
		c.drainCanceled()
		var wait time.Duration
		if len(c.pending) == 0 {
			wait = time.Hour
		} else {
			wait = time.Duration((c.pending[0].deadline - c.Now()) * float64(time.Second))
			if wait < 0 {
				wait = 0
			}
		}
		c.mu.Unlock()

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			c.mu.Lock()
			c.closed = true
			c.mu.Unlock()
			return ctx.Err()

		case <-c.recalc:
			continue

		case <-timer.C:
			c.fireDue()
		}
	}
}

// drainCanceled removes canceled entries from the top of the heap so the
// earliest-deadline computation above doesn't wait on dead timers.
func (c *Real) drainCanceled() {
	for len(c.pending) > 0 && c.pending[0].canceled {
		heap.Pop(&c.pending)
	}
}

func (c *Real) fireDue() {
	now := c.Now()
	var due []*pendingTimer
	c.mu.Lock()
	for len(c.pending) > 0 && c.pending[0].deadline <= now {
		item := heap.Pop(&c.pending).(*pendingTimer)
		if !item.canceled {
			due = append(due, item)
		}
	}
	c.mu.Unlock()

	for _, item := range due {
		item.cb()
	}
}
