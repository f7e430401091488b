package switchcontroller

import "container/heap"

// TimedPending is one scheduled handler firing, watching for a switch to
// remain in a target state for a dwell period. Multiple pendings may
// share a deadline (spec.md §4.4); they are grouped into a bucket.
type TimedPending struct {
	SwitchName  string
	TargetState int
	DwellMS     int
	Deadline    float64

	callback func()
	// source identifies the registeredHandler that spawned this pending,
	// if any, so RemoveHandler/RemoveHandlerByKey can scrub a
	// now-unregistered handler's in-flight pendings by identity, the Go
	// equivalent of the reference's callback-equality scrub (spec.md
	// §4.2) since Go funcs aren't comparable.
	source *registeredHandler
}

// deadlineHeap is a min-heap of the distinct deadlines currently backed by
// a non-empty bucket in timedQueue.buckets. Grounded on the teacher's
// eventloop.timerHeap (container/heap, deadline-ordered), generalized
// here to hold bare float64 deadlines since the bucket contents live in
// timedQueue.buckets rather than in the heap itself.
type deadlineHeap []float64

func (h deadlineHeap) Len() int            { return len(h) }
func (h deadlineHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h deadlineHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *deadlineHeap) Push(x any)         { *h = append(*h, x.(float64)) }
func (h *deadlineHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// timedQueue is the time-bucketed set of pending handler firings from
// spec.md §4.4: a mapping from deadline to an ordered list of
// TimedPending, one coalesced wake timer, earliest-deadline lookup,
// removal by predicate, and wholesale cancellation.
type timedQueue struct {
	clock      Clock
	buckets    map[float64][]*TimedPending
	order      deadlineHeap
	cancelWake func()
	// onDrain is invoked once at the end of every processDue pass
	// (even an empty one triggered by a stale wake), after all due
	// buckets have fired. The controller uses this to pump the event
	// bus, per spec.md §4.4's "must be kicked here" requirement.
	onDrain func()
}

func newTimedQueue(clk Clock) *timedQueue {
	return &timedQueue{
		clock:   clk,
		buckets: make(map[float64][]*TimedPending),
	}
}

// insert adds p to its deadline's bucket and reschedules the wake timer
// if this changes the earliest deadline.
func (q *timedQueue) insert(p *TimedPending) {
	bucket, exists := q.buckets[p.Deadline]
	q.buckets[p.Deadline] = append(bucket, p)
	if !exists {
		heap.Push(&q.order, p.Deadline)
	}
	q.rescheduleWake()
}

// cancelMatching removes every pending for which pred returns true,
// across every bucket, and reports how many were removed. This realizes
// the specified "remove all matching" behavior (spec.md §9's resolution
// of the reference's best-effort cancel bug).
func (q *timedQueue) cancelMatching(pred func(*TimedPending) bool) int {
	removed := 0
	for deadline, bucket := range q.buckets {
		var kept []*TimedPending
		for _, p := range bucket {
			if pred(p) {
				removed++
				continue
			}
			kept = append(kept, p)
		}
		if len(kept) == 0 {
			delete(q.buckets, deadline)
		} else {
			q.buckets[deadline] = kept
		}
	}
	if removed > 0 {
		q.rescheduleWake()
	}
	return removed
}

// processDue fires every bucket whose deadline has elapsed. Each
// bucket's contents are snapshotted before iterating, and membership in
// the live bucket is rechecked before every invocation, so a callback
// that cancels a sibling pending (e.g. via RemoveHandler) prevents that
// sibling from firing, without disturbing iteration. Grounded on
// spec.md §9's snapshot-then-recheck mutation rule.
func (q *timedQueue) processDue(now float64) {
	q.cleanupStaleTop()
	for len(q.order) > 0 && q.order[0] <= now {
		deadline := heap.Pop(&q.order).(float64)
		bucket := q.buckets[deadline]
		snapshot := append([]*TimedPending(nil), bucket...)
		for _, p := range snapshot {
			if !containsPending(q.buckets[deadline], p) {
				continue
			}
			p.callback()
		}
		delete(q.buckets, deadline)
		q.cleanupStaleTop()
	}

	if q.onDrain != nil {
		q.onDrain()
	}

	q.rescheduleWake()
}

// cleanupStaleTop discards heap entries whose bucket was already emptied
// by cancelMatching, so the earliest-deadline computation never
// considers a dead entry.
func (q *timedQueue) cleanupStaleTop() {
	for len(q.order) > 0 {
		if _, ok := q.buckets[q.order[0]]; ok {
			return
		}
		heap.Pop(&q.order)
	}
}

// rescheduleWake cancels the previous wake timer (if any) and schedules
// a new one at the earliest surviving deadline. Only one wake timer is
// ever outstanding, per spec.md §9's timer-coalescing rule.
func (q *timedQueue) rescheduleWake() {
	if q.cancelWake != nil {
		q.cancelWake()
		q.cancelWake = nil
	}

	q.cleanupStaleTop()
	if len(q.order) == 0 {
		return
	}

	deadline := q.order[0]
	delay := deadline - q.clock.Now()
	if delay < 0 {
		delay = 0
	}
	q.cancelWake = q.clock.ScheduleOnce(delay, func() {
		q.processDue(q.clock.Now())
	})
}

// depth reports the number of pendings currently queued, for diagnostics
// and metrics.
func (q *timedQueue) depth() int {
	n := 0
	for _, bucket := range q.buckets {
		n += len(bucket)
	}
	return n
}

func containsPending(bucket []*TimedPending, target *TimedPending) bool {
	for _, p := range bucket {
		if p == target {
			return true
		}
	}
	return false
}
