package clock

import "container/heap"

// pendingTimer is one scheduled callback, ordered by deadline.
//
// Modeled on the teacher's eventloop.timerHeap (container/heap min-heap
// of {when, task}), generalized from time.Time deadlines to the
// fractional-seconds deadlines this package works in.
type pendingTimer struct {
	deadline float64
	seq      uint64 // tie-breaker, preserves scheduling order for equal deadlines
	cb       func()
	canceled bool
}

type timerHeap []*pendingTimer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline != h[j].deadline {
		return h[i].deadline < h[j].deadline
	}
	return h[i].seq < h[j].seq
}

func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) {
	*h = append(*h, x.(*pendingTimer))
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

var _ heap.Interface = (*timerHeap)(nil)
