package switchcontroller

import "strconv"

// registeredHandler is one entry in a (switch, target state) bucket,
// spec.md §3's RegisteredHandler.
type registeredHandler struct {
	dwellMS  int
	callback func()
	seq      uint64
}

// HandlerKey identifies a registered handler for later removal. It is
// returned by AddHandler. Go funcs aren't comparable, so unlike the
// reference's (switch_name, callback, state, ms) tuple, HandlerKey
// carries an internal sequence number assigned at registration time —
// see SPEC_FULL.md §4.2.
type HandlerKey struct {
	switchName string
	state      int
	dwellMS    int
	seq        uint64
}

// handlerRegistry is the mapping from (switch_name, target_state) to an
// ordered list of handler records, spec.md §4.2. Key schema
// "<name>-<0|1>", normalized to the switch's folded name.
type handlerRegistry struct {
	buckets map[string][]*registeredHandler
	nextSeq uint64
}

func newHandlerRegistry() *handlerRegistry {
	return &handlerRegistry{buckets: make(map[string][]*registeredHandler)}
}

func bucketKey(name string, state int) string {
	return foldName(name) + "-" + strconv.Itoa(state)
}

// registerSwitch seeds both (state 0 and state 1) buckets as empty, so
// lookups against a configured-but-handlerless switch return an empty
// slice rather than a nil map miss being ambiguous with "not configured".
func (r *handlerRegistry) registerSwitch(name string) {
	for _, state := range [2]int{0, 1} {
		key := bucketKey(name, state)
		if _, ok := r.buckets[key]; !ok {
			r.buckets[key] = []*registeredHandler{}
		}
	}
}

// add appends a new handler to the (name, state) bucket and returns its
// key.
func (r *handlerRegistry) add(name string, state, dwellMS int, cb func()) HandlerKey {
	r.nextSeq++
	h := &registeredHandler{dwellMS: dwellMS, callback: cb, seq: r.nextSeq}
	key := bucketKey(name, state)
	r.buckets[key] = append(r.buckets[key], h)
	return HandlerKey{switchName: foldName(name), state: state, dwellMS: dwellMS, seq: h.seq}
}

// removeByKey removes the single handler identified by k, if present, and
// returns the removed record so the caller can scrub any timed pendings it
// spawned.
func (r *handlerRegistry) removeByKey(k HandlerKey) (*registeredHandler, bool) {
	key := k.switchName + "-" + strconv.Itoa(k.state)
	bucket := r.buckets[key]
	for i, h := range bucket {
		if h.seq == k.seq {
			r.buckets[key] = append(bucket[:i:i], bucket[i+1:]...)
			return h, true
		}
	}
	return nil, false
}

// removeFirst removes the first handler in the (name, state) bucket
// whose dwell matches, mirroring the reference's remove_switch_handler
// (which also compares callback identity — impossible for Go funcs, so
// this matches on the caller-supplied fields only; see SPEC_FULL.md
// §4.2).
func (r *handlerRegistry) removeFirst(name string, state, dwellMS int) (*registeredHandler, bool) {
	key := bucketKey(name, state)
	bucket := r.buckets[key]
	for i, h := range bucket {
		if h.dwellMS == dwellMS {
			r.buckets[key] = append(bucket[:i:i], bucket[i+1:]...)
			return h, true
		}
	}
	return nil, false
}

// snapshot returns a shallow copy of the (name, state) bucket, suitable
// for iterating while tolerating concurrent mutation of the live bucket.
func (r *handlerRegistry) snapshot(name string, state int) []*registeredHandler {
	bucket := r.buckets[bucketKey(name, state)]
	out := make([]*registeredHandler, len(bucket))
	copy(out, bucket)
	return out
}

// contains reports whether h is still present in the live (name, state)
// bucket, by pointer identity.
func (r *handlerRegistry) contains(name string, state int, h *registeredHandler) bool {
	for _, e := range r.buckets[bucketKey(name, state)] {
		if e == h {
			return true
		}
	}
	return false
}
