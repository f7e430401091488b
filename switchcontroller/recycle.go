package switchcontroller

// checkRecycleTime reports whether an activation at time now is
// permitted for sw, per spec.md §3/§4.3's RecycleGate. The gate's state
// (recycle_clear_time, jitter_count) lives on the Switch port itself —
// spec.md §6 lists both as mutable switch-device fields, not as
// controller-owned state — so this is a stateless helper over the
// Switch interface rather than a struct with its own storage.
//
// Shape mirrors the teacher's catrate.Limiter: compare now against a
// stored "next allowed" instant, and only record a miss (jitter) on a
// rejected activation. catrate tracks a sliding window of event counts
// per category; this gate is a simpler single-cooldown-per-switch rule,
// matching the reference's recycle semantics exactly.
func checkRecycleTime(sw Switch, state int, now float64) bool {
	if now >= sw.RecycleClearTime() {
		return true
	}
	if state != 0 {
		sw.IncJitterCount()
	}
	return false
}

// armRecycle records that an activation was just accepted, blocking
// further activations until recycleSeconds later.
func armRecycle(sw Switch, now float64) {
	sw.SetRecycleClearTime(now + sw.RecycleSeconds())
}
