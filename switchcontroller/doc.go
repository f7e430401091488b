// Package switchcontroller implements the authoritative switch-state
// dispatcher for a pinball-style hardware control system: debouncing raw
// switch transitions, applying NC/NO inversion, gating rapid re-activation
// through a per-switch recycle window, and fanning accepted transitions
// out to registered handlers (immediate or dwell-qualified) and monitors.
//
// A Controller is built around a single logical goroutine. Every method
// that mutates controller state — ProcessSwitch, ProcessSwitchByNumber,
// AddHandler, RemoveHandler, and the Clock callbacks a Controller
// schedules internally — is expected to run on that one goroutine. The
// package does no internal locking; see internal/clock for how the real
// and simulated Clock implementations uphold the single-goroutine-
// delivery guarantee this relies on.
package switchcontroller
