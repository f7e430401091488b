// Package platform provides an in-memory simulated hardware platform
// implementing switchcontroller's Platform and Switch ports. It backs the
// mpfswitchd CLI's demo/simulate mode and gives integration tests a
// concrete, mutable stand-in for real switch matrix hardware.
package platform

import (
	"context"
	"sync"

	"github.com/driskel/mpf/switchcontroller"
)

// Platform is a simulated hardware I/O board: a named set of raw switch
// levels keyed by hardware number, mutated by SetLevel to simulate a
// physical transition and read back wholesale via ReadAllStates exactly
// as a real platform driver would on a poll or resync.
type Platform struct {
	name string

	mu     sync.Mutex
	levels map[string]int
}

// New creates an empty simulated platform.
func New(name string) *Platform {
	return &Platform{name: name, levels: make(map[string]int)}
}

func (p *Platform) Name() string { return p.name }

// ReadAllStates returns a snapshot of every hardware number's current
// level.
func (p *Platform) ReadAllStates(_ context.Context) (map[string]int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]int, len(p.levels))
	for k, v := range p.levels {
		out[k] = v
	}
	return out, nil
}

// SetLevel simulates a hardware transition: hwNumber now reads level.
// This does not by itself notify the controller — callers drive
// switchcontroller.Controller.ProcessSwitchByNumber (or a poll loop) to
// propagate the change, matching how a real platform driver's interrupt
// or poll handler would.
func (p *Platform) SetLevel(hwNumber string, level int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.levels[hwNumber] = level
}

// Level returns hwNumber's current simulated level, or 0 if never set.
func (p *Platform) Level(hwNumber string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.levels[hwNumber]
}

// Switch is a simulated switch device, implementing switchcontroller's
// Switch port. Unlike Controller, it is safe for concurrent field access
// since platform drivers may run on a different goroutine than the
// controller's tick thread in a real deployment.
type Switch struct {
	name           string
	label          string
	hwNumber       string
	platform       *Platform
	inverted       bool
	recycleSeconds float64

	mu               sync.Mutex
	state            int
	hwState          int
	recycleClearTime float64
	jitterCount      int
}

// NewSwitch creates a simulated switch device wired to platform at
// hwNumber.
func NewSwitch(name, label, hwNumber string, platform *Platform, inverted bool, recycleSeconds float64) *Switch {
	if label == "" {
		label = name
	}
	return &Switch{
		name:           name,
		label:          label,
		hwNumber:       hwNumber,
		platform:       platform,
		inverted:       inverted,
		recycleSeconds: recycleSeconds,
	}
}

func (s *Switch) Name() string            { return s.name }
func (s *Switch) Label() string           { return s.label }
func (s *Switch) HardwareNumber() string  { return s.hwNumber }
func (s *Switch) Inverted() bool          { return s.inverted }
func (s *Switch) RecycleSeconds() float64 { return s.recycleSeconds }

// Platform returns the switch's platform.
func (s *Switch) Platform() switchcontroller.Platform {
	return s.platform
}

func (s *Switch) State() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Switch) SetState(state int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *Switch) HWState() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hwState
}

func (s *Switch) SetHWState(state int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hwState = state
}

func (s *Switch) RecycleClearTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recycleClearTime
}

func (s *Switch) SetRecycleClearTime(t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recycleClearTime = t
}

func (s *Switch) JitterCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jitterCount
}

func (s *Switch) IncJitterCount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jitterCount++
}
