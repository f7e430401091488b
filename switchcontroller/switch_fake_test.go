package switchcontroller

import "context"

// fakeSwitch is a minimal in-memory Switch used across this package's
// tests. It is deliberately simple: no concurrency guards, since the
// controller's single-goroutine contract means tests never touch it from
// more than one goroutine at a time.
type fakeSwitch struct {
	name           string
	label          string
	hwNumber       string
	platform       Platform
	inverted       bool
	recycleSeconds float64

	state   int
	hwState int

	recycleClearTime float64
	jitterCount      int
}

func newFakeSwitch(name string) *fakeSwitch {
	return &fakeSwitch{name: name, label: name}
}

func (s *fakeSwitch) Name() string                  { return s.name }
func (s *fakeSwitch) Label() string                 { return s.label }
func (s *fakeSwitch) HardwareNumber() string        { return s.hwNumber }
func (s *fakeSwitch) Platform() Platform            { return s.platform }
func (s *fakeSwitch) Inverted() bool                { return s.inverted }
func (s *fakeSwitch) RecycleSeconds() float64       { return s.recycleSeconds }
func (s *fakeSwitch) State() int                    { return s.state }
func (s *fakeSwitch) SetState(state int)            { s.state = state }
func (s *fakeSwitch) HWState() int                  { return s.hwState }
func (s *fakeSwitch) SetHWState(state int)          { s.hwState = state }
func (s *fakeSwitch) RecycleClearTime() float64     { return s.recycleClearTime }
func (s *fakeSwitch) SetRecycleClearTime(t float64) { s.recycleClearTime = t }
func (s *fakeSwitch) JitterCount() int              { return s.jitterCount }
func (s *fakeSwitch) IncJitterCount()               { s.jitterCount++ }

// fakePlatform backs ReadAllStates with a plain map the test can mutate
// between calls to simulate hardware changing underneath the controller.
type fakePlatform struct {
	name    string
	states  map[string]int
	readErr error
}

func newFakePlatform(name string) *fakePlatform {
	return &fakePlatform{name: name, states: make(map[string]int)}
}

func (p *fakePlatform) Name() string { return p.name }

func (p *fakePlatform) ReadAllStates(_ context.Context) (map[string]int, error) {
	if p.readErr != nil {
		return nil, p.readErr
	}
	out := make(map[string]int, len(p.states))
	for k, v := range p.states {
		out[k] = v
	}
	return out, nil
}
