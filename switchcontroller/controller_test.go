package switchcontroller

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driskel/mpf/internal/clock"
)

func newTestController(t *testing.T) (*Controller, *clock.Sim) {
	t.Helper()
	sim := clock.NewSim()
	return New(sim), sim
}

func TestProcessSwitchUnknownSwitch(t *testing.T) {
	c, _ := newTestController(t)
	err := c.ProcessSwitch("nope", 1, true)
	var target *UnknownSwitchError
	assert.ErrorAs(t, err, &target)
}

func TestProcessSwitchImmediateHandlerFires(t *testing.T) {
	c, _ := newTestController(t)
	sw := newFakeSwitch("flipper_l")
	require.NoError(t, c.RegisterSwitch(sw))

	fired := false
	_, err := c.AddHandler("flipper_l", 1, 0, func() { fired = true })
	require.NoError(t, err)

	require.NoError(t, c.ProcessSwitch("flipper_l", 1, true))
	assert.True(t, fired)

	active, err := c.IsActive("flipper_l", 0)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestDuplicateStateSuppressedWithoutRecycle(t *testing.T) {
	c, _ := newTestController(t)
	sw := newFakeSwitch("flipper_l")
	require.NoError(t, c.RegisterSwitch(sw))

	calls := 0
	_, err := c.AddHandler("flipper_l", 1, 0, func() { calls++ })
	require.NoError(t, err)

	require.NoError(t, c.ProcessSwitch("flipper_l", 1, true))
	require.NoError(t, c.ProcessSwitch("flipper_l", 1, true))
	assert.Equal(t, 1, calls)
}

func TestInvertedSwitchPhysicalReading(t *testing.T) {
	c, _ := newTestController(t)
	sw := newFakeSwitch("trough1")
	sw.inverted = true
	require.NoError(t, c.RegisterSwitch(sw))

	// Physical level 0 on an inverted (NC) switch means logically active.
	require.NoError(t, c.ProcessSwitch("trough1", 0, false))
	active, err := c.IsActive("trough1", 0)
	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, 0, sw.HWState())
}

func TestRecycleGateDefersActivationAndRetries(t *testing.T) {
	c, sim := newTestController(t)
	sw := newFakeSwitch("flipper_l")
	sw.recycleSeconds = 1.0
	require.NoError(t, c.RegisterSwitch(sw))

	calls := 0
	_, err := c.AddHandler("flipper_l", 1, 0, func() { calls++ })
	require.NoError(t, err)

	require.NoError(t, c.ProcessSwitch("flipper_l", 1, true))
	assert.Equal(t, 1, calls)

	require.NoError(t, c.ProcessSwitch("flipper_l", 0, true))
	require.NoError(t, c.ProcessSwitch("flipper_l", 1, true))
	assert.Equal(t, 1, calls, "recycle gate should defer the second activation")
	assert.Equal(t, 1, sw.jitterCount)

	sim.Advance(1.0)
	assert.Equal(t, 2, calls, "deferred retry should fire once recycle clears")
}

func TestRecycleRetryAbortsIfHardwareMovedOnAgain(t *testing.T) {
	c, sim := newTestController(t)
	sw := newFakeSwitch("flipper_l")
	sw.recycleSeconds = 1.0
	require.NoError(t, c.RegisterSwitch(sw))

	calls := 0
	_, err := c.AddHandler("flipper_l", 1, 0, func() { calls++ })
	require.NoError(t, err)

	require.NoError(t, c.ProcessSwitch("flipper_l", 1, true))
	require.NoError(t, c.ProcessSwitch("flipper_l", 0, true))
	require.NoError(t, c.ProcessSwitch("flipper_l", 1, true))
	assert.Equal(t, 1, calls)

	// Hardware level changed again before the retry fires: the retry
	// should notice hw_state no longer matches and skip.
	require.NoError(t, c.ProcessSwitch("flipper_l", 0, true))

	sim.Advance(1.0)
	assert.Equal(t, 1, calls, "stale retry must not re-fire once hw_state has moved on")
}

func TestDwellHandlerFiresAfterSustainedState(t *testing.T) {
	c, sim := newTestController(t)
	sw := newFakeSwitch("flipper_l")
	require.NoError(t, c.RegisterSwitch(sw))

	fired := false
	_, err := c.AddHandler("flipper_l", 1, 500, func() { fired = true })
	require.NoError(t, err)

	require.NoError(t, c.ProcessSwitch("flipper_l", 1, true))
	sim.Advance(0.4)
	assert.False(t, fired)
	sim.Advance(0.2)
	assert.True(t, fired)
}

func TestDwellHandlerCanceledByOppositeTransition(t *testing.T) {
	c, sim := newTestController(t)
	sw := newFakeSwitch("flipper_l")
	require.NoError(t, c.RegisterSwitch(sw))

	fired := false
	_, err := c.AddHandler("flipper_l", 1, 500, func() { fired = true })
	require.NoError(t, err)

	require.NoError(t, c.ProcessSwitch("flipper_l", 1, true))
	sim.Advance(0.2)
	require.NoError(t, c.ProcessSwitch("flipper_l", 0, true))
	sim.Advance(1.0)
	assert.False(t, fired, "releasing before the dwell elapses must cancel the pending handler")
}

func TestAddHandlerLateJoinCatchesUpPartialDwell(t *testing.T) {
	c, sim := newTestController(t)
	sw := newFakeSwitch("flipper_l")
	require.NoError(t, c.RegisterSwitch(sw))

	require.NoError(t, c.ProcessSwitch("flipper_l", 1, true))
	sim.Advance(0.3)

	fired := false
	_, err := c.AddHandler("flipper_l", 1, 500, func() { fired = true })
	require.NoError(t, err)

	sim.Advance(0.19)
	assert.False(t, fired)
	sim.Advance(0.02)
	assert.True(t, fired, "late-joining handler should fire after the remaining dwell window")
}

func TestAddHandlerNoLateJoinIfDwellAlreadyElapsed(t *testing.T) {
	c, sim := newTestController(t)
	sw := newFakeSwitch("flipper_l")
	require.NoError(t, c.RegisterSwitch(sw))

	require.NoError(t, c.ProcessSwitch("flipper_l", 1, true))
	sim.Advance(1.0)

	fired := false
	_, err := c.AddHandler("flipper_l", 1, 500, func() { fired = true })
	require.NoError(t, err)

	sim.Advance(0.001)
	assert.False(t, fired, "dwell already satisfied before registration should not retroactively fire")
}

func TestRemoveHandlerScrubsPendingTimedCallback(t *testing.T) {
	c, sim := newTestController(t)
	sw := newFakeSwitch("flipper_l")
	require.NoError(t, c.RegisterSwitch(sw))

	fired := false
	key, err := c.AddHandler("flipper_l", 1, 500, func() { fired = true })
	require.NoError(t, err)

	require.NoError(t, c.ProcessSwitch("flipper_l", 1, true))
	c.RemoveHandlerByKey(key)

	sim.Advance(1.0)
	assert.False(t, fired)
	assert.Equal(t, 0, c.Depth())
}

func TestMonitorsReceiveEveryAcceptedTransition(t *testing.T) {
	c, _ := newTestController(t)
	sw := newFakeSwitch("flipper_l")
	sw.label = "Left Flipper"
	require.NoError(t, c.RegisterSwitch(sw))

	var seen []MonitoredChange
	c.AddMonitor(func(ch MonitoredChange) { seen = append(seen, ch) })

	require.NoError(t, c.ProcessSwitch("flipper_l", 1, true))
	require.Len(t, seen, 1)
	assert.Equal(t, "flipper_l", seen[0].Name)
	assert.Equal(t, "Left Flipper", seen[0].Label)
	assert.Equal(t, 1, seen[0].NewState)
}

func TestProcessSwitchByNumberUnmatchedHardwareNotifiesMonitors(t *testing.T) {
	c, _ := newTestController(t)
	platform := newFakePlatform("p1")

	var seen []MonitoredChange
	c.AddMonitor(func(ch MonitoredChange) { seen = append(seen, ch) })

	c.ProcessSwitchByNumber("99", 1, platform, true)
	require.Len(t, seen, 1)
	assert.Equal(t, "99", seen[0].Name)
	assert.Equal(t, "p1", seen[0].Platform)
}

func TestProcessSwitchByNumberMatchesConfiguredSwitch(t *testing.T) {
	c, _ := newTestController(t)
	platform := newFakePlatform("p1")
	sw := newFakeSwitch("flipper_l")
	sw.platform = platform
	sw.hwNumber = "7"
	require.NoError(t, c.RegisterSwitch(sw))

	fired := false
	_, err := c.AddHandler("flipper_l", 1, 0, func() { fired = true })
	require.NoError(t, err)

	c.ProcessSwitchByNumber("7", 1, platform, true)
	assert.True(t, fired)
}

func TestWaitForAnyResolvesImmediatelyWhenAlreadyActive(t *testing.T) {
	c, _ := newTestController(t)
	sw := newFakeSwitch("flipper_l")
	require.NoError(t, c.RegisterSwitch(sw))
	require.NoError(t, c.ProcessSwitch("flipper_l", 1, true))

	f, err := c.WaitForAny([]string{"flipper_l"}, 1, 0, false)
	require.NoError(t, err)

	r, ok := f.Result()
	require.True(t, ok)
	assert.Equal(t, "flipper_l", r.SwitchName)
}

func TestWaitForAnyResolvesOnFirstQualifyingTransitionAndCleansUp(t *testing.T) {
	c, _ := newTestController(t)
	swL := newFakeSwitch("flipper_l")
	swR := newFakeSwitch("flipper_r")
	require.NoError(t, c.RegisterSwitch(swL))
	require.NoError(t, c.RegisterSwitch(swR))

	f, err := c.WaitForAny([]string{"flipper_l", "flipper_r"}, 1, 0, true)
	require.NoError(t, err)

	require.NoError(t, c.ProcessSwitch("flipper_r", 1, true))

	select {
	case <-f.Done():
	default:
		t.Fatal("expected future to resolve")
	}
	r, ok := f.Result()
	require.True(t, ok)
	assert.Equal(t, "flipper_r", r.SwitchName)

	// Both transient handlers should have been removed.
	assert.Empty(t, c.handlers.snapshot("flipper_l", 1))
	assert.Empty(t, c.handlers.snapshot("flipper_r", 1))
}

func TestRefreshFromHardwareAppliesInversion(t *testing.T) {
	c, _ := newTestController(t)
	platform := newFakePlatform("p1")
	platform.states["3"] = 0

	sw := newFakeSwitch("trough1")
	sw.platform = platform
	sw.hwNumber = "3"
	sw.inverted = true
	require.NoError(t, c.RegisterSwitch(sw))

	require.NoError(t, c.RefreshFromHardware(context.Background()))
	assert.Equal(t, 1, sw.State())
}

func TestRefreshFromHardwareMissingNumberErrors(t *testing.T) {
	c, _ := newTestController(t)
	platform := newFakePlatform("p1")

	sw := newFakeSwitch("trough1")
	sw.platform = platform
	sw.hwNumber = "3"
	require.NoError(t, c.RegisterSwitch(sw))

	err := c.RefreshFromHardware(context.Background())
	var target *MissingHardwareNumberError
	assert.ErrorAs(t, err, &target)
}

func TestVerifyAgainstHardwareReportsMismatch(t *testing.T) {
	c, _ := newTestController(t)
	platform := newFakePlatform("p1")
	platform.states["3"] = 1

	sw := newFakeSwitch("trough1")
	sw.platform = platform
	sw.hwNumber = "3"
	sw.state = 0
	require.NoError(t, c.RegisterSwitch(sw))

	ok, err := c.VerifyAgainstHardware(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyAgainstHardwareCatchesDispatchWithNoHardwareChange(t *testing.T) {
	c, _ := newTestController(t)
	platform := newFakePlatform("p1")
	platform.states["3"] = 0

	sw := newFakeSwitch("trough1")
	sw.platform = platform
	sw.hwNumber = "3"
	sw.state = 0
	require.NoError(t, c.RegisterSwitch(sw))

	require.NoError(t, c.ProcessSwitch("trough1", 1, true))
	assert.Equal(t, 1, sw.State(), "dispatch must keep the switch port's State() in sync with the controller's view")

	ok, err := c.VerifyAgainstHardware(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "hardware still reads 0 while the controller processed a 1, so this must be reported as a mismatch")
}

type fakeEventBus struct {
	handlers map[string]func()
	pumped   int
}

func newFakeEventBus() *fakeEventBus {
	return &fakeEventBus{handlers: make(map[string]func())}
}

func (b *fakeEventBus) AddHandler(name string, fn func(), _ int) { b.handlers[name] = fn }
func (b *fakeEventBus) ProcessEventQueue()                       { b.pumped++ }

func TestAttachRegistersLifecycleHooksAndPumpsOnDrain(t *testing.T) {
	c, sim := newTestController(t)
	platform := newFakePlatform("p1")
	platform.states["1"] = 0

	sw := newFakeSwitch("flipper_l")
	sw.platform = platform
	sw.hwNumber = "1"
	require.NoError(t, c.RegisterSwitch(sw))

	bus := newFakeEventBus()
	c.Attach(bus)

	init, ok := bus.handlers["init_phase_2"]
	require.True(t, ok)
	init()
	assert.Equal(t, 0, sw.State())

	reset, ok := bus.handlers["machine_reset_phase_3"]
	require.True(t, ok)
	reset()

	c.timed.insert(&TimedPending{SwitchName: "flipper_l", Deadline: 1.0, callback: func() {}})
	sim.Advance(1.0)
	assert.Equal(t, 1, bus.pumped)
}
