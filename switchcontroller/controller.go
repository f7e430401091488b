package switchcontroller

import (
	"context"
	"fmt"
	"strconv"
)

// HandlerInfo is delivered to callbacks registered via AddHandlerWithInfo,
// carrying the context the reference passes through return_info plus
// extra_kwargs. Go closures already capture whatever lexical context a
// caller needs, so extra_kwargs itself isn't ported.
type HandlerInfo struct {
	SwitchName string
	State      int
	DwellMS    int
}

// Controller is the authoritative switch-state dispatcher: it owns the
// debounced (state, last_change) record for every registered switch,
// dispatches transitions to registered handlers (immediate or
// dwell-qualified), maintains the timed-pending queue, and fans accepted
// transitions out to monitors. One Controller is meant to run entirely on
// a single logical goroutine; see the package doc.
type Controller struct {
	clock    Clock
	switches map[string]Switch

	state    *stateStore
	handlers *handlerRegistry
	timed    *timedQueue
	monitors *monitorList

	bus    EventBus
	logger Logger
	stats  Stats
}

// New builds a Controller driven by clk. Attach wires it to an event bus;
// without Attach the controller still dispatches switch transitions, it
// just never pumps the bus after a timed-drain pass.
func New(clk Clock, opts ...Option) *Controller {
	c := &Controller{
		clock:    clk,
		switches: make(map[string]Switch),
		state:    newStateStore(),
		handlers: newHandlerRegistry(),
		monitors: newMonitorList(),
		logger:   noopLogger{},
		stats:    noopStats{},
	}
	c.timed = newTimedQueue(clk)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RegisterSwitch adds sw to the controller, seeding its handler buckets
// and its state-store record at (state 0, the reset sentinel), matching
// the reference's register_switch. Returns an error if a switch with the
// same folded name is already registered.
func (c *Controller) RegisterSwitch(sw Switch) error {
	key := foldName(sw.Name())
	if _, exists := c.switches[key]; exists {
		return fmt.Errorf("switchcontroller: switch %q already registered", sw.Name())
	}
	c.switches[key] = sw
	c.handlers.registerSwitch(sw.Name())
	c.state.setState(sw.Name(), 0, true, c.clock.Now())
	return nil
}

// Attach wires the controller's lifecycle hooks into bus and makes bus
// the target the timed-pending queue pumps after every drain pass. The
// hook names and priority match the reference's init_phase_2 (priority
// 1000, so the switch controller initializes before anything that reads
// switch state) and machine_reset_phase_3 (diagnostic dump of active
// switches).
func (c *Controller) Attach(bus EventBus) {
	c.bus = bus
	c.timed.onDrain = bus.ProcessEventQueue

	bus.AddHandler("init_phase_2", func() {
		if err := c.RefreshFromHardware(context.Background()); err != nil {
			c.logger.Warnf("switchcontroller: initial hardware read failed: %v", err)
			return
		}
		for key, sw := range c.switches {
			name, _ := c.state.canonicalName(key)
			c.state.setState(name, sw.State(), true, c.clock.Now())
		}
	}, 1000)

	bus.AddHandler("machine_reset_phase_3", func() {
		c.logActiveSwitches()
	}, 0)
}

func (c *Controller) logActiveSwitches() {
	for key, rec := range c.state.records {
		if rec.state == 0 {
			continue
		}
		name, _ := c.state.canonicalName(key)
		c.logger.Infof("switchcontroller: active switch: %s", name)
	}
}

// ProcessSwitch is the entry point for a logical-layer transition report:
// rawState is interpreted (and, for inverted switches, corrected) per
// sw.Inverted() and logical, exactly as dispatch describes.
func (c *Controller) ProcessSwitch(name string, rawState int, logical bool) error {
	sw, ok := c.switches[foldName(name)]
	if !ok {
		return &UnknownSwitchError{Name: name}
	}
	c.dispatch(sw, rawState, logical)
	return nil
}

// ProcessSwitchByNumber is the entry point for a raw hardware-layer
// report: hwNumber/platform are matched against registered switches
// rather than a name. An unmatched (hwNumber, platform) pair is not an
// error — it's forwarded to monitors as a synthetic change, matching the
// reference's handling of hardware the machine config never named.
func (c *Controller) ProcessSwitchByNumber(hwNumber string, rawState int, platform Platform, logical bool) {
	for _, sw := range c.switches {
		if sw.Platform() == platform && sw.HardwareNumber() == hwNumber {
			c.dispatch(sw, rawState, logical)
			return
		}
	}

	// Forwarded unchanged, matching the reference, which passes the raw
	// state straight through for hardware the machine config never named
	// rather than normalizing it the way a matched switch's state is.
	state := rawState
	pname := platformName(platform)
	c.stats.ObserveUnknownReport()
	c.logger.Debugf("switchcontroller: unknown switch number %s on platform %s, state=%d", hwNumber, pname, state)
	c.monitors.notifyAll(MonitoredChange{
		Name:           hwNumber,
		Label:          pname + "-" + hwNumber,
		Platform:       pname,
		HardwareNumber: hwNumber,
		NewState:       state,
	})
}

// dispatch is the shared pipeline both entry points funnel through:
// coerce/invert, recycle-gate, duplicate-state suppression, state commit,
// handler dispatch, timed-handler cancellation, and monitor fan-out.
// Grounded on the reference's process_switch_obj.
func (c *Controller) dispatch(sw Switch, rawState int, logical bool) {
	name := sw.Name()
	state := normalizeBit(rawState)
	hwState := state
	if sw.Inverted() {
		if logical {
			hwState ^= 1
		} else {
			state ^= 1
		}
	}
	sw.SetHWState(hwState)

	now := c.clock.Now()

	if state == 1 && !checkRecycleTime(sw, state, now) {
		c.stats.ObserveJitter()
		// The reference re-enters process_switch with the local
		// (already-inverted) state variable, which double-inverts on
		// an invert+physical retry. Re-entering with the *original*
		// (rawState, logical) pair recomputes correctly regardless of
		// invert/logical combination, so that's what's replayed here.
		capturedHW := hwState
		delay := sw.RecycleClearTime() - now
		c.clock.ScheduleOnce(delay, func() {
			if sw.HWState() == capturedHW {
				c.dispatch(sw, rawState, logical)
			}
		})
		return
	}

	if state == 1 {
		armRecycle(sw, now)
	}

	if rec, ok := c.state.get(name); ok && rec.state == state {
		if sw.RecycleSeconds() == 0 {
			c.logger.Warnf("switchcontroller: duplicate %d state report for switch %q, possible line noise", state, name)
		}
		return
	}

	sw.SetState(state)
	c.state.setState(name, state, false, now)
	c.stats.ObserveTransition(state)
	c.callHandlers(name, state, now)
	c.cancelOppositeTimedHandlers(name, state)

	canonical, _ := c.state.canonicalName(name)
	c.monitors.notifyAll(MonitoredChange{
		Name:           canonical,
		Label:          sw.Label(),
		Platform:       platformName(sw.Platform()),
		HardwareNumber: sw.HardwareNumber(),
		NewState:       state,
	})
}

// callHandlers invokes every immediate (dwell_ms == 0) handler registered
// for (name, state) and enqueues every dwell-qualified one onto the timed
// queue.
func (c *Controller) callHandlers(name string, state int, now float64) {
	for _, h := range c.handlers.snapshot(name, state) {
		if !c.handlers.contains(name, state, h) {
			continue
		}
		if h.dwellMS == 0 {
			h.callback()
			continue
		}
		c.timed.insert(&TimedPending{
			SwitchName:  name,
			TargetState: state,
			DwellMS:     h.dwellMS,
			Deadline:    now + float64(h.dwellMS)/1000.0,
			callback:    h.callback,
			source:      h,
		})
	}
}

// cancelOppositeTimedHandlers removes every still-pending timed handler
// that was waiting for the state the switch just left, since it can never
// now be satisfied by a dwell from that activation.
func (c *Controller) cancelOppositeTimedHandlers(name string, enteredState int) {
	opposite := enteredState ^ 1
	c.timed.cancelMatching(func(p *TimedPending) bool {
		return foldName(p.SwitchName) == foldName(name) && p.TargetState == opposite
	})
}

// AddHandler registers callback to fire every time name reaches state and
// remains there for dwellMS milliseconds (0 meaning immediate). If the
// switch is already in state when this is called and has been for less
// than dwellMS, a one-shot timed pending is enqueued to catch the handler
// up for the remainder of the dwell window, per spec.md §4.2's late-join
// rule.
func (c *Controller) AddHandler(switchName string, state, dwellMS int, callback func()) (HandlerKey, error) {
	return c.addHandlerCommon(switchName, state, dwellMS, callback)
}

// AddHandlerWithInfo is AddHandler for callbacks that want to know which
// switch/state/dwell triggered them, mirroring the reference's
// return_info option.
func (c *Controller) AddHandlerWithInfo(switchName string, state, dwellMS int, callback func(HandlerInfo)) (HandlerKey, error) {
	info := HandlerInfo{SwitchName: switchName, State: state, DwellMS: dwellMS}
	return c.addHandlerCommon(switchName, state, dwellMS, func() { callback(info) })
}

func (c *Controller) addHandlerCommon(switchName string, state, dwellMS int, cb func()) (HandlerKey, error) {
	if _, ok := c.switches[foldName(switchName)]; !ok {
		return HandlerKey{}, &UnknownSwitchError{Name: switchName}
	}

	hk := c.handlers.add(switchName, state, dwellMS, cb)

	if dwellMS > 0 {
		if rec, ok := c.state.get(switchName); ok && rec.state == state {
			now := c.clock.Now()
			elapsed := msSinceChange(rec, now)
			if elapsed < int64(dwellMS) {
				remaining := float64(int64(dwellMS)-elapsed) / 1000.0
				h, _ := c.handlerByKey(hk)
				c.timed.insert(&TimedPending{
					SwitchName:  switchName,
					TargetState: state,
					DwellMS:     dwellMS,
					Deadline:    now + remaining,
					callback:    cb,
					source:      h,
				})
			}
		}
	}
	return hk, nil
}

func (c *Controller) handlerByKey(k HandlerKey) (*registeredHandler, bool) {
	for _, h := range c.handlers.buckets[k.switchName+"-"+strconv.Itoa(k.state)] {
		if h.seq == k.seq {
			return h, true
		}
	}
	return nil, false
}

// RemoveHandlerByKey removes the handler identified by k and scrubs any
// timed pending it had already spawned.
func (c *Controller) RemoveHandlerByKey(k HandlerKey) {
	h, ok := c.handlers.removeByKey(k)
	if !ok {
		return
	}
	c.timed.cancelMatching(func(p *TimedPending) bool { return p.source == h })
}

// RemoveHandler removes the first handler registered for (switchName,
// state) whose dwell matches dwellMS, mirroring the reference's
// remove_switch_handler (minus the callback-identity comparison — see
// handlerRegistry.removeFirst).
func (c *Controller) RemoveHandler(switchName string, state, dwellMS int) {
	h, ok := c.handlers.removeFirst(switchName, state, dwellMS)
	if !ok {
		return
	}
	c.timed.cancelMatching(func(p *TimedPending) bool { return p.source == h })
}

// IsState reports whether name currently reads state and has done so for
// at least dwellMS milliseconds.
func (c *Controller) IsState(name string, state, dwellMS int) (bool, error) {
	rec, ok := c.state.get(name)
	if !ok {
		return false, &UnknownSwitchError{Name: name}
	}
	if rec.state != state {
		return false, nil
	}
	return msSinceChange(rec, c.clock.Now()) >= int64(dwellMS), nil
}

// IsActive reports whether name currently reads logical state 1 and has
// done so for at least dwellMS milliseconds.
func (c *Controller) IsActive(name string, dwellMS int) (bool, error) {
	return c.IsState(name, 1, dwellMS)
}

// IsInactive reports whether name currently reads logical state 0 and has
// done so for at least dwellMS milliseconds.
func (c *Controller) IsInactive(name string, dwellMS int) (bool, error) {
	return c.IsState(name, 0, dwellMS)
}

// WaitForAny returns a Future that resolves the first time any switch in
// names reaches state (qualified by dwellMS, 0 meaning immediate). If
// onlyOnChange is false and a switch is already in that qualifying state,
// the future resolves synchronously before WaitForAny returns. Whichever
// switch resolves the future, every transient handler WaitForAny
// registered is removed, matching the reference's wait_for_any_switch.
func (c *Controller) WaitForAny(names []string, state, dwellMS int, onlyOnChange bool) (*Future, error) {
	if !onlyOnChange {
		for _, name := range names {
			active, err := c.IsState(name, state, dwellMS)
			if err != nil {
				return nil, err
			}
			if active {
				f := newFuture()
				f.resolve(WaitResult{SwitchName: name, State: state, DwellMS: dwellMS})
				return f, nil
			}
		}
	}

	f := newFuture()
	keys := make([]HandlerKey, 0, len(names))
	for _, name := range names {
		switchName := name
		hk, err := c.addHandlerCommon(name, state, dwellMS, func() {
			f.resolve(WaitResult{SwitchName: switchName, State: state, DwellMS: dwellMS})
		})
		if err != nil {
			for _, k := range keys {
				c.RemoveHandlerByKey(k)
			}
			return nil, err
		}
		keys = append(keys, hk)
	}

	f.onSettle = func() {
		for _, k := range keys {
			c.RemoveHandlerByKey(k)
		}
	}
	return f, nil
}

// AddMonitor registers cb to be invoked, in registration order, on every
// accepted switch transition (and every unmatched hardware report).
func (c *Controller) AddMonitor(cb func(MonitoredChange)) MonitorHandle {
	return c.monitors.add(cb)
}

// RemoveMonitor removes a monitor previously returned by AddMonitor.
func (c *Controller) RemoveMonitor(h MonitorHandle) {
	c.monitors.remove(h)
}

// RefreshFromHardware reads every registered switch's platform once and
// overwrites Switch.State() with the (inversion-corrected) hardware
// level. It does not run the debounce/handler/monitor pipeline — it is a
// direct resync, used at startup and by VerifyAgainstHardware.
func (c *Controller) RefreshFromHardware(ctx context.Context) error {
	platforms := make(map[string]Platform)
	for _, sw := range c.switches {
		platforms[sw.Platform().Name()] = sw.Platform()
	}

	states := make(map[string]map[string]int, len(platforms))
	for pname, p := range platforms {
		readings, err := p.ReadAllStates(ctx)
		if err != nil {
			return err
		}
		states[pname] = readings
	}

	for _, sw := range c.switches {
		readings := states[sw.Platform().Name()]
		raw, ok := readings[sw.HardwareNumber()]
		if !ok {
			return &MissingHardwareNumberError{HardwareNumber: sw.HardwareNumber(), Platform: sw.Platform().Name()}
		}
		state := raw
		if sw.Inverted() {
			state ^= 1
		}
		sw.SetState(state)
	}
	return nil
}

// VerifyAgainstHardware re-reads every switch's platform and reports
// whether every switch's prior State() matched the freshly-read value,
// logging a warning for each mismatch. Used for periodic drift checks
// rather than the startup resync RefreshFromHardware performs alone.
func (c *Controller) VerifyAgainstHardware(ctx context.Context) (bool, error) {
	prior := make(map[string]int, len(c.switches))
	for key, sw := range c.switches {
		prior[key] = sw.State()
	}

	if err := c.RefreshFromHardware(ctx); err != nil {
		return false, err
	}

	ok := true
	for key, sw := range c.switches {
		if sw.State() != prior[key] {
			ok = false
			name, _ := c.state.canonicalName(key)
			c.logger.Warnf("switchcontroller: hardware state mismatch on %q: controller had %d, hardware reads %d",
				name, prior[key], sw.State())
		}
	}
	return ok, nil
}

// Depth reports how many timed pendings are currently queued, for
// metrics.
func (c *Controller) Depth() int {
	return c.timed.depth()
}

// MonitorCount reports how many monitors are currently registered, for
// metrics.
func (c *Controller) MonitorCount() int {
	return c.monitors.count()
}

func normalizeBit(x int) int {
	if x != 0 {
		return 1
	}
	return 0
}

func platformName(p Platform) string {
	if p == nil {
		return ""
	}
	return p.Name()
}
