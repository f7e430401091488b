package switchcontroller

// MonitorHandle identifies a registered monitor for later removal.
// Go funcs aren't comparable for identity the way the reference compares
// bound Python methods, so AddMonitor hands back an opaque handle instead
// of requiring the original func value for removal.
type MonitorHandle int

type monitorEntry struct {
	handle MonitorHandle
	cb     func(MonitoredChange)
}

// monitorList maintains the set of registered monitors in registration
// order, spec.md §4.8.
type monitorList struct {
	entries []monitorEntry
	nextID  MonitorHandle
}

func newMonitorList() *monitorList {
	return &monitorList{}
}

func (m *monitorList) add(cb func(MonitoredChange)) MonitorHandle {
	m.nextID++
	m.entries = append(m.entries, monitorEntry{handle: m.nextID, cb: cb})
	return m.nextID
}

func (m *monitorList) remove(h MonitorHandle) {
	for i, e := range m.entries {
		if e.handle == h {
			m.entries = append(m.entries[:i:i], m.entries[i+1:]...)
			return
		}
	}
}

// notifyAll invokes every registered monitor, in registration order.
func (m *monitorList) notifyAll(change MonitoredChange) {
	for _, e := range m.entries {
		e.cb(change)
	}
}

func (m *monitorList) count() int {
	return len(m.entries)
}
