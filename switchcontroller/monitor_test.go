package switchcontroller

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonitorListNotifyAllPreservesRegistrationOrder(t *testing.T) {
	m := newMonitorList()
	var order []string
	m.add(func(MonitoredChange) { order = append(order, "first") })
	m.add(func(MonitoredChange) { order = append(order, "second") })

	m.notifyAll(MonitoredChange{Name: "flipper_l"})
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestMonitorListRemove(t *testing.T) {
	m := newMonitorList()
	fired := false
	h := m.add(func(MonitoredChange) { fired = true })
	m.remove(h)

	m.notifyAll(MonitoredChange{})
	assert.False(t, fired)
	assert.Equal(t, 0, m.count())
}
