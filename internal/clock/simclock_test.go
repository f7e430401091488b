package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimAdvanceFiresDueCallbacksInOrder(t *testing.T) {
	c := NewSim()
	var order []string
	c.ScheduleOnce(2.0, func() { order = append(order, "b") })
	c.ScheduleOnce(1.0, func() { order = append(order, "a") })

	c.Advance(3.0)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, 3.0, c.Now())
}

func TestSimAdvanceDoesNotFireFutureCallbacks(t *testing.T) {
	c := NewSim()
	fired := false
	c.ScheduleOnce(5.0, func() { fired = true })

	c.Advance(4.0)
	assert.False(t, fired)
	assert.Equal(t, 4.0, c.Now())
}

func TestSimCancelPreventsFiring(t *testing.T) {
	c := NewSim()
	fired := false
	cancel := c.ScheduleOnce(1.0, func() { fired = true })
	cancel()

	c.Advance(2.0)
	assert.False(t, fired)
}

func TestSimCallbackSchedulingDuringAdvanceAlsoFires(t *testing.T) {
	c := NewSim()
	var order []string
	c.ScheduleOnce(1.0, func() {
		order = append(order, "first")
		c.ScheduleOnce(0.5, func() { order = append(order, "second") })
	})

	c.Advance(2.0)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestSimSetJumpsWithoutFiring(t *testing.T) {
	c := NewSim()
	fired := false
	c.ScheduleOnce(1.0, func() { fired = true })

	c.Set(100.0)
	assert.False(t, fired)
	assert.Equal(t, 100.0, c.Now())
}
