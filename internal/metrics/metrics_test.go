package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestObserveTransitionIncrementsLabeledCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveTransition(1)
	m.ObserveTransition(1)
	m.ObserveTransition(0)

	families, err := reg.Gather()
	require.NoError(t, err)

	var got map[string]float64 = map[string]float64{}
	for _, fam := range families {
		if fam.GetName() != "switchcontroller_transitions_total" {
			continue
		}
		for _, metric := range fam.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "state" {
					got[label.GetValue()] = metric.GetCounter().GetValue()
				}
			}
		}
	}
	require.Equal(t, float64(2), got["1"])
	require.Equal(t, float64(1), got["0"])
}

func TestNilMetricsIsSafeToCall(t *testing.T) {
	var m *Metrics
	m.ObserveTransition(1)
	m.ObserveJitter()
	m.ObserveUnknownReport()
	m.SetTimedQueueDepth(3)
	m.SetMonitorCount(2)
}

func TestGaugesReflectSetValues(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.SetTimedQueueDepth(5)
	m.SetMonitorCount(2)

	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, fam := range families {
		for _, metric := range fam.GetMetric() {
			if g := metric.GetGauge(); g != nil {
				values[fam.GetName()] = g.GetValue()
			}
		}
	}
	require.Equal(t, float64(5), values["switchcontroller_timed_queue_depth"])
	require.Equal(t, float64(2), values["switchcontroller_monitors_registered"])
}
