// Package metrics exposes the switch controller's runtime counters and
// gauges via github.com/prometheus/client_golang, enrichment drawn from
// the pack's inos_v1 dependency set (spec.md's Non-goals exclude metrics
// as a feature surface, but the ambient stack still gets instrumented —
// see SPEC_FULL.md).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles every collector the controller updates. A nil
// *Metrics is safe to use everywhere a method is called on it — each
// method guards against a nil receiver, so instrumentation is optional.
type Metrics struct {
	transitions    *prometheus.CounterVec
	jitterEvents   prometheus.Counter
	unknownReports prometheus.Counter
	timedQueueSize prometheus.Gauge
	monitorCount   prometheus.Gauge
}

// New registers the switch controller's collectors against reg and
// returns the bundle. Pass prometheus.NewRegistry() for test isolation,
// or prometheus.DefaultRegisterer in production.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "switchcontroller",
			Name:      "transitions_total",
			Help:      "Accepted switch state transitions, by new state.",
		}, []string{"state"}),
		jitterEvents: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "switchcontroller",
			Name:      "jitter_total",
			Help:      "Activations rejected by the recycle gate.",
		}),
		unknownReports: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "switchcontroller",
			Name:      "unknown_hardware_reports_total",
			Help:      "Hardware reports that matched no configured switch.",
		}),
		timedQueueSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "switchcontroller",
			Name:      "timed_queue_depth",
			Help:      "Number of dwell-qualified handlers currently pending.",
		}),
		monitorCount: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "switchcontroller",
			Name:      "monitors_registered",
			Help:      "Number of monitors currently registered.",
		}),
	}
}

func (m *Metrics) ObserveTransition(state int) {
	if m == nil {
		return
	}
	label := "0"
	if state != 0 {
		label = "1"
	}
	m.transitions.WithLabelValues(label).Inc()
}

func (m *Metrics) ObserveJitter() {
	if m == nil {
		return
	}
	m.jitterEvents.Inc()
}

func (m *Metrics) ObserveUnknownReport() {
	if m == nil {
		return
	}
	m.unknownReports.Inc()
}

func (m *Metrics) SetTimedQueueDepth(n int) {
	if m == nil {
		return
	}
	m.timedQueueSize.Set(float64(n))
}

func (m *Metrics) SetMonitorCount(n int) {
	if m == nil {
		return
	}
	m.monitorCount.Set(float64(n))
}
