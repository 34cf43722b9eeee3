package session

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments the session lifecycle. A nil *Metrics is a no-op.
type Metrics struct {
	started   prometheus.Counter
	finalized *prometheus.CounterVec
	failures  *prometheus.CounterVec
	points    prometheus.Histogram
}

// NewMetrics registers session collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tests_sessions_started_total",
			Help: "Test sessions started.",
		}),
		finalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tests_sessions_finalized_total",
			Help: "Test sessions finalized, by trigger.",
		}, []string{"trigger"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tests_side_effect_failures_total",
			Help: "Failed persistence or notification calls during finalize.",
		}, []string{"effect"}),
		points: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tests_session_score_points",
			Help:    "Points scored per finalized session.",
			Buckets: prometheus.LinearBuckets(0, 20, 11),
		}),
	}
	reg.MustRegister(m.started, m.finalized, m.failures, m.points)
	return m
}

func (m *Metrics) sessionStarted() {
	if m == nil {
		return
	}
	m.started.Inc()
}

func (m *Metrics) sessionFinalized(trigger Trigger, points int) {
	if m == nil {
		return
	}
	m.finalized.WithLabelValues(string(trigger)).Inc()
	m.points.Observe(float64(points))
}

func (m *Metrics) sideEffectFailed(effect string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(effect).Inc()
}
