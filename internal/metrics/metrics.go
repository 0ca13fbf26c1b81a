// Package metrics exposes exam session counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stemsi/exstem-portal/internal/session"
)

// Metrics groups the session collectors.
type Metrics struct {
	SessionsStarted   prometheus.Counter
	SessionsCompleted *prometheus.CounterVec
	Scores            prometheus.Histogram
	TimeSpent         prometheus.Histogram
	SaveFailures      prometheus.Counter
	ActiveSessions    prometheus.Gauge

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "exstem",
			Name:      "exam_sessions_started_total",
			Help:      "Exam sessions that became active.",
		}),
		SessionsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "exstem",
			Name:      "exam_sessions_completed_total",
			Help:      "Exam sessions that completed, by cause.",
		}, []string{"cause"}),
		Scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "exstem",
			Name:      "exam_score",
			Help:      "Distribution of final exam scores.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		TimeSpent: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "exstem",
			Name:      "exam_time_spent_seconds",
			Help:      "Time spent per completed session.",
			Buckets:   prometheus.ExponentialBuckets(30, 2, 9),
		}),
		SaveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "exstem",
			Name:      "exam_result_save_failures_total",
			Help:      "Results that were scored but could not be handed to storage.",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "exstem",
			Name:      "exam_sessions_active",
			Help:      "Sessions currently in progress.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "exstem",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "endpoint", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "exstem",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		}, []string{"method", "endpoint"}),
	}

	reg.MustRegister(
		m.SessionsStarted,
		m.SessionsCompleted,
		m.Scores,
		m.TimeSpent,
		m.SaveFailures,
		m.ActiveSessions,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

// Observer returns a session observer that records engine events.
func (m *Metrics) Observer() session.Observer {
	return session.ObserverFunc(func(ev session.Event) {
		switch e := ev.(type) {
		case session.StartedEvent:
			m.SessionsStarted.Inc()
			m.ActiveSessions.Inc()
		case session.CompletionEvent:
			m.ActiveSessions.Dec()
			m.SessionsCompleted.WithLabelValues(string(e.Result.Cause)).Inc()
			m.Scores.Observe(float64(e.Result.Score))
			m.TimeSpent.Observe(float64(e.Result.TimeSpentSeconds))
		case session.WarningEvent:
			m.SaveFailures.Inc()
		}
	})
}

// SessionAbandoned balances the active gauge for a session that ended without completing.
func (m *Metrics) SessionAbandoned() {
	m.ActiveSessions.Dec()
}
