// Package metrics exposes chat turn counters for /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Turn outcomes.
const (
	OutcomeReply     = "reply"
	OutcomeFailed    = "failed"
	OutcomeDiscarded = "discarded"
)

var (
	submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medicare",
		Subsystem: "chat",
		Name:      "submissions_total",
		Help:      "Chat submissions by whether the session accepted them.",
	}, []string{"accepted"})

	turns = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "medicare",
		Subsystem: "chat",
		Name:      "turn_duration_seconds",
		Help:      "Time from submission until the turn settled.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"outcome"})

	tiers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medicare",
		Subsystem: "triage",
		Name:      "replies_total",
		Help:      "Triage replies by severity tier and responder source.",
	}, []string{"tier", "source"})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "medicare",
		Subsystem: "chat",
		Name:      "active_sessions",
		Help:      "Sessions currently held by the session manager.",
	})
)

// ObserveSubmit counts a submission attempt.
func ObserveSubmit(accepted bool) {
	label := "false"
	if accepted {
		label = "true"
	}
	submissions.WithLabelValues(label).Inc()
}

// ObserveTurn records how a turn ended and how long it took.
func ObserveTurn(outcome string, elapsed time.Duration) {
	turns.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveTriage counts one backend triage reply.
func ObserveTriage(tier, source string) {
	tiers.WithLabelValues(tier, source).Inc()
}

// SessionOpened and SessionClosed track the live session gauge.
func SessionOpened() { activeSessions.Inc() }

func SessionClosed() { activeSessions.Dec() }
