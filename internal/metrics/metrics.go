// Package metrics exposes Prometheus collectors for the booking service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReservationDecisions counts engine outcomes by operation and reason
	// code (ok, no_availability, past_date, ...).
	ReservationDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hotel",
		Subsystem: "booking",
		Name:      "decisions_total",
		Help:      "Availability and pricing decisions by operation and outcome.",
	}, []string{"operation", "outcome"})

	// DecisionDuration measures how long a decision took, including the
	// storage round trips.
	DecisionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hotel",
		Subsystem: "booking",
		Name:      "decision_duration_seconds",
		Help:      "Latency of availability and pricing decisions.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	// EventsPublished counts reservation events handed to the broker.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hotel",
		Subsystem: "queue",
		Name:      "events_published_total",
		Help:      "Reservation events published, by result.",
	}, []string{"result"})

	// EmailsSent counts confirmation e-mails by result.
	EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hotel",
		Subsystem: "mailer",
		Name:      "emails_total",
		Help:      "Confirmation e-mails, by result.",
	}, []string{"result"})
)

// ObserveDecision records one engine decision.
func ObserveDecision(operation, outcome string, took time.Duration) {
	ReservationDecisions.WithLabelValues(operation, outcome).Inc()
	DecisionDuration.WithLabelValues(operation).Observe(took.Seconds())
}
