// Package metrics exposes Prometheus collectors for the booking flow.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HoldAttempts counts seat hold attempts by result (ok, unavailable, invalid, started, error).
	HoldAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinema",
		Subsystem: "booking",
		Name:      "hold_attempts_total",
		Help:      "Seat hold attempts by result.",
	}, []string{"result"})

	// Transitions counts booking status transitions by target status.
	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinema",
		Subsystem: "booking",
		Name:      "transitions_total",
		Help:      "Booking status transitions by target status.",
	}, []string{"status"})

	// SeatsReleased counts seats returned to availability, by reason.
	SeatsReleased = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinema",
		Subsystem: "booking",
		Name:      "seats_released_total",
		Help:      "Seats freed by cancellation, expiry or failed payment.",
	}, []string{"reason"})

	// SweepDuration observes how long an expiry sweep takes.
	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cinema",
		Subsystem: "booking",
		Name:      "sweep_duration_seconds",
		Help:      "Duration of hold expiry sweeps.",
		Buckets:   prometheus.DefBuckets,
	})

	// HTTPRequests counts served requests by route and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinema",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
