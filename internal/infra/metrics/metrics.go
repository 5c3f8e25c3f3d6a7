// Package metrics provides the prometheus collectors of the lounge server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Station metrics
	Stations = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lounge_stations",
			Help: "Number of stations by status",
		},
		[]string{"status"},
	)

	SessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lounge_sessions_started_total",
			Help: "Sessions started",
		},
		[]string{"tier"},
	)

	SessionsEnded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lounge_sessions_ended_total",
			Help: "Sessions ended and billed",
		},
		[]string{"tier"},
	)

	SessionsCancelled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lounge_sessions_cancelled_total",
			Help: "Sessions removed before they were billed",
		},
		[]string{"tier"},
	)

	EarningsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lounge_earnings_rupees_total",
			Help: "Billed amount of ended sessions",
		},
		[]string{"tier"},
	)

	ValidationRejects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lounge_validation_rejects_total",
			Help: "Add requests rejected by validation",
		},
		[]string{"field"},
	)

	// Ticker metrics
	TickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lounge_tick_duration_seconds",
			Help:    "Time spent recomputing live stations per tick",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		},
	)

	// Storage metrics
	StorageErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lounge_storage_errors_total",
			Help: "Storage boundary failures",
		},
		[]string{"op"},
	)

	// Live stream metrics
	Subscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lounge_live_subscribers",
			Help: "Connected live board subscribers",
		},
	)
)

func init() {
	prometheus.MustRegister(
		Stations,
		SessionsStarted,
		SessionsEnded,
		SessionsCancelled,
		EarningsTotal,
		ValidationRejects,
		TickDuration,
		StorageErrors,
		Subscribers,
	)
}

// Handler returns the HTTP handler exposing the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
