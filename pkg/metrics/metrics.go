// Package metrics defines the Prometheus collectors used across the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "growvest_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "growvest_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// DatabaseConnectionsGauge tracks connection pool state.
	DatabaseConnectionsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "growvest_database_connections",
			Help: "Database connection pool state",
		},
		[]string{"state"},
	)

	// AccrualRunsTotal counts daily earnings scheduler runs by outcome.
	AccrualRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "growvest_accrual_runs_total",
			Help: "Total daily earnings scheduler runs",
		},
		[]string{"outcome"},
	)

	// AccrualCreditsTotal counts individual plan credits by outcome.
	AccrualCreditsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "growvest_accrual_credits_total",
			Help: "Per-plan daily earning credits",
		},
		[]string{"outcome"},
	)

	// WithdrawalsTotal counts withdrawal lifecycle events.
	WithdrawalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "growvest_withdrawals_total",
			Help: "Withdrawal lifecycle events",
		},
		[]string{"event"},
	)
)
