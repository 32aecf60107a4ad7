// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal tracks total HTTP requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plateshare_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks HTTP request duration.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plateshare_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// RequestDecisions counts donor decisions by outcome.
	RequestDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plateshare_request_decisions_total",
			Help: "Donor decisions on requests by status",
		},
		[]string{"status"},
	)

	// PartialFailures counts accepts whose food status update failed.
	PartialFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "plateshare_partial_failures_total",
			Help: "Accepted requests whose food item could not be marked donated",
		},
	)

	// CacheLookups counts food cache lookups by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plateshare_cache_lookups_total",
			Help: "Food cache lookups by result",
		},
		[]string{"result"},
	)

	// CircuitBreakerState tracks circuit breaker state (0=closed, 1=open, 2=half-open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "plateshare_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"circuit"},
	)

	// CircuitBreakerFailures tracks calls that failed or were refused by a breaker.
	CircuitBreakerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plateshare_circuit_breaker_failures_total",
			Help: "Total number of circuit breaker failures",
		},
		[]string{"circuit"},
	)
)
