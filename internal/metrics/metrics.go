// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

// Package metrics holds the Prometheus instrumentation for Shopranker.
//
// Metrics are registered on the default registry through promauto and exposed
// at /metrics. Callers use the RecordX helpers rather than touching the vectors.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tomtom215/shopranker/internal/models"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopranker_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shopranker_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shopranker_api_active_requests",
			Help: "Number of in-flight API requests",
		},
	)

	// Ranking
	RankingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopranker_ranking_requests_total",
			Help: "Ranking requests by surface and outcome",
		},
		[]string{"surface", "outcome"}, // outcome: live, degraded, cached, not_found, invalid
	)

	RankingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shopranker_ranking_duration_seconds",
			Help:    "Time to compute a surface",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"surface"},
	)

	RankingResultSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shopranker_ranking_result_size",
			Help:    "Number of items returned per surface request",
			Buckets: []float64{0, 1, 2, 5, 8, 10, 20, 50},
		},
		[]string{"surface"},
	)

	CandidateFilterErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shopranker_candidate_filter_errors_total",
			Help: "Candidate filter expression evaluation failures",
		},
	)

	// Tracking
	TrackingEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopranker_tracking_events_total",
			Help: "Tracking events received, by type and whether they were recorded",
		},
		[]string{"event", "recorded"},
	)

	TrackingFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopranker_tracking_failures_total",
			Help: "Tracking events that could not be fully recorded",
		},
		[]string{"event", "kind"}, // kind: validation, not_found, unavailable, publish, other
	)

	CounterIncrements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopranker_counter_increments_total",
			Help: "Successful engagement counter increments",
		},
		[]string{"counter"},
	)

	// Storage
	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shopranker_storage_operation_duration_seconds",
			Help:    "Storage operation latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	StorageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopranker_storage_errors_total",
			Help: "Storage operation failures (not-found excluded)",
		},
		[]string{"backend", "operation"},
	)

	// Circuit breakers
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shopranker_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopranker_circuit_breaker_requests_total",
			Help: "Requests through a circuit breaker",
		},
		[]string{"name", "result"}, // result: success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopranker_circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Event stream
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopranker_events_published_total",
			Help: "Tracking events published to the event stream",
		},
		[]string{"event"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopranker_events_consumed_total",
			Help: "Tracking events consumed from the event stream",
		},
		[]string{"event"},
	)

	EventsMalformed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shopranker_events_malformed_total",
			Help: "Event stream messages that failed to decode",
		},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRanking records one completed surface request.
func RecordRanking(surface models.Surface, outcome string, size int, duration time.Duration) {
	RankingRequests.WithLabelValues(string(surface), outcome).Inc()
	RankingDuration.WithLabelValues(string(surface)).Observe(duration.Seconds())
	RankingResultSize.WithLabelValues(string(surface)).Observe(float64(size))
}

// RecordRankingError records a surface request that ended in a client error.
func RecordRankingError(surface models.Surface, err error) {
	outcome := "error"
	switch {
	case models.IsNotFound(err):
		outcome = "not_found"
	case models.IsInvalid(err):
		outcome = "invalid"
	}
	RankingRequests.WithLabelValues(string(surface), outcome).Inc()
}

// RecordTrackingEvent records a received tracking event.
func RecordTrackingEvent(event string, recorded bool) {
	r := "false"
	if recorded {
		r = "true"
	}
	TrackingEvents.WithLabelValues(event, r).Inc()
}

// RecordTrackingFailure classifies err and counts it against event.
func RecordTrackingFailure(event string, err error) {
	TrackingFailures.WithLabelValues(event, ErrorKind(err)).Inc()
}

// ErrorKind maps an error onto a low-cardinality label value.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, models.ErrValidationFailed), errors.Is(err, models.ErrInvalidRequest):
		return "validation"
	case models.IsNotFound(err):
		return "not_found"
	case models.IsUnavailable(err):
		return "unavailable"
	default:
		return "other"
	}
}

// RecordCounterIncrement counts a successful counter increment.
func RecordCounterIncrement(kind models.CounterKind) {
	CounterIncrements.WithLabelValues(string(kind)).Inc()
}

// RecordStorageOperation records latency and, for real failures, an error.
// Not-found is an answer, not a failure.
func RecordStorageOperation(backend, operation string, duration time.Duration, err error) {
	StorageOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	if err != nil && !models.IsNotFound(err) {
		StorageErrors.WithLabelValues(backend, operation).Inc()
	}
}

// RecordEventPublished counts a published tracking event.
func RecordEventPublished(event string) {
	EventsPublished.WithLabelValues(event).Inc()
}

// RecordEventConsumed counts a consumed tracking event.
func RecordEventConsumed(event string) {
	EventsConsumed.WithLabelValues(event).Inc()
}
