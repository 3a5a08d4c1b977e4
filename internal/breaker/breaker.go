// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

// Package breaker wraps sony/gobreaker with Shopranker's logging and metrics.
//
// The breaker uses real time for its interval and open-state timeout. Tests
// that need an open breaker should drive it with failures rather than mocking
// the clock.
package breaker

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/shopranker/internal/logging"
	"github.com/tomtom215/shopranker/internal/metrics"
)

// Settings configures a breaker.
type Settings struct {
	// MaxRequests is the number of trial requests allowed while half-open.
	MaxRequests uint32

	// Interval resets the closed-state counts. Zero never resets.
	Interval time.Duration

	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration

	// MinRequests is the sample size required before FailureRatio is considered.
	MinRequests uint32

	// FailureRatio opens the breaker once reached over at least MinRequests.
	FailureRatio float64

	// ConsecutiveFailures opens the breaker regardless of ratio. Zero disables.
	ConsecutiveFailures uint32
}

// DefaultSettings returns the production defaults.
func DefaultSettings() Settings {
	return Settings{
		MaxRequests:         3,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		MinRequests:         10,
		FailureRatio:        0.6,
		ConsecutiveFailures: 5,
	}
}

// Breaker is a named circuit breaker whose state is exported to Prometheus.
type Breaker struct {
	cb           *gobreaker.CircuitBreaker[struct{}]
	name         string
	isSuccessful func(error) bool
}

// New creates a breaker. isSuccessful decides which errors are answers rather
// than failures; nil treats every error as a failure.
func New(name string, s Settings, isSuccessful func(error) bool) *Breaker {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	log := logging.WithComponent("breaker").With().Str("breaker", name).Logger()

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if s.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= s.ConsecutiveFailures {
				log.Warn().Uint32("consecutive_failures", counts.ConsecutiveFailures).Msg("opening circuit")
				return true
			}
			if counts.Requests < s.MinRequests || counts.Requests == 0 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= s.FailureRatio {
				log.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", ratio*100).Msg("opening circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			log.Info().Str("from", fromStr).Str("to", toStr).Msg("circuit state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	}

	if isSuccessful == nil {
		isSuccessful = func(err error) bool { return err == nil }
	}
	settings.IsSuccessful = isSuccessful

	return &Breaker{cb: gobreaker.NewCircuitBreaker[struct{}](settings), name: name, isSuccessful: isSuccessful}
}

// Execute runs fn through the breaker. A rejected call returns ErrOpen.
func (b *Breaker) Execute(fn func() error) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})

	switch {
	case b.isSuccessful(err):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	case IsRejected(err):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
	}
	return err
}

// State returns the current state as closed, half-open or open.
func (b *Breaker) State() string {
	return stateToString(b.cb.State())
}

// Name returns the breaker name.
func (b *Breaker) Name() string { return b.name }

// IsRejected reports whether err came from the breaker refusing the call.
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
