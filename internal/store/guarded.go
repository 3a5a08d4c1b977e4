// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shopranker/internal/breaker"
	"github.com/tomtom215/shopranker/internal/config"
	"github.com/tomtom215/shopranker/internal/logging"
	"github.com/tomtom215/shopranker/internal/metrics"
	"github.com/tomtom215/shopranker/internal/models"
)

// Store is the guarded entry point to a Backend.
type Store struct {
	backend Backend
	breaker *breaker.Breaker
	timeout time.Duration
	logger  zerolog.Logger
}

// New wraps backend with the timeout and breaker settings from cfg.
func New(backend Backend, cfg *config.StorageConfig) *Store {
	settings := breaker.DefaultSettings()
	if cfg.Breaker.MaxRequests > 0 {
		settings.MaxRequests = cfg.Breaker.MaxRequests
	}
	settings.Interval = cfg.Breaker.Interval
	if cfg.Breaker.Timeout > 0 {
		settings.Timeout = cfg.Breaker.Timeout
	}
	if cfg.Breaker.FailureThreshold > 0 {
		settings.ConsecutiveFailures = cfg.Breaker.FailureThreshold
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	return &Store{
		backend: backend,
		breaker: breaker.New("storage_"+backend.Name(), settings, isBreakerSuccess),
		timeout: timeout,
		logger:  logging.WithComponent("store").With().Str("backend", backend.Name()).Logger(),
	}
}

// isBreakerSuccess keeps answers and caller mistakes from tripping the breaker.
func isBreakerSuccess(err error) bool {
	return err == nil ||
		models.IsNotFound(err) ||
		models.IsInvalid(err) ||
		errors.Is(err, context.Canceled)
}

// Backend returns the wrapped backend name.
func (s *Store) Backend() string { return s.backend.Name() }

// BreakerState reports the storage breaker state.
func (s *Store) BreakerState() string { return s.breaker.State() }

func (s *Store) do(ctx context.Context, op, subject string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := s.breaker.Execute(func() error { return fn(ctx) })
	err = s.classify(op, subject, err)
	metrics.RecordStorageOperation(s.backend.Name(), op, time.Since(start), err)
	return err
}

// classify passes NotFound and invalid-request errors through and turns every
// other failure into ErrStorageUnavailable.
func (s *Store) classify(op, subject string, err error) error {
	switch {
	case err == nil, models.IsNotFound(err), models.IsInvalid(err), models.IsUnavailable(err):
		return err
	}
	if !errors.Is(err, context.Canceled) {
		s.logger.Warn().Err(err).Str("op", op).Str("subject", subject).Msg("Storage operation failed")
	}
	return models.NewError(models.ErrStorageUnavailable, op, subject, err)
}

func requireID(op, kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return models.Invalidf(op, "%s is required", kind)
	}
	return nil
}

func (s *Store) increment(ctx context.Context, id string, kind models.CounterKind) (models.Counters, error) {
	op := "increment_" + string(kind)
	if err := requireID(op, "product id", id); err != nil {
		return models.Counters{}, err
	}
	var c models.Counters
	err := s.do(ctx, op, id, func(ctx context.Context) error {
		var err error
		c, err = s.backend.Increment(ctx, id, kind)
		return err
	})
	if err == nil {
		metrics.RecordCounterIncrement(kind)
	}
	return c, err
}

// IncrementView adds one view to the product and returns its counters.
func (s *Store) IncrementView(ctx context.Context, id string) (models.Counters, error) {
	return s.increment(ctx, id, models.CounterViews)
}

// IncrementPurchase adds one purchase to the product.
func (s *Store) IncrementPurchase(ctx context.Context, id string) (models.Counters, error) {
	return s.increment(ctx, id, models.CounterPurchases)
}

// IncrementLike adds one like to the product.
func (s *Store) IncrementLike(ctx context.Context, id string) (models.Counters, error) {
	return s.increment(ctx, id, models.CounterLikes)
}

// IncrementShare adds one share to the product.
func (s *Store) IncrementShare(ctx context.Context, id string) (models.Counters, error) {
	return s.increment(ctx, id, models.CounterShares)
}

// Increment adds one to the named counter.
func (s *Store) Increment(ctx context.Context, id string, kind models.CounterKind) (models.Counters, error) {
	if _, err := models.ParseCounterKind(string(kind)); err != nil {
		return models.Counters{}, err
	}
	return s.increment(ctx, id, kind)
}

// GetCounters returns a snapshot of the product's counters.
func (s *Store) GetCounters(ctx context.Context, id string) (models.Counters, error) {
	if err := requireID("get_counters", "product id", id); err != nil {
		return models.Counters{}, err
	}
	var c models.Counters
	err := s.do(ctx, "get_counters", id, func(ctx context.Context) error {
		var err error
		c, err = s.backend.GetCounters(ctx, id)
		return err
	})
	return c, err
}

// GetProduct returns one product snapshot.
func (s *Store) GetProduct(ctx context.Context, id string) (models.Product, error) {
	if err := requireID("get_product", "product id", id); err != nil {
		return models.Product{}, err
	}
	var p models.Product
	err := s.do(ctx, "get_product", id, func(ctx context.Context) error {
		var err error
		p, err = s.backend.GetProduct(ctx, id)
		return err
	})
	return p, err
}

// ListProducts returns matching products ordered by id.
func (s *Store) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	var out []models.Product
	err := s.do(ctx, "list_products", filter.Category, func(ctx context.Context) error {
		var err error
		out, err = s.backend.ListProducts(ctx, filter)
		return err
	})
	return out, err
}

// PutProduct inserts or replaces a product.
func (s *Store) PutProduct(ctx context.Context, p models.Product) error {
	if err := requireID("put_product", "product id", p.ID); err != nil {
		return err
	}
	return s.do(ctx, "put_product", p.ID, func(ctx context.Context) error {
		return s.backend.PutProduct(ctx, p)
	})
}

// RecordInteraction appends ev to the user's interaction record, creating it
// on first use.
func (s *Store) RecordInteraction(ctx context.Context, userID string, ev models.Interaction) error {
	if err := requireID("record_interaction", "user id", userID); err != nil {
		return err
	}
	return s.do(ctx, "record_interaction", userID, func(ctx context.Context) error {
		return s.backend.AppendInteraction(ctx, userID, ev)
	})
}

// GetInteractions returns the user's record, or ErrNotFound when there is none.
func (s *Store) GetInteractions(ctx context.Context, userID string) (models.InteractionRecord, error) {
	if err := requireID("get_interactions", "user id", userID); err != nil {
		return models.InteractionRecord{}, err
	}
	var rec models.InteractionRecord
	err := s.do(ctx, "get_interactions", userID, func(ctx context.Context) error {
		var err error
		rec, err = s.backend.GetInteractions(ctx, userID)
		return err
	})
	return rec, err
}

// Ping checks backend reachability. It bypasses the breaker so readiness
// reflects the backend, not the breaker.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.backend.Ping(ctx); err != nil {
		return models.NewError(models.ErrStorageUnavailable, "ping", s.backend.Name(), err)
	}
	return nil
}

// Compact runs backend space reclamation when the backend supports it.
// It bypasses the breaker; compaction failures are not request failures.
func (s *Store) Compact(ctx context.Context) error {
	c, ok := s.backend.(Compactor)
	if !ok {
		return nil
	}
	return c.Compact(ctx)
}

// Close closes the backend.
func (s *Store) Close() error { return s.backend.Close() }
