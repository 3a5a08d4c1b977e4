// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

/*
Package store holds the product catalog, engagement counters and per-user
interaction records.

Four backends implement Backend: memory, badger, redis and duckdb. The rest of
the service only talks to *Store, which bounds every call with a timeout, runs
it through a circuit breaker and maps transport failures onto
models.ErrStorageUnavailable.

Counter increments are atomic per product in every backend. Unknown product
ids are models.ErrNotFound and never create a counter.
*/
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/tomtom215/shopranker/internal/config"
	"github.com/tomtom215/shopranker/internal/logging"
	"github.com/tomtom215/shopranker/internal/models"
)

// ProductFilter narrows ListProducts.
type ProductFilter struct {
	Category   string
	ActiveOnly bool
}

// Match reports whether p passes the filter.
func (f ProductFilter) Match(p *models.Product) bool {
	if f.ActiveOnly && !p.IsActive {
		return false
	}
	return f.Category == "" || p.Category == f.Category
}

// Catalog reads product snapshots. ListProducts returns products ordered by id.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (models.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error)
}

// CounterStore holds per-product engagement counters.
type CounterStore interface {
	Increment(ctx context.Context, id string, kind models.CounterKind) (models.Counters, error)
	GetCounters(ctx context.Context, id string) (models.Counters, error)
}

// InteractionStore holds per-user interaction records, oldest first.
type InteractionStore interface {
	AppendInteraction(ctx context.Context, userID string, ev models.Interaction) error
	GetInteractions(ctx context.Context, userID string) (models.InteractionRecord, error)
}

// Backend is a complete storage implementation.
type Backend interface {
	Catalog
	CounterStore
	InteractionStore

	// PutProduct inserts or replaces a product, counters included.
	PutProduct(ctx context.Context, p models.Product) error
	Ping(ctx context.Context) error
	Close() error
	Name() string
}

// Compactor is implemented by backends that need periodic space reclamation.
type Compactor interface {
	Compact(ctx context.Context) error
}

const maxConnectInterval = 5 * time.Second

// Open builds the backend selected by cfg.Backend. Backends that dial out are
// retried with exponential backoff until cfg.ConnectTimeout elapses.
func Open(ctx context.Context, cfg *config.StorageConfig) (Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		return NewMemory(), nil
	case config.BackendBadger:
		return OpenBadger(cfg.Badger)
	case config.BackendDuckDB:
		return OpenDuckDB(ctx, cfg.DuckDB.Path)
	case config.BackendRedis:
		return connectWithBackoff(ctx, cfg.ConnectTimeout, func(ctx context.Context) (Backend, error) {
			return OpenRedis(ctx, cfg.Redis)
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func connectWithBackoff(ctx context.Context, limit time.Duration, dial func(context.Context) (Backend, error)) (Backend, error) {
	if limit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limit)
		defer cancel()
	}

	backoffCfg := backoff.NewExponentialBackOff()
	backoffCfg.MaxInterval = maxConnectInterval

	for attempt := 1; ; attempt++ {
		b, err := dial(ctx)
		if err == nil {
			return b, nil
		}
		sleep := backoffCfg.NextBackOff()
		if sleep == backoff.Stop {
			sleep = maxConnectInterval
		}
		logging.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", sleep).Msg("Storage connect failed")

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect storage after %d attempts: %w", attempt, err)
		case <-time.After(sleep):
		}
	}
}
