// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/shopranker/internal/config"
	"github.com/tomtom215/shopranker/internal/models"
)

// Key prefixes for namespacing in BadgerDB.
const (
	badgerProductPrefix     = "product:"
	badgerInteractionPrefix = "interactions:"
)

// badgerMaxConflictRetries bounds read-modify-write retries on ErrConflict.
// Writers of one key are serialised by keyLocks, so the bound only guards
// against livelock.
const badgerMaxConflictRetries = 64

// badgerGCDiscardRatio is the garbage fraction a value log file needs before
// it is rewritten.
const badgerGCDiscardRatio = 0.5

// Badger is an embedded, durable backend. Products are stored as JSON
// documents with their counters; each user's interactions are one JSON list.
type Badger struct {
	db *badger.DB

	// Per-key write locks. Optimistic transactions alone lose increments
	// once conflicting writers exceed the retry bound.
	keyLocks sync.Map
}

// OpenBadger opens (or creates) a Badger database at cfg.Path.
func OpenBadger(cfg config.BadgerConfig) (*Badger, error) {
	opts := badger.DefaultOptions(cfg.Path)
	opts.Logger = nil
	opts.ValueLogFileSize = 64 << 20
	opts.SyncWrites = cfg.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &Badger{db: db}, nil
}

// NewBadgerFromDB wraps an already open database.
func NewBadgerFromDB(db *badger.DB) *Badger {
	return &Badger{db: db}
}

func (b *Badger) Name() string { return config.BackendBadger }

func (b *Badger) Ping(context.Context) error {
	if b.db.IsClosed() {
		return errors.New("badger db is closed")
	}
	return nil
}

func (b *Badger) Close() error { return b.db.Close() }

// Compact runs value log GC until a pass finds nothing worth rewriting.
func (b *Badger) Compact(ctx context.Context) error {
	for ctx.Err() == nil {
		err := b.db.RunValueLogGC(badgerGCDiscardRatio)
		switch {
		case err == nil:
			continue
		case errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrRejected), errors.Is(err, badger.ErrGCInMemoryMode):
			return nil
		default:
			return fmt.Errorf("badger value log gc: %w", err)
		}
	}
	return ctx.Err()
}

func productKey(id string) []byte { return []byte(badgerProductPrefix + id) }

func (b *Badger) lockKey(key []byte) func() {
	v, _ := b.keyLocks.LoadOrStore(string(key), &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (b *Badger) PutProduct(_ context.Context, p models.Product) error {
	if p.ID == "" {
		return models.Invalidf("put_product", "product id is required")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	defer b.lockKey(productKey(p.ID))()
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(productKey(p.ID), data)
	})
}

func readProduct(txn *badger.Txn, op, id string) (models.Product, error) {
	var p models.Product
	item, err := txn.Get(productKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return p, models.NotFoundf(op, id)
	}
	if err != nil {
		return p, fmt.Errorf("get product: %w", err)
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &p)
	})
	return p, err
}

func (b *Badger) GetProduct(_ context.Context, id string) (models.Product, error) {
	var p models.Product
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		p, err = readProduct(txn, "get_product", id)
		return err
	})
	return p, err
}

// ListProducts iterates the product prefix; keys sort by id.
func (b *Badger) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	var out []models.Product
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(badgerProductPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var p models.Product
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			}); err != nil {
				return fmt.Errorf("decode product %s: %w", it.Item().Key(), err)
			}
			if filter.Match(&p) {
				out = append(out, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Product{}
	}
	return out, nil
}

// update runs fn in a read-write transaction while holding the write lock of
// key, retrying on conflicts.
func (b *Badger) update(ctx context.Context, key []byte, fn func(txn *badger.Txn) error) error {
	defer b.lockKey(key)()
	var err error
	for range badgerMaxConflictRetries {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = b.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("badger update: %w", err)
}

func (b *Badger) Increment(ctx context.Context, id string, kind models.CounterKind) (models.Counters, error) {
	var counters models.Counters
	err := b.update(ctx, productKey(id), func(txn *badger.Txn) error {
		p, err := readProduct(txn, "increment", id)
		if err != nil {
			return err
		}
		p.Analytics = p.Analytics.Add(kind, 1)
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal product: %w", err)
		}
		counters = p.Analytics
		return txn.Set(productKey(id), data)
	})
	return counters, err
}

func (b *Badger) GetCounters(ctx context.Context, id string) (models.Counters, error) {
	p, err := b.GetProduct(ctx, id)
	if err != nil {
		if models.IsNotFound(err) {
			return models.Counters{}, models.NotFoundf("get_counters", id)
		}
		return models.Counters{}, err
	}
	return p.Analytics, nil
}

func (b *Badger) AppendInteraction(ctx context.Context, userID string, ev models.Interaction) error {
	key := []byte(badgerInteractionPrefix + userID)
	return b.update(ctx, key, func(txn *badger.Txn) error {
		var evs []models.Interaction
		item, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return fmt.Errorf("get interactions: %w", err)
		default:
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &evs)
			}); err != nil {
				return fmt.Errorf("decode interactions: %w", err)
			}
		}
		data, err := json.Marshal(append(evs, ev))
		if err != nil {
			return fmt.Errorf("marshal interactions: %w", err)
		}
		return txn.Set(key, data)
	})
}

func (b *Badger) GetInteractions(_ context.Context, userID string) (models.InteractionRecord, error) {
	rec := models.InteractionRecord{UserID: userID}
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerInteractionPrefix + userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return models.NotFoundf("get_interactions", userID)
		}
		if err != nil {
			return fmt.Errorf("get interactions: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec.Interactions)
		})
	})
	return rec, err
}

var _ Backend = (*Badger)(nil)
