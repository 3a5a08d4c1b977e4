// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package store

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/tomtom215/shopranker/internal/config"
	"github.com/tomtom215/shopranker/internal/models"
)

// Memory is an in-process backend. It is the default and the test double for
// everything above the store.
type Memory struct {
	mu           sync.RWMutex
	products     map[string]*models.Product
	interactions map[string][]models.Interaction
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		products:     make(map[string]*models.Product),
		interactions: make(map[string][]models.Interaction),
	}
}

func (m *Memory) Name() string { return config.BackendMemory }

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

func (m *Memory) PutProduct(_ context.Context, p models.Product) error {
	if p.ID == "" {
		return models.Invalidf("put_product", "product id is required")
	}
	c := p.Clone()
	m.mu.Lock()
	m.products[p.ID] = &c
	m.mu.Unlock()
	return nil
}

func (m *Memory) GetProduct(_ context.Context, id string) (models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return models.Product{}, models.NotFoundf("get_product", id)
	}
	return p.Clone(), nil
}

func (m *Memory) ListProducts(_ context.Context, filter ProductFilter) ([]models.Product, error) {
	m.mu.RLock()
	out := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		if filter.Match(p) {
			out = append(out, p.Clone())
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Increment(_ context.Context, id string, kind models.CounterKind) (models.Counters, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return models.Counters{}, models.NotFoundf("increment", id)
	}
	p.Analytics = p.Analytics.Add(kind, 1)
	return p.Analytics, nil
}

func (m *Memory) GetCounters(_ context.Context, id string) (models.Counters, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return models.Counters{}, models.NotFoundf("get_counters", id)
	}
	return p.Analytics, nil
}

func (m *Memory) AppendInteraction(_ context.Context, userID string, ev models.Interaction) error {
	ev.Terms = slices.Clone(ev.Terms)
	m.mu.Lock()
	m.interactions[userID] = append(m.interactions[userID], ev)
	m.mu.Unlock()
	return nil
}

func (m *Memory) GetInteractions(_ context.Context, userID string) (models.InteractionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	evs, ok := m.interactions[userID]
	if !ok {
		return models.InteractionRecord{}, models.NotFoundf("get_interactions", userID)
	}
	out := make([]models.Interaction, len(evs))
	for i, ev := range evs {
		ev.Terms = slices.Clone(ev.Terms)
		out[i] = ev
	}
	return models.InteractionRecord{UserID: userID, Interactions: out}, nil
}

var _ Backend = (*Memory)(nil)
