// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/shopranker/internal/config"
	"github.com/tomtom215/shopranker/internal/models"
	"github.com/tomtom215/shopranker/internal/recommend"
	"github.com/tomtom215/shopranker/internal/tracking"
)

// Ranker serves ranked surfaces. *recommend.Engine satisfies it.
type Ranker interface {
	Rank(ctx context.Context, req models.SurfaceRequest) (recommend.Response, error)
}

// Tracker ingests tracking events. *tracking.Ingestor satisfies it.
type Tracker interface {
	TrackView(ctx context.Context, ev tracking.ViewEvent) tracking.Outcome
	TrackSearch(ctx context.Context, ev tracking.SearchEvent) tracking.Outcome
	TrackPurchase(ctx context.Context, ev tracking.PurchaseEvent) tracking.Outcome
}

// Storage is what the analytics and readiness endpoints read. *store.Store
// satisfies it.
type Storage interface {
	GetInteractions(ctx context.Context, userID string) (models.InteractionRecord, error)
	Ping(ctx context.Context) error
	Backend() string
	BreakerState() string
}

// UserIDHeader identifies the shopper when the query or body does not.
const UserIDHeader = "X-User-ID"

// Handler holds the HTTP handlers.
type Handler struct {
	ranker         Ranker
	tracker        Tracker
	storage        Storage
	requestTimeout time.Duration
	startTime      time.Time
	now            func() time.Time
}

// NewHandler wires the handlers to their dependencies.
func NewHandler(ranker Ranker, tracker Tracker, storage Storage, cfg *config.ServerConfig) *Handler {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Handler{
		ranker:         ranker,
		tracker:        tracker,
		storage:        storage,
		requestTimeout: timeout,
		startTime:      time.Now(),
		now:            time.Now,
	}
}

func (h *Handler) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.requestTimeout)
}

// userID prefers an explicit value, then the X-User-ID header.
func userID(r *http.Request, explicit string) string {
	if id := strings.TrimSpace(explicit); id != "" {
		return id
	}
	return strings.TrimSpace(r.Header.Get(UserIDHeader))
}

// pathParam returns the decoded chi URL parameter. chi matches against the
// raw path when one exists, leaving escapes in place.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}
