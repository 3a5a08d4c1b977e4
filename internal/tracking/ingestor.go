// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

// Package tracking ingests storefront view, search and purchase events.
//
// Each event is validated, applied to the product counters, appended to the
// user's interaction record when a user is known, and published to the event
// bus. Tracking never fails the caller: every operation returns an Outcome
// whose Recorded flag says whether the counters and history were updated.
package tracking

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shopranker/internal/events"
	"github.com/tomtom215/shopranker/internal/logging"
	"github.com/tomtom215/shopranker/internal/metrics"
	"github.com/tomtom215/shopranker/internal/models"
	"github.com/tomtom215/shopranker/internal/validation"
)

// Store is the storage the ingestor writes to. *store.Store satisfies it.
type Store interface {
	IncrementView(ctx context.Context, id string) (models.Counters, error)
	IncrementPurchase(ctx context.Context, id string) (models.Counters, error)
	GetProduct(ctx context.Context, id string) (models.Product, error)
	RecordInteraction(ctx context.Context, userID string, ev models.Interaction) error
}

// ViewEvent is a product page view.
type ViewEvent struct {
	UserID    string  `json:"userId,omitempty" validate:"omitempty,max=128"`
	ProductID string  `json:"productId" validate:"required,notblank,max=128"`
	Category  string  `json:"category,omitempty" validate:"omitempty,max=64"`
	Duration  float64 `json:"duration,omitempty" validate:"gte=0"` // seconds on page
}

// SearchEvent is a catalog search.
type SearchEvent struct {
	UserID         string `json:"userId,omitempty" validate:"omitempty,max=128"`
	Query          string `json:"query" validate:"required,notblank,max=256"`
	Category       string `json:"category,omitempty" validate:"omitempty,max=64"`
	ResultsClicked int    `json:"resultsClicked,omitempty" validate:"gte=0"`
}

// PurchaseEvent is a completed purchase of one product.
type PurchaseEvent struct {
	UserID    string  `json:"userId,omitempty" validate:"omitempty,max=128"`
	ProductID string  `json:"productId" validate:"required,notblank,max=128"`
	Category  string  `json:"category,omitempty" validate:"omitempty,max=64"`
	Price     float64 `json:"price,omitempty" validate:"gte=0"`
}

// Outcome reports what happened to a tracked event.
type Outcome struct {
	Recorded bool   `json:"recorded"`
	Message  string `json:"message"`
}

// kind names an event type in messages, metrics and logs.
type kind struct {
	label string // metrics and logs
	title string // user-facing messages
}

var (
	kindView     = kind{"view", "View"}
	kindSearch   = kind{"search", "Search"}
	kindPurchase = kind{"purchase", "Purchase"}
)

func (k kind) success() Outcome { return Outcome{Recorded: true, Message: k.title + " tracked successfully"} }
func (k kind) received() Outcome { return Outcome{Message: k.title + " received"} }

// Ingestor applies tracking events.
type Ingestor struct {
	store     Store
	publisher events.Publisher
	now       func() time.Time
	logger    zerolog.Logger
}

// NewIngestor creates an ingestor. A nil publisher discards events.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewIngestor(st Store, pub events.Publisher, logger zerolog.Logger) *Ingestor {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Ingestor{
		store:     st,
		publisher: pub,
		now:       time.Now,
		logger:    logger.With().Str("component", "tracking").Logger(),
	}
}

// WithClock replaces the time source used for interaction timestamps.
func (i *Ingestor) WithClock(now func() time.Time) *Ingestor {
	i.now = now
	return i
}

// TrackView counts a view and appends it to the user's history.
//
//nolint:gocritic // hugeParam: ev passed by value for immutability
func (i *Ingestor) TrackView(ctx context.Context, ev ViewEvent) Outcome {
	ev.UserID = strings.TrimSpace(ev.UserID)
	ev.ProductID = strings.TrimSpace(ev.ProductID)
	ev.Category = strings.TrimSpace(ev.Category)
	if err := validation.Validate(&ev); err != nil {
		return i.fail(ctx, kindView, err)
	}
	if _, err := i.store.IncrementView(ctx, ev.ProductID); err != nil {
		return i.fail(ctx, kindView, err)
	}
	return i.finish(ctx, kindView, ev.UserID, models.Interaction{
		Type:      models.InteractionView,
		ProductID: ev.ProductID,
		Category:  ev.Category,
		Duration:  ev.Duration,
	})
}

// TrackSearch stems the query into terms for the user's profile. Searches
// touch no product counters.
//
//nolint:gocritic // hugeParam: ev passed by value for immutability
func (i *Ingestor) TrackSearch(ctx context.Context, ev SearchEvent) Outcome {
	ev.UserID = strings.TrimSpace(ev.UserID)
	ev.Query = strings.TrimSpace(ev.Query)
	ev.Category = strings.TrimSpace(ev.Category)
	if err := validation.Validate(&ev); err != nil {
		return i.fail(ctx, kindSearch, err)
	}
	return i.finish(ctx, kindSearch, ev.UserID, models.Interaction{
		Type:           models.InteractionSearch,
		Query:          ev.Query,
		Terms:          Terms(ev.Query),
		Category:       ev.Category,
		ResultsClicked: ev.ResultsClicked,
	})
}

// TrackPurchase counts a purchase and appends it to the user's history.
//
//nolint:gocritic // hugeParam: ev passed by value for immutability
func (i *Ingestor) TrackPurchase(ctx context.Context, ev PurchaseEvent) Outcome {
	ev.UserID = strings.TrimSpace(ev.UserID)
	ev.ProductID = strings.TrimSpace(ev.ProductID)
	ev.Category = strings.TrimSpace(ev.Category)
	if err := validation.Validate(&ev); err != nil {
		return i.fail(ctx, kindPurchase, err)
	}
	if _, err := i.store.IncrementPurchase(ctx, ev.ProductID); err != nil {
		return i.fail(ctx, kindPurchase, err)
	}
	return i.finish(ctx, kindPurchase, ev.UserID, models.Interaction{
		Type:      models.InteractionPurchase,
		ProductID: ev.ProductID,
		Category:  ev.Category,
		Price:     ev.Price,
	})
}

// finish runs after the counter mutation: history append, then publish.
// A publish failure is logged and counted but does not undo Recorded.
func (i *Ingestor) finish(ctx context.Context, k kind, userID string, in models.Interaction) Outcome {
	in.Timestamp = i.now().UTC()

	if userID != "" {
		i.fillFromProduct(ctx, &in)
		if err := i.store.RecordInteraction(ctx, userID, in); err != nil {
			return i.fail(ctx, k, err)
		}
	}

	e := events.NewEvent(in.Type, in.Timestamp)
	e.UserID = userID
	e.ProductID = in.ProductID
	e.Category = in.Category
	e.Query = in.Query
	e.Terms = in.Terms
	e.Price = in.Price
	e.Duration = in.Duration
	e.ResultsClicked = in.ResultsClicked
	if err := i.publisher.Publish(ctx, e); err != nil {
		metrics.RecordTrackingFailure(k.label, err)
		i.log(ctx).Warn().Err(err).Str("event", k.label).Msg("failed to publish tracking event")
	}

	metrics.RecordTrackingEvent(k.label, true)
	return k.success()
}

// fillFromProduct copies category, brand and price from the catalog when the
// event did not carry them. Lookup failures leave the interaction as is.
func (i *Ingestor) fillFromProduct(ctx context.Context, in *models.Interaction) {
	if in.ProductID == "" {
		return
	}
	if in.Category != "" && in.Brand != "" && in.Price > 0 {
		return
	}
	p, err := i.store.GetProduct(ctx, in.ProductID)
	if err != nil {
		i.log(ctx).Debug().Err(err).Str("product_id", in.ProductID).Msg("product lookup for interaction failed")
		return
	}
	if in.Category == "" {
		in.Category = p.Category
	}
	if in.Brand == "" {
		in.Brand = p.Brand
	}
	if in.Price <= 0 {
		in.Price = p.Price
	}
}

func (i *Ingestor) fail(ctx context.Context, k kind, err error) Outcome {
	metrics.RecordTrackingFailure(k.label, err)
	metrics.RecordTrackingEvent(k.label, false)
	i.log(ctx).Warn().
		Err(err).
		Str("event", k.label).
		Str("kind", metrics.ErrorKind(err)).
		Msg("tracking event not recorded")
	return k.received()
}

func (i *Ingestor) log(ctx context.Context) *zerolog.Logger {
	l := i.logger
	if id := logging.RequestIDFromContext(ctx); id != "" {
		l = l.With().Str("request_id", id).Logger()
	}
	return &l
}
