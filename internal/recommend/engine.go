// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package recommend

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shopranker/internal/cache"
	"github.com/tomtom215/shopranker/internal/config"
	"github.com/tomtom215/shopranker/internal/logging"
	"github.com/tomtom215/shopranker/internal/metrics"
	"github.com/tomtom215/shopranker/internal/models"
	"github.com/tomtom215/shopranker/internal/recommend/scoring"
	"github.com/tomtom215/shopranker/internal/store"
	"github.com/tomtom215/shopranker/internal/validation"
)

// Source is the read side of the store the engine ranks from.
// *store.Store satisfies it.
type Source interface {
	GetProduct(ctx context.Context, id string) (models.Product, error)
	ListProducts(ctx context.Context, filter store.ProductFilter) ([]models.Product, error)
	GetInteractions(ctx context.Context, userID string) (models.InteractionRecord, error)
}

// Response is one ranked surface. Items must be treated as read-only.
type Response struct {
	Surface  models.Surface
	Items    []models.ResultItem
	Degraded bool
	Strategy string
	Limit    int
	Cached   bool
}

// Engine serves every ranking surface. It is safe for concurrent use and
// holds no mutable state besides the optional result cache.
type Engine struct {
	source    Source
	fallback  *Table
	limits    config.LimitsConfig
	timeout   time.Duration
	weights   scoring.TrendingWeights
	penalties scoring.Penalties
	filter    *Filter
	cache     *cache.LRU[Response]
	logger    zerolog.Logger
}

// NewEngine builds an engine over source. A nil fallback uses DefaultTable.
// It fails when the candidate filter does not compile.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(source Source, fallback *Table, cfg *config.RankingConfig, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = &config.Defaults().Ranking
	}
	if fallback == nil {
		fallback = DefaultTable()
	}

	filter, err := NewFilter(cfg.CandidateFilter)
	if err != nil {
		return nil, err
	}

	limits := cfg.Limits
	if limits.Max <= 0 {
		limits = config.Defaults().Ranking.Limits
	}
	limits = clampLimits(limits)
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	e := &Engine{
		source:   source,
		fallback: fallback,
		limits:   limits,
		timeout:  timeout,
		weights: scoring.TrendingWeights{
			View:     cfg.Trending.ViewWeight,
			Purchase: cfg.Trending.PurchaseWeight,
			Recency:  cfg.Trending.RecencyWeight,
			HalfLife: cfg.Trending.HalfLife,
		},
		penalties: scoring.Penalties{
			Category: cfg.Personalization.CategoryPenalty,
			Price:    cfg.Personalization.PricePenalty,
			Brand:    cfg.Personalization.BrandPenalty,
		},
		filter: filter,
		logger: logger.With().Str("component", "recommend").Logger(),
	}
	if e.penalties == (scoring.Penalties{}) {
		e.penalties = scoring.DefaultPenalties()
	}
	if cfg.Cache.Enabled {
		e.cache = cache.NewLRU[Response](cfg.Cache.MaxEntries, cfg.Cache.TTL)
	}

	e.logger.Info().
		Str("candidate_filter", filter.String()).
		Bool("cache", e.cache != nil).
		Msg("Ranking engine ready")
	return e, nil
}

// Trending ranks active products by engagement, optionally within category.
func (e *Engine) Trending(ctx context.Context, category string, limit int) (Response, error) {
	return e.Rank(ctx, models.SurfaceRequest{Surface: models.SurfaceTrending, Category: category, Limit: limit})
}

// Suggested ranks by popularity, biased towards the user's profile when one
// exists. An empty userID is an anonymous shopper.
func (e *Engine) Suggested(ctx context.Context, userID string, limit int) (Response, error) {
	return e.Rank(ctx, models.SurfaceRequest{Surface: models.SurfaceSuggested, SubjectID: userID, Limit: limit})
}

// Similar ranks products sharing a category, subcategory or brand with
// productID. An unknown product is models.ErrNotFound.
func (e *Engine) Similar(ctx context.Context, productID string, limit int) (Response, error) {
	return e.Rank(ctx, models.SurfaceRequest{Surface: models.SurfaceSimilar, SubjectID: productID, Limit: limit})
}

// Recent ranks the newest active products. userID is accepted for API
// symmetry and does not affect the order.
func (e *Engine) Recent(ctx context.Context, userID string, limit int) (Response, error) {
	return e.Rank(ctx, models.SurfaceRequest{Surface: models.SurfaceRecent, SubjectID: userID, Limit: limit})
}

// Category ranks the popular products of one category.
func (e *Engine) Category(ctx context.Context, category string, limit int) (Response, error) {
	return e.Rank(ctx, models.SurfaceRequest{Surface: models.SurfaceCategory, Category: category, Limit: limit})
}

// Rank validates req and dispatches it to its selector. Storage outages never
// surface as errors: the fallback table is served with Degraded set.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Rank(ctx context.Context, req models.SurfaceRequest) (Response, error) {
	start := time.Now()

	req, err := e.prepare(req)
	if err != nil {
		surface := req.Surface
		if !surface.Valid() {
			surface = "unknown"
		}
		metrics.RecordRankingError(surface, err)
		return Response{}, err
	}
	logger := e.logger.With().
		Str("request_id", logging.RequestIDFromContext(ctx)).
		Str("surface", string(req.Surface)).
		Logger()

	key := req.CacheKey()
	if resp, ok := e.cached(key); ok {
		metrics.RecordRanking(req.Surface, "cache_hit", len(resp.Items), time.Since(start))
		logger.Debug().Msg("Ranking served from cache")
		return resp, nil
	}

	rankCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var resp Response
	switch req.Surface {
	case models.SurfaceTrending:
		resp, err = e.rankTrending(rankCtx, req)
	case models.SurfaceSuggested:
		resp, err = e.rankSuggested(rankCtx, req)
	case models.SurfaceSimilar:
		resp, err = e.rankSimilar(rankCtx, req)
	case models.SurfaceRecent:
		resp, err = e.rankRecent(rankCtx, req)
	case models.SurfaceCategory:
		resp, err = e.rankCategory(rankCtx, req)
	}
	if err == nil && ctx.Err() != nil {
		// The caller is gone; a fallback built from its cancellation is noise.
		err = ctx.Err()
	}
	if err != nil {
		metrics.RecordRankingError(req.Surface, err)
		return Response{}, err
	}

	outcome := "ok"
	if resp.Degraded {
		outcome = "degraded"
	} else if e.cache != nil {
		e.cache.Add(key, resp)
	}
	metrics.RecordRanking(req.Surface, outcome, len(resp.Items), time.Since(start))
	logger.Debug().
		Int("items", len(resp.Items)).
		Bool("degraded", resp.Degraded).
		Dur("took", time.Since(start)).
		Msg("Ranking complete")
	return resp, nil
}

// prepare validates req and resolves its limit.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepare(req models.SurfaceRequest) (models.SurfaceRequest, error) {
	req.SubjectID = strings.TrimSpace(req.SubjectID)
	req.Category = strings.TrimSpace(req.Category)

	if verr := validation.ValidateStruct(&req); verr != nil {
		return req, verr
	}

	switch req.Surface {
	case models.SurfaceSimilar:
		if req.SubjectID == "" {
			return req, models.Invalidf("rank similar", "product id is required")
		}
	case models.SurfaceCategory:
		if req.Category == "" {
			return req, models.Invalidf("rank category", "category is required")
		}
	}

	limit, err := e.ResolveLimit(req.Surface, req.Limit)
	if err != nil {
		return req, err
	}
	req.Limit = limit
	return req, nil
}

// ResolveLimit applies the surface default to a zero limit and rejects
// anything outside 1..max.
func (e *Engine) ResolveLimit(surface models.Surface, limit int) (int, error) {
	if limit == 0 {
		return e.defaultLimit(surface), nil
	}
	if limit < 1 || limit > e.limits.Max {
		return 0, models.Invalidf("resolve limit", "limit must be between 1 and %d, got %d", e.limits.Max, limit)
	}
	return limit, nil
}

// clampLimits caps Max at config.MaxLimit and every surface default at Max.
func clampLimits(l config.LimitsConfig) config.LimitsConfig {
	l.Max = min(l.Max, config.MaxLimit)
	for _, v := range []*int{&l.Trending, &l.Suggested, &l.Similar, &l.Recent, &l.Category} {
		*v = max(1, min(*v, l.Max))
	}
	return l
}

func (e *Engine) defaultLimit(surface models.Surface) int {
	switch surface {
	case models.SurfaceTrending:
		return e.limits.Trending
	case models.SurfaceSuggested:
		return e.limits.Suggested
	case models.SurfaceSimilar:
		return e.limits.Similar
	case models.SurfaceRecent:
		return e.limits.Recent
	default:
		return e.limits.Category
	}
}

// SweepCache drops expired cached responses.
func (e *Engine) SweepCache(context.Context) error {
	if e.cache == nil {
		return nil
	}
	if n := e.cache.CleanupExpired(); n > 0 {
		e.logger.Debug().Int("expired", n).Msg("Swept ranking cache")
	}
	return nil
}

func (e *Engine) cached(key string) (Response, bool) {
	if e.cache == nil {
		return Response{}, false
	}
	resp, ok := e.cache.Get(key)
	if !ok {
		return Response{}, false
	}
	resp.Items = slices.Clone(resp.Items)
	resp.Cached = true
	return resp, true
}

// respond truncates scored candidates to the limit and attaches reasons and
// ranks.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) respond(req models.SurfaceRequest, scored []scoring.Scored, reason, strategy string, degraded bool) Response {
	if len(scored) > req.Limit {
		scored = scored[:req.Limit]
	}
	items := make([]models.ResultItem, len(scored))
	for i, s := range scored {
		items[i] = models.ResultItem{
			Product: s.Product,
			Score:   s.Score,
			Reason:  reason,
			Rank:    i + 1,
		}
		if req.Surface == models.SurfaceTrending {
			d := scoring.Engagement(s.Product.Analytics)
			items[i].Trending = &d
		}
	}
	return Response{
		Surface:  req.Surface,
		Items:    items,
		Degraded: degraded,
		Strategy: strategy,
		Limit:    req.Limit,
	}
}
