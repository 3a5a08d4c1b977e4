// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package recommend

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/shopranker/internal/metrics"
	"github.com/tomtom215/shopranker/internal/models"
	"github.com/tomtom215/shopranker/internal/recommend/scoring"
	"github.com/tomtom215/shopranker/internal/store"
)

// load lists active candidates and applies the eligibility filter.
func (e *Engine) load(ctx context.Context, category string) ([]models.Product, error) {
	products, err := e.source.ListProducts(ctx, store.ProductFilter{Category: category, ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	return e.eligible(products), nil
}

// eligible drops inactive products and those the candidate filter rejects.
// A filter that fails to evaluate keeps the product.
func (e *Engine) eligible(products []models.Product) []models.Product {
	out := products[:0:0]
	for i := range products {
		p := &products[i]
		if !p.IsActive {
			continue
		}
		keep, err := e.filter.Eval(p)
		if err != nil {
			metrics.CandidateFilterErrors.Inc()
			e.logger.Warn().Err(err).Str("product_id", p.ID).Msg("Candidate filter failed, keeping product")
			keep = true
		}
		if keep {
			out = append(out, *p)
		}
	}
	return out
}

// fallbackOn turns a storage outage into the fallback pool for req. Any other
// error is returned unchanged.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) fallbackOn(req models.SurfaceRequest, err error) ([]models.Product, error) {
	if !models.IsUnavailable(err) {
		return nil, err
	}
	e.logger.Warn().Err(err).Str("surface", string(req.Surface)).Msg("Storage unavailable, serving fallback candidates")
	return e.fallbackPool(req), nil
}

// fallbackPool returns the eligible fallback candidates for req. Category
// narrowing falls back to the whole pool when nothing matches, and similar
// never returns its subject.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) fallbackPool(req models.SurfaceRequest) []models.Product {
	pool := e.eligible(e.fallback.Pool(req.Surface))

	if req.Surface == models.SurfaceSimilar {
		kept := pool[:0]
		for _, p := range pool {
			if p.ID != req.SubjectID {
				kept = append(kept, p)
			}
		}
		pool = kept
	}

	if req.Category != "" {
		var inCategory []models.Product
		for _, p := range pool {
			if p.Category == req.Category {
				inCategory = append(inCategory, p)
			}
		}
		if len(inCategory) > 0 {
			pool = inCategory
		}
	}
	return pool
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) rankTrending(ctx context.Context, req models.SurfaceRequest) (Response, error) {
	products, err := e.load(ctx, req.Category)
	degraded := err != nil
	if err != nil {
		if products, err = e.fallbackOn(req, err); err != nil {
			return Response{}, err
		}
	}
	scored := scoring.TrendingScores(products, e.weights)
	return e.respond(req, scored, scoring.ReasonTrending, "", degraded), nil
}

// rankSuggested loads the candidates and the user's record concurrently. A
// missing or unreadable record falls back to the unpersonalized strategy
// without flagging the response.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) rankSuggested(ctx context.Context, req models.SurfaceRequest) (Response, error) {
	var (
		products []models.Product
		record   models.InteractionRecord
		haveRec  bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = e.load(gctx, "")
		return err
	})
	if req.SubjectID != "" {
		g.Go(func() error {
			rec, err := e.source.GetInteractions(gctx, req.SubjectID)
			switch {
			case err == nil:
				record, haveRec = rec, true
			case !models.IsNotFound(err):
				e.logger.Debug().Err(err).Str("user_id", req.SubjectID).Msg("Interaction record unavailable, not personalizing")
			}
			return nil
		})
	}

	err := g.Wait()
	degraded := err != nil
	if err != nil {
		if products, err = e.fallbackOn(req, err); err != nil {
			return Response{}, err
		}
	}

	var strategy scoring.Strategy = scoring.Unpersonalized{}
	if haveRec {
		if profile := record.Profile(); !profile.IsEmpty() {
			strategy = scoring.Personalized{Profile: profile, Penalties: e.penalties}
		}
	}
	scored := scoring.Suggested(products, strategy)
	return e.respond(req, scored, strategy.Reason(), strategy.Name(), degraded), nil
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) rankSimilar(ctx context.Context, req models.SurfaceRequest) (Response, error) {
	subject, err := e.source.GetProduct(ctx, req.SubjectID)
	if err != nil {
		pool, rerr := e.fallbackOn(req, err)
		if rerr != nil {
			return Response{}, rerr
		}
		return e.respond(req, scoring.RankSimilar(pool), scoring.ReasonSimilar, "", true), nil
	}

	products, err := e.load(ctx, "")
	if err != nil {
		pool, rerr := e.fallbackOn(req, err)
		if rerr != nil {
			return Response{}, rerr
		}
		var similar []models.Product
		for i := range pool {
			if scoring.IsSimilar(&subject, &pool[i]) {
				similar = append(similar, pool[i])
			}
		}
		if len(similar) > 0 {
			pool = similar
		}
		return e.respond(req, scoring.RankSimilar(pool), scoring.ReasonSimilar, "", true), nil
	}

	return e.respond(req, scoring.Similar(subject, products), scoring.ReasonSimilar, "", false), nil
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) rankRecent(ctx context.Context, req models.SurfaceRequest) (Response, error) {
	products, err := e.load(ctx, "")
	degraded := err != nil
	if err != nil {
		if products, err = e.fallbackOn(req, err); err != nil {
			return Response{}, err
		}
	}
	return e.respond(req, scoring.Recent(products), scoring.ReasonRecent, "", degraded), nil
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) rankCategory(ctx context.Context, req models.SurfaceRequest) (Response, error) {
	reason := scoring.CategoryReason(req.Category)

	products, err := e.load(ctx, req.Category)
	if err != nil {
		pool, rerr := e.fallbackOn(req, err)
		if rerr != nil {
			return Response{}, rerr
		}
		// The pool may hold other categories when none match; those are
		// labelled as generally popular, not popular in the category.
		resp := e.respond(req, scoring.Suggested(pool, scoring.Unpersonalized{}), reason, "", true)
		for i := range resp.Items {
			if resp.Items[i].Product.Category != req.Category {
				resp.Items[i].Reason = scoring.ReasonPopular
			}
		}
		return resp, nil
	}
	return e.respond(req, scoring.Category(products, req.Category), reason, "", false), nil
}
