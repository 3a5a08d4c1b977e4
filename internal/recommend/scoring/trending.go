// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package scoring

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/tomtom215/shopranker/internal/models"
)

// TrendingWeights blends views, purchases and recency into the trending score.
type TrendingWeights struct {
	View     float64
	Purchase float64
	Recency  float64
	HalfLife time.Duration
}

// DefaultTrendingWeights returns 0.5/0.3/0.2 with a seven day half-life.
func DefaultTrendingWeights() TrendingWeights {
	return TrendingWeights{View: 0.5, Purchase: 0.3, Recency: 0.2, HalfLife: 7 * 24 * time.Hour}
}

// normalized scales the weights to sum to 1. All-zero weights fall back to
// the defaults.
func (w TrendingWeights) normalized() TrendingWeights {
	sum := w.View + w.Purchase + w.Recency
	if sum <= 0 {
		d := DefaultTrendingWeights()
		d.HalfLife = w.HalfLife
		return d.normalized()
	}
	if w.HalfLife <= 0 {
		w.HalfLife = DefaultTrendingWeights().HalfLife
	}
	return TrendingWeights{
		View:     w.View / sum,
		Purchase: w.Purchase / sum,
		Recency:  w.Recency / sum,
		HalfLife: w.HalfLife,
	}
}

var trendingOrder = chain(
	func(a, b *models.Product) int { return cmp.Compare(b.Analytics.Views, a.Analytics.Views) },
	func(a, b *models.Product) int { return cmp.Compare(b.Analytics.Purchases, a.Analytics.Purchases) },
	byCreatedDesc,
	byID,
)

// TrendingScores orders products by views, then purchases, then recency, and
// scores them with the blended weights. The order is the counter order, not
// the score order.
func TrendingScores(products []models.Product, w TrendingWeights) []Scored {
	w = w.normalized()
	maxViews := maxCounter(products, models.CounterViews)
	maxPurchases := maxCounter(products, models.CounterPurchases)
	ref := newest(products)

	out := make([]Scored, len(products))
	for i, p := range products {
		age := ref.Sub(p.CreatedAt)
		recency := math.Pow(0.5, float64(age)/float64(w.HalfLife))
		score := w.View*ratio(float64(p.Analytics.Views), maxViews) +
			w.Purchase*ratio(float64(p.Analytics.Purchases), maxPurchases) +
			w.Recency*recency
		out[i] = Scored{Product: p, Score: clamp01(score)}
	}
	slices.SortStableFunc(out, trendingOrder)
	return out
}

// Engagement reports the deterministic trending detail for a product.
// EngagementRate is (likes+shares+purchases)/views as a percentage, rounded
// to one decimal, and 0 without views.
func Engagement(c models.Counters) models.TrendingDetail {
	d := models.TrendingDetail{
		ViewCount:     c.Views,
		PurchaseCount: c.Purchases,
		ShareCount:    c.Shares,
	}
	if c.Views > 0 {
		d.EngagementRate = round(float64(c.Likes+c.Shares+c.Purchases)/float64(c.Views)*100, 1)
	}
	return d
}
