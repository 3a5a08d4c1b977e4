// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package scoring

import (
	"cmp"
	"slices"

	"github.com/tomtom215/shopranker/internal/models"
)

// Strategy selects how Suggested scores candidates. It is either
// Unpersonalized or Personalized.
type Strategy interface {
	Name() string
	Reason() string
	isStrategy()
}

// Unpersonalized ranks by rating and popularity alone.
type Unpersonalized struct{}

func (Unpersonalized) Name() string { return "unpersonalized" }
func (Unpersonalized) Reason() string { return ReasonPopular }
func (Unpersonalized) isStrategy() {}

// Penalties are multiplicative factors applied when a candidate misses part
// of the user's profile. One means no penalty.
type Penalties struct {
	Category float64
	Price    float64
	Brand    float64
}

// DefaultPenalties returns 0.5 for category and price and 0.9 for brand.
func DefaultPenalties() Penalties {
	return Penalties{Category: 0.5, Price: 0.5, Brand: 0.9}
}

// Personalized biases the baseline score towards the user's profile. Nothing
// is excluded; misses only lower the score.
type Personalized struct {
	Profile   models.Profile
	Penalties Penalties
}

func (Personalized) Name() string { return "personalized" }
func (Personalized) Reason() string { return ReasonPersonalized }
func (Personalized) isStrategy() {}

// factor returns the product of the penalties p incurs.
func (s Personalized) factor(p *models.Product) float64 {
	f := 1.0
	if len(s.Profile.PreferredCategories) > 0 && !slices.Contains(s.Profile.PreferredCategories, p.Category) {
		f *= s.Penalties.Category
	}
	if !s.Profile.PriceRange.IsZero() && !s.Profile.PriceRange.Contains(p.Price) {
		f *= s.Penalties.Price
	}
	if len(s.Profile.BrandPreferences) > 0 && !slices.Contains(s.Profile.BrandPreferences, p.Brand) {
		f *= s.Penalties.Brand
	}
	return f
}

var baselineOrder = chain(
	func(a, b *models.Product) int { return cmp.Compare(b.Rating.Average, a.Rating.Average) },
	func(a, b *models.Product) int { return cmp.Compare(b.Analytics.Views, a.Analytics.Views) },
	byCreatedDesc,
	byID,
)

// Suggested scores products with 0.6*rating/5 + 0.4*views/maxViews and orders
// them by rating, views, recency and id. Personalized scales each score by
// its penalties and orders by score first.
func Suggested(products []models.Product, strategy Strategy) []Scored {
	maxViews := maxCounter(products, models.CounterViews)
	out := make([]Scored, len(products))
	for i, p := range products {
		out[i] = Scored{Product: p, Score: baselineScore(&p, maxViews)}
	}

	personal, ok := strategy.(Personalized)
	if !ok {
		slices.SortStableFunc(out, baselineOrder)
		return out
	}

	for i := range out {
		out[i].Score = clamp01(out[i].Score * personal.factor(&out[i].Product))
	}
	slices.SortStableFunc(out, func(a, b Scored) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return baselineOrder(a, b)
	})
	return out
}

func baselineScore(p *models.Product, maxViews float64) float64 {
	return clamp01(0.6*clamp01(p.Rating.Average/5) + 0.4*ratio(float64(p.Analytics.Views), maxViews))
}

// Category is Suggested-Unpersonalized restricted to one category.
func Category(products []models.Product, category string) []Scored {
	in := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.Category == category {
			in = append(in, p)
		}
	}
	return Suggested(in, Unpersonalized{})
}
