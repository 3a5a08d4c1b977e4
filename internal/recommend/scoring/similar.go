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

// IsSimilar reports whether p shares a category, subcategory or brand with
// subject. A product is never similar to itself.
func IsSimilar(subject, p *models.Product) bool {
	if p.ID == subject.ID {
		return false
	}
	return (subject.Category != "" && p.Category == subject.Category) ||
		(subject.Subcategory != "" && p.Subcategory == subject.Subcategory) ||
		(subject.Brand != "" && p.Brand == subject.Brand)
}

var similarOrder = chain(
	func(a, b *models.Product) int { return cmp.Compare(b.Rating.Average, a.Rating.Average) },
	byCreatedDesc,
	byID,
)

// Similar keeps the products similar to subject, ordered by rating, recency
// and id, and scored rating/5. Matching on several attributes earns no boost.
func Similar(subject models.Product, products []models.Product) []Scored {
	in := make([]models.Product, 0, len(products))
	for _, p := range products {
		if IsSimilar(&subject, &p) {
			in = append(in, p)
		}
	}
	return RankSimilar(in)
}

// RankSimilar scores and orders products already known to be similar.
func RankSimilar(products []models.Product) []Scored {
	out := make([]Scored, len(products))
	for i, p := range products {
		out[i] = Scored{Product: p, Score: SimilarScore(&p)}
	}
	slices.SortStableFunc(out, similarOrder)
	return out
}

// SimilarScore is the rating normalised to [0, 1].
func SimilarScore(p *models.Product) float64 {
	return clamp01(p.Rating.Average / 5)
}

var recentOrder = chain(byCreatedDesc, byID)

// Recent orders products newest first with strength 1/(1+0.1*position).
func Recent(products []models.Product) []Scored {
	out := make([]Scored, len(products))
	for i, p := range products {
		out[i] = Scored{Product: p}
	}
	slices.SortStableFunc(out, recentOrder)
	for i := range out {
		out[i].Score = RecentStrength(i)
	}
	return out
}

// RecentStrength is the score at a 0-based position on the recent surface.
func RecentStrength(position int) float64 {
	return 1 / (1 + 0.1*float64(position))
}
