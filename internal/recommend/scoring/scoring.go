// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

// Package scoring holds the pure ranking functions behind each surface.
//
// Every function is deterministic: no clock, no randomness, and every
// ordering ends with product id ascending, so the output never depends on the
// order candidates arrived in. Recency is measured against the newest
// candidate rather than the wall clock for the same reason.
//
// Scores are in [0, 1].
package scoring

import (
	"cmp"
	"math"
	"time"

	"github.com/tomtom215/shopranker/internal/models"
)

// Reasons attached to ranked items.
const (
	ReasonTrending     = "Popular this week"
	ReasonPersonalized = "Based on your preferences"
	ReasonPopular      = "Popular choice"
	ReasonSimilar      = "Similar to your viewed item"
	ReasonRecent       = "Recently viewed"
)

// CategoryReason is the reason for items on the category surface.
func CategoryReason(category string) string {
	return "Popular in " + category
}

// Scored is a product with its score, in ranked order.
type Scored struct {
	Product models.Product
	Score   float64
}

// ratio returns n/top, or 0 when top is not positive.
func ratio(n, top float64) float64 {
	if top <= 0 {
		return 0
	}
	return n / top
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// byCreatedDesc orders newer products first.
func byCreatedDesc(a, b *models.Product) int {
	return b.CreatedAt.Compare(a.CreatedAt)
}

// byID is the final tie-break of every ordering.
func byID(a, b *models.Product) int {
	return cmp.Compare(a.ID, b.ID)
}

// chain combines comparators; the first non-zero result wins.
func chain(cmps ...func(a, b *models.Product) int) func(a, b Scored) int {
	return func(a, b Scored) int {
		for _, c := range cmps {
			if r := c(&a.Product, &b.Product); r != 0 {
				return r
			}
		}
		return 0
	}
}

func maxCounter(products []models.Product, kind models.CounterKind) float64 {
	var m int64
	for i := range products {
		m = max(m, products[i].Analytics.Get(kind))
	}
	return float64(m)
}

func newest(products []models.Product) time.Time {
	var t time.Time
	for i := range products {
		if products[i].CreatedAt.After(t) {
			t = products[i].CreatedAt
		}
	}
	return t
}
