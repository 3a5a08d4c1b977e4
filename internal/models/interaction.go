// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package models

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// InteractionType is the kind of tracked event.
type InteractionType string

const (
	InteractionView     InteractionType = "view"
	InteractionSearch   InteractionType = "search"
	InteractionPurchase InteractionType = "purchase"
)

// Interaction is one tracked event in a user's history.
type Interaction struct {
	Type           InteractionType `json:"type"`
	ProductID      string          `json:"productId,omitempty"`
	Category       string          `json:"category,omitempty"`
	Brand          string          `json:"brand,omitempty"`
	Price          float64         `json:"price,omitempty"`
	Query          string          `json:"query,omitempty"`
	Terms          []string        `json:"terms,omitempty"` // stemmed query terms
	Duration       float64         `json:"duration,omitempty"`
	ResultsClicked int             `json:"resultsClicked,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

// InteractionRecord is a user's ordered event history, oldest first.
type InteractionRecord struct {
	UserID       string        `json:"userId"`
	Interactions []Interaction `json:"interactions"`
}

// PriceRange is an inclusive price band. The zero value means "no preference".
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// IsZero reports whether no band is known.
func (r PriceRange) IsZero() bool { return r.Min == 0 && r.Max == 0 }

// Contains reports whether price lies inside the band.
func (r PriceRange) Contains(price float64) bool {
	return price >= r.Min && price <= r.Max
}

// Profile is the preference summary derived from an InteractionRecord.
type Profile struct {
	PreferredCategories []string   `json:"preferredCategories"`
	PriceRange          PriceRange `json:"priceRange"`
	BrandPreferences    []string   `json:"brandPreferences"`
	SearchTerms         []string   `json:"searchTerms"`
}

// IsEmpty reports whether the profile carries nothing to personalize on.
func (p Profile) IsEmpty() bool {
	return len(p.PreferredCategories) == 0 && p.PriceRange.IsZero() && len(p.BrandPreferences) == 0
}

const (
	maxPreferredCategories = 3
	maxPreferredBrands     = 3
	maxSearchTerms         = 10
)

// priceBandSlack widens the observed price band on both sides.
var priceBandSlack = decimal.NewFromFloat(0.2)

// interactionWeight is how much one event of each type counts toward a preference.
func interactionWeight(t InteractionType) int {
	if t == InteractionPurchase {
		return 3
	}
	return 1
}

// Profile derives preferences from the record. The result depends only on the
// record contents, never on the clock.
func (r InteractionRecord) Profile() Profile {
	categories := make(map[string]int)
	brands := make(map[string]int)
	terms := make(map[string]int)
	var purchased, viewed []float64

	for _, ev := range r.Interactions {
		w := interactionWeight(ev.Type)
		if ev.Category != "" {
			categories[ev.Category] += w
		}
		if ev.Brand != "" {
			brands[ev.Brand] += w
		}
		for _, term := range ev.Terms {
			terms[term]++
		}
		if ev.Price > 0 {
			switch ev.Type {
			case InteractionPurchase:
				purchased = append(purchased, ev.Price)
			case InteractionView:
				viewed = append(viewed, ev.Price)
			}
		}
	}

	prices := purchased
	if len(prices) == 0 {
		prices = viewed
	}

	return Profile{
		PreferredCategories: topKeys(categories, maxPreferredCategories),
		PriceRange:          priceBand(prices),
		BrandPreferences:    topKeys(brands, maxPreferredBrands),
		SearchTerms:         topKeys(terms, maxSearchTerms),
	}
}

// priceBand returns [min*(1-slack), max*(1+slack)] rounded to cents.
func priceBand(prices []float64) PriceRange {
	if len(prices) == 0 {
		return PriceRange{}
	}
	lo := decimal.NewFromFloat(prices[0])
	hi := lo
	for _, p := range prices[1:] {
		d := decimal.NewFromFloat(p)
		lo = decimal.Min(lo, d)
		hi = decimal.Max(hi, d)
	}
	one := decimal.NewFromInt(1)
	lo = lo.Mul(one.Sub(priceBandSlack)).Round(2)
	hi = hi.Mul(one.Add(priceBandSlack)).Round(2)
	return PriceRange{Min: lo.InexactFloat64(), Max: hi.InexactFloat64()}
}

// topKeys returns up to n keys by count desc, then key asc.
func topKeys(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
