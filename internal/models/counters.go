// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package models

import "fmt"

// Counters holds a product's engagement counters. Values only ever grow.
type Counters struct {
	Views     int64 `json:"views" yaml:"views"`
	Likes     int64 `json:"likes" yaml:"likes"`
	Shares    int64 `json:"shares" yaml:"shares"`
	Purchases int64 `json:"purchases" yaml:"purchases"`
}

// CounterKind names one engagement counter.
type CounterKind string

const (
	CounterViews     CounterKind = "views"
	CounterLikes     CounterKind = "likes"
	CounterShares    CounterKind = "shares"
	CounterPurchases CounterKind = "purchases"
)

// CounterKinds lists every counter in storage order.
var CounterKinds = []CounterKind{CounterViews, CounterLikes, CounterShares, CounterPurchases}

// ParseCounterKind validates s as a counter name.
func ParseCounterKind(s string) (CounterKind, error) {
	for _, k := range CounterKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", NewError(ErrInvalidRequest, "parse counter", s, fmt.Errorf("unknown counter %q", s))
}

// Get returns the value of counter k.
func (c Counters) Get(k CounterKind) int64 {
	switch k {
	case CounterViews:
		return c.Views
	case CounterLikes:
		return c.Likes
	case CounterShares:
		return c.Shares
	case CounterPurchases:
		return c.Purchases
	}
	return 0
}

// Add returns a copy of c with delta applied to counter k.
func (c Counters) Add(k CounterKind, delta int64) Counters {
	switch k {
	case CounterViews:
		c.Views += delta
	case CounterLikes:
		c.Likes += delta
	case CounterShares:
		c.Shares += delta
	case CounterPurchases:
		c.Purchases += delta
	}
	return c
}
