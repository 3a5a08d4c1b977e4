// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package models

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestError_Kinds(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: connection refused")
	tests := []struct {
		name        string
		err         error
		notFound    bool
		unavailable bool
		invalid     bool
	}{
		{"not found", NotFoundf("get product", "p1"), true, false, false},
		{"unavailable", NewError(ErrStorageUnavailable, "increment views", "p1", cause), false, true, false},
		{"invalid", Invalidf("parse limit", "limit %d out of range", 99), false, false, true},
		{"validation", NewError(ErrValidationFailed, "track view", "", nil), false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsNotFound(tt.err); got != tt.notFound {
				t.Errorf("IsNotFound = %v, want %v", got, tt.notFound)
			}
			if got := IsUnavailable(tt.err); got != tt.unavailable {
				t.Errorf("IsUnavailable = %v, want %v", got, tt.unavailable)
			}
			if got := IsInvalid(tt.err); got != tt.invalid {
				t.Errorf("IsInvalid = %v, want %v", got, tt.invalid)
			}
		})
	}
}

func TestError_UnwrapsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := NewError(ErrStorageUnavailable, "get counters", "p9", cause)
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable with errors.Is")
	}
	msg := err.Error()
	if !strings.Contains(msg, "get counters p9") || !strings.Contains(msg, "boom") {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestCounters_AddGet(t *testing.T) {
	t.Parallel()

	var c Counters
	for _, k := range CounterKinds {
		c = c.Add(k, 2)
	}
	c = c.Add(CounterViews, 1)
	if c.Get(CounterViews) != 3 || c.Get(CounterPurchases) != 2 {
		t.Errorf("unexpected counters %+v", c)
	}
}

func TestParseCounterKind(t *testing.T) {
	t.Parallel()

	if k, err := ParseCounterKind("shares"); err != nil || k != CounterShares {
		t.Errorf("ParseCounterKind(shares) = %v, %v", k, err)
	}
	if _, err := ParseCounterKind("clicks"); !IsInvalid(err) {
		t.Errorf("expected invalid request, got %v", err)
	}
}

func TestInteractionRecord_Profile(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := InteractionRecord{
		UserID: "u1",
		Interactions: []Interaction{
			{Type: InteractionView, ProductID: "p1", Category: "men", Brand: "StyleCraft", Price: 1899, Timestamp: ts},
			{Type: InteractionView, ProductID: "p2", Category: "men", Brand: "StyleCraft", Price: 899, Timestamp: ts},
			{Type: InteractionPurchase, ProductID: "p3", Category: "women", Brand: "Ethnic Elegance", Price: 2499, Timestamp: ts},
			{Type: InteractionPurchase, ProductID: "p4", Category: "women", Price: 999, Timestamp: ts},
			{Type: InteractionSearch, Query: "summer dresses", Terms: []string{"summer", "dress"}, Category: "accessories", Timestamp: ts},
		},
	}

	p := rec.Profile()

	if want := []string{"women", "men", "accessories"}; !reflect.DeepEqual(p.PreferredCategories, want) {
		t.Errorf("PreferredCategories = %v, want %v", p.PreferredCategories, want)
	}
	if want := []string{"Ethnic Elegance", "StyleCraft"}; !reflect.DeepEqual(p.BrandPreferences, want) {
		t.Errorf("BrandPreferences = %v, want %v", p.BrandPreferences, want)
	}
	// purchases drive the band: [999*0.8, 2499*1.2]
	if p.PriceRange.Min != 799.2 || p.PriceRange.Max != 2998.8 {
		t.Errorf("PriceRange = %+v", p.PriceRange)
	}
	if want := []string{"dress", "summer"}; !reflect.DeepEqual(p.SearchTerms, want) {
		t.Errorf("SearchTerms = %v, want %v", p.SearchTerms, want)
	}
}

func TestInteractionRecord_ProfileFromViewsOnly(t *testing.T) {
	t.Parallel()

	rec := InteractionRecord{Interactions: []Interaction{
		{Type: InteractionView, Category: "men", Price: 1000},
	}}
	p := rec.Profile()
	if p.PriceRange.Min != 800 || p.PriceRange.Max != 1200 {
		t.Errorf("PriceRange = %+v", p.PriceRange)
	}
	if p.IsEmpty() {
		t.Error("profile with a category should not be empty")
	}
}

func TestInteractionRecord_EmptyProfile(t *testing.T) {
	t.Parallel()

	p := InteractionRecord{UserID: "nobody"}.Profile()
	if !p.IsEmpty() {
		t.Errorf("expected empty profile, got %+v", p)
	}
}

func TestInteractionRecord_Analytics(t *testing.T) {
	t.Parallel()

	rec := InteractionRecord{UserID: "u1", Interactions: []Interaction{
		{Type: InteractionView, ProductID: "p1", Category: "women", Duration: 12},
		{Type: InteractionSearch, Query: "kurti", ResultsClicked: 2},
		{Type: InteractionPurchase, ProductID: "p1", Category: "women", Price: 2499},
	}}

	a := rec.Analytics()
	if a.UserID != "u1" || len(a.ViewHistory) != 1 || len(a.SearchHistory) != 1 || len(a.PurchaseHistory) != 1 {
		t.Fatalf("unexpected analytics %+v", a)
	}
	if a.SearchHistory[0].ResultsClicked != 2 || a.ViewHistory[0].Duration != 12 {
		t.Errorf("history fields not carried over: %+v", a)
	}
	if a.WishlistItems == nil || a.CartItems == nil {
		t.Error("wishlist and cart must serialize as empty arrays")
	}
}

func TestProduct_CloneIsDeep(t *testing.T) {
	t.Parallel()

	p := Product{ID: "p1", Tags: []string{"summer"}}
	c := p.Clone()
	c.Tags[0] = "winter"
	if p.Tags[0] != "summer" {
		t.Error("Clone shared the tags slice")
	}
}

func TestSurface(t *testing.T) {
	t.Parallel()

	if !SurfaceSimilar.Valid() || Surface("popular").Valid() {
		t.Error("Surface.Valid mismatch")
	}
	req := SurfaceRequest{Surface: SurfaceTrending, Category: "women", Limit: 2}
	if got := req.CacheKey(); got != "trending||women|2" {
		t.Errorf("CacheKey = %q", got)
	}
}
