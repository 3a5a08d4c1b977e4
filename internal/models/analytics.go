// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package models

import "time"

// UserAnalytics is the read model served by GET /analytics/user/{userId}.
// Wishlist and cart are owned by other services and are always empty here.
type UserAnalytics struct {
	UserID          string          `json:"userId"`
	ViewHistory     []ViewEntry     `json:"viewHistory"`
	SearchHistory   []SearchEntry   `json:"searchHistory"`
	PurchaseHistory []PurchaseEntry `json:"purchaseHistory"`
	WishlistItems   []string        `json:"wishlistItems"`
	CartItems       []string        `json:"cartItems"`
	Profile
}

type ViewEntry struct {
	ProductID string    `json:"productId"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
	Duration  float64   `json:"duration"`
}

type SearchEntry struct {
	Query          string    `json:"query"`
	Category       string    `json:"category,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	ResultsClicked int       `json:"resultsClicked"`
}

type PurchaseEntry struct {
	ProductID string    `json:"productId"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// EmptyAnalytics is the record served for users with no tracked history.
func EmptyAnalytics(userID string) UserAnalytics {
	return UserAnalytics{
		UserID:          userID,
		ViewHistory:     []ViewEntry{},
		SearchHistory:   []SearchEntry{},
		PurchaseHistory: []PurchaseEntry{},
		WishlistItems:   []string{},
		CartItems:       []string{},
		Profile: Profile{
			PreferredCategories: []string{},
			BrandPreferences:    []string{},
			SearchTerms:         []string{},
		},
	}
}

// Analytics splits the record into per-type histories and attaches the derived profile.
func (r InteractionRecord) Analytics() UserAnalytics {
	a := EmptyAnalytics(r.UserID)
	for _, ev := range r.Interactions {
		switch ev.Type {
		case InteractionView:
			a.ViewHistory = append(a.ViewHistory, ViewEntry{
				ProductID: ev.ProductID, Category: ev.Category, Timestamp: ev.Timestamp, Duration: ev.Duration,
			})
		case InteractionSearch:
			a.SearchHistory = append(a.SearchHistory, SearchEntry{
				Query: ev.Query, Category: ev.Category, Timestamp: ev.Timestamp, ResultsClicked: ev.ResultsClicked,
			})
		case InteractionPurchase:
			a.PurchaseHistory = append(a.PurchaseHistory, PurchaseEntry{
				ProductID: ev.ProductID, Category: ev.Category, Price: ev.Price, Timestamp: ev.Timestamp,
			})
		}
	}
	a.Profile = r.Profile()
	return a
}
