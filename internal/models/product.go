// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package models

import (
	"slices"
	"time"
)

// Product is the catalog snapshot the ranking engine reads.
// Only Analytics is ever written by the engine, and only through the counter store.
type Product struct {
	ID            string    `json:"_id" yaml:"id"`
	Name          string    `json:"name" yaml:"name"`
	Description   string    `json:"description,omitempty" yaml:"description"`
	Price         float64   `json:"price" yaml:"price"`
	OriginalPrice float64   `json:"originalPrice,omitempty" yaml:"original_price"`
	Discount      int       `json:"discount,omitempty" yaml:"discount"` // percent
	Category      string    `json:"category" yaml:"category"`
	Subcategory   string    `json:"subcategory,omitempty" yaml:"subcategory"`
	Brand         string    `json:"brand,omitempty" yaml:"brand"`
	Images        []Image   `json:"images,omitempty" yaml:"images"`
	Rating        Rating    `json:"rating" yaml:"rating"`
	Tags          []string  `json:"tags,omitempty" yaml:"tags"`
	IsActive      bool      `json:"isActive" yaml:"active"`
	IsFeatured    bool      `json:"isFeatured,omitempty" yaml:"featured"`
	VendorName    string    `json:"vendorName,omitempty" yaml:"vendor"`
	Analytics     Counters  `json:"analytics" yaml:"analytics"`
	CreatedAt     time.Time `json:"createdAt" yaml:"created_at"`
}

// Rating is the aggregate customer rating.
type Rating struct {
	Average float64 `json:"average" yaml:"average"` // 0..5
	Count   int     `json:"count" yaml:"count"`
}

// Image is a product image reference.
type Image struct {
	URL       string `json:"url" yaml:"url"`
	Alt       string `json:"alt,omitempty" yaml:"alt"`
	IsPrimary bool   `json:"isPrimary,omitempty" yaml:"primary"`
}

// Clone returns a deep copy so callers can never alias shared snapshots.
func (p Product) Clone() Product {
	c := p
	c.Images = slices.Clone(p.Images)
	c.Tags = slices.Clone(p.Tags)
	return c
}
