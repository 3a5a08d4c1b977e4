// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package recommend

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tomtom215/shopranker/internal/models"
)

// Table is the static candidate set served while storage is unavailable.
// It is built once at startup and never mutated; accessors return copies.
type Table struct {
	trending  []models.Product
	suggested []models.Product
}

// tableFile is the on-disk layout of a fallback override.
type tableFile struct {
	Trending  []fallbackProduct `yaml:"trending"`
	Suggested []fallbackProduct `yaml:"suggested"`
}

// fallbackProduct is a fallback entry. Entries are active unless the file
// says "active: false".
type fallbackProduct models.Product

func (p *fallbackProduct) UnmarshalYAML(node *yaml.Node) error {
	*p = fallbackProduct{IsActive: true}
	return node.Decode((*models.Product)(p))
}

func products(entries []fallbackProduct) []models.Product {
	out := make([]models.Product, len(entries))
	for i := range entries {
		out[i] = models.Product(entries[i])
	}
	return out
}

var fallbackCreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// DefaultTable returns the built-in storefront picks.
func DefaultTable() *Table {
	return &Table{
		trending: []models.Product{
			{
				ID:            "trending-1",
				Name:          "Viral Summer Dress",
				Description:   "This dress is trending across social media",
				Price:         2499,
				OriginalPrice: 3499,
				Discount:      29,
				Images:        []models.Image{{URL: "https://images.unsplash.com/photo-1515372039744-b8f02a3ae446?w=400", Alt: "Summer Dress", IsPrimary: true}},
				Category:      "women",
				Subcategory:   "dresses",
				Brand:         "StyleHub",
				Rating:        models.Rating{Average: 4.5, Count: 89},
				Tags:          []string{"summer", "trending", "viral"},
				IsActive:      true,
				IsFeatured:    true,
				Analytics:     models.Counters{Views: 15420, Purchases: 342, Shares: 1250},
				CreatedAt:     fallbackCreatedAt,
			},
			{
				ID:            "trending-2",
				Name:          "Trending Casual T-Shirt",
				Description:   "Popular casual wear for everyday comfort",
				Price:         899,
				OriginalPrice: 1299,
				Discount:      31,
				Images:        []models.Image{{URL: "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?w=400", Alt: "Casual T-Shirt", IsPrimary: true}},
				Category:      "men",
				Subcategory:   "shirts",
				Brand:         "ComfortWear",
				Rating:        models.Rating{Average: 4.2, Count: 156},
				Tags:          []string{"casual", "trending", "comfort"},
				IsActive:      true,
				IsFeatured:    true,
				Analytics:     models.Counters{Views: 12300, Purchases: 287, Shares: 890},
				CreatedAt:     fallbackCreatedAt,
			},
			{
				ID:            "trending-3",
				Name:          "Stylish Ethnic Kurta",
				Description:   "Traditional wear with modern styling",
				Price:         1899,
				OriginalPrice: 2499,
				Discount:      24,
				Images:        []models.Image{{URL: "https://images.unsplash.com/photo-1583391733956-6c78276477e2?w=400", Alt: "Ethnic Kurta", IsPrimary: true}},
				Category:      "women",
				Subcategory:   "ethnic",
				Brand:         "EthnicChic",
				Rating:        models.Rating{Average: 4.6, Count: 203},
				Tags:          []string{"ethnic", "traditional", "festive"},
				IsActive:      true,
				IsFeatured:    true,
				Analytics:     models.Counters{Views: 9800, Purchases: 198, Shares: 567},
				CreatedAt:     fallbackCreatedAt,
			},
		},
		suggested: []models.Product{
			{
				ID:            "suggested-1",
				Name:          "Trending Cotton T-Shirt",
				Description:   "Popular cotton t-shirt based on your preferences",
				Price:         899,
				OriginalPrice: 1299,
				Discount:      31,
				Images:        []models.Image{{URL: "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?w=400", Alt: "Cotton T-Shirt", IsPrimary: true}},
				Category:      "men",
				Subcategory:   "shirts",
				Brand:         "ComfortWear",
				Rating:        models.Rating{Average: 4.2, Count: 156},
				Tags:          []string{"cotton", "casual", "trending"},
				IsActive:      true,
				IsFeatured:    true,
				CreatedAt:     fallbackCreatedAt,
			},
		},
	}
}

// LoadTable builds the fallback table. An empty path yields DefaultTable; a
// file replaces each pool it defines and keeps the built-in one otherwise.
func LoadTable(path string) (*Table, error) {
	t := DefaultTable()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("read fallback table: %w", err)
	}
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fallback table %s: %w", path, err)
	}

	if len(f.Trending) > 0 {
		pool := products(f.Trending)
		if err := checkPool("trending", pool); err != nil {
			return nil, err
		}
		t.trending = pool
	}
	if len(f.Suggested) > 0 {
		pool := products(f.Suggested)
		if err := checkPool("suggested", pool); err != nil {
			return nil, err
		}
		t.suggested = pool
	}
	return t, nil
}

func checkPool(name string, pool []models.Product) error {
	seen := make(map[string]struct{}, len(pool))
	active := 0
	for i, p := range pool {
		if p.ID == "" {
			return fmt.Errorf("fallback %s[%d]: missing id", name, i)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("fallback %s: duplicate id %q", name, p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.IsActive {
			active++
		}
	}
	if active == 0 {
		return fmt.Errorf("fallback %s: every entry is inactive", name)
	}
	return nil
}

// Pool returns a copy of the candidates for surface. Only trending has its
// own pool; every other surface shares the suggested one.
func (t *Table) Pool(surface models.Surface) []models.Product {
	src := t.suggested
	if surface == models.SurfaceTrending {
		src = t.trending
	}
	out := make([]models.Product, len(src))
	for i := range src {
		out[i] = src[i].Clone()
	}
	return out
}
