// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const seedYAML = `
products:
  - id: trending-1
    name: Premium Silk Saree
    category: women
    subcategory: sarees
    brand: Ethnic Elegance
    price: 2499
    original_price: 3499
    discount: 29
    active: true
    rating: {average: 4.8, count: 156}
    analytics: {views: 1250, likes: 89, shares: 23, purchases: 45}
    created_at: 2026-01-10T00:00:00Z
  - id: suggested-1
    name: Elegant Evening Dress
    category: women
    brand: StyleCraft
    price: 1899
    active: true
    rating: {average: 4.6, count: 42}
    created_at: 2026-01-12T00:00:00Z
`

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSeed(t *testing.T) {
	t.Parallel()
	products, err := LoadSeed(writeSeed(t, seedYAML))
	if err != nil {
		t.Fatalf("LoadSeed: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("len = %d, want 2", len(products))
	}
	p := products[0]
	if p.ID != "trending-1" || p.OriginalPrice != 3499 || !p.IsActive || p.Rating.Average != 4.8 {
		t.Errorf("unexpected product %+v", p)
	}
	if p.Analytics.Views != 1250 || p.Analytics.Purchases != 45 {
		t.Errorf("analytics = %+v", p.Analytics)
	}
	if p.CreatedAt.Year() != 2026 {
		t.Errorf("CreatedAt = %v", p.CreatedAt)
	}
}

func TestLoadSeedRejectsBadInput(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"missing id": "products:\n  - name: nameless\n",
		"duplicate":  "products:\n  - id: a\n  - id: a\n",
		"not yaml":   "products: [",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := LoadSeed(writeSeed(t, body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSeedOnlyWhenEmpty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(NewMemory(), testStorageConfig())
	path := writeSeed(t, seedYAML)

	n, err := Seed(ctx, s, path)
	if err != nil || n != 2 {
		t.Fatalf("Seed = %d, %v; want 2, nil", n, err)
	}
	n, err = Seed(ctx, s, path)
	if err != nil || n != 0 {
		t.Errorf("second Seed = %d, %v; want 0, nil", n, err)
	}
	if n, err := Seed(ctx, s, ""); err != nil || n != 0 {
		t.Errorf("Seed(\"\") = %d, %v", n, err)
	}
}
