// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package store

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tomtom215/shopranker/internal/logging"
	"github.com/tomtom215/shopranker/internal/models"
)

// seedFile is the on-disk catalog layout.
type seedFile struct {
	Products []models.Product `yaml:"products"`
}

// LoadSeed reads a YAML catalog from path.
func LoadSeed(path string) ([]models.Product, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	seen := make(map[string]bool, len(f.Products))
	for i, p := range f.Products {
		if p.ID == "" {
			return nil, fmt.Errorf("seed product %d has no id", i)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("seed product %q is duplicated", p.ID)
		}
		seen[p.ID] = true
	}
	return f.Products, nil
}

// Seed loads path into s when the catalog is empty. An empty path is a no-op.
// It returns the number of products written.
func Seed(ctx context.Context, s *Store, path string) (int, error) {
	if path == "" {
		return 0, nil
	}
	existing, err := s.ListProducts(ctx, ProductFilter{})
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		logging.Info().Int("products", len(existing)).Msg("Catalog already populated, skipping seed")
		return 0, nil
	}

	products, err := LoadSeed(path)
	if err != nil {
		return 0, err
	}
	for _, p := range products {
		if err := s.PutProduct(ctx, p); err != nil {
			return 0, fmt.Errorf("seed product %s: %w", p.ID, err)
		}
	}
	return len(products), nil
}
