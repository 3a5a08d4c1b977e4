// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package recommend

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/tomtom215/shopranker/internal/models"
)

// Filter is a compiled candidate eligibility expression. Programs are safe
// for concurrent use.
//
// The expression sees one variable, product, with these fields:
//
//	id name category subcategory brand vendor   string
//	price original_price rating                 double
//	discount rating_count                       int
//	views likes shares purchases                int
//	featured                                    bool
//	tags                                        list(string)
//	created_at                                  timestamp
//
// Example: product.price < 5000.0 && !("clearance" in product.tags)
type Filter struct {
	expr string
	prg  cel.Program
}

// NewFilter compiles expr. An empty expression returns a nil Filter, which
// keeps every candidate.
func NewFilter(expr string) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	env, err := cel.NewEnv(cel.Variable("product", cel.MapType(cel.StringType, cel.DynType)))
	if err != nil {
		return nil, fmt.Errorf("candidate filter env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile candidate filter: %w", issues.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("candidate filter must return bool, got %s", out)
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("candidate filter program: %w", err)
	}
	return &Filter{expr: expr, prg: prg}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.expr
}

// Eval reports whether p is eligible. A nil Filter keeps everything.
func (f *Filter) Eval(p *models.Product) (bool, error) {
	if f == nil {
		return true, nil
	}
	out, _, err := f.prg.Eval(map[string]any{"product": productVars(p)})
	if err != nil {
		return false, err
	}
	keep, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("candidate filter returned %T", out.Value())
	}
	return keep, nil
}

func productVars(p *models.Product) map[string]any {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return map[string]any{
		"id":             p.ID,
		"name":           p.Name,
		"category":       p.Category,
		"subcategory":    p.Subcategory,
		"brand":          p.Brand,
		"vendor":         p.VendorName,
		"price":          p.Price,
		"original_price": p.OriginalPrice,
		"rating":         p.Rating.Average,
		"discount":       int64(p.Discount),
		"rating_count":   int64(p.Rating.Count),
		"views":          p.Analytics.Views,
		"likes":          p.Analytics.Likes,
		"shares":         p.Analytics.Shares,
		"purchases":      p.Analytics.Purchases,
		"featured":       p.IsFeatured,
		"tags":           tags,
		"created_at":     p.CreatedAt,
	}
}
