// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

// Package recommend selects and ranks the products shown on each storefront
// surface.
//
// # Surfaces
//
//   - trending: views, then purchases, then recency; optional category
//   - suggested: rating and popularity, biased towards the user's profile
//   - similar: products sharing a category, subcategory or brand
//   - recent: newest products first
//   - category: suggested ranking inside one category
//
// # Pipeline
//
// Every selector loads active candidates under the ranking timeout, applies
// the optional CEL candidate filter, scores with the functions in the scoring
// package and truncates to the resolved limit. Limits of zero take the
// surface default; anything outside 1..max is models.ErrInvalidRequest.
//
// # Degraded mode
//
// When storage reports models.ErrStorageUnavailable the selector ranks the
// static fallback Table instead and flags the response Degraded. Degraded
// responses are never cached.
//
// # Usage
//
//	engine, err := recommend.NewEngine(st, table, &cfg.Ranking, logger)
//	if err != nil {
//	    return err
//	}
//	resp, err := engine.Trending(ctx, "women", 0)
package recommend
