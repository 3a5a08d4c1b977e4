// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

/*
Package models defines the data structures shared by the ranking engine.

Key types:

  - Product: read-only catalog snapshot the engine ranks (plus its counters)
  - Counters / CounterKind: per-product engagement counters
  - Interaction / InteractionRecord: per-user tracked events and the
    preferences derived from them
  - ResultItem: one ranked, annotated product in a surface response
  - SurfaceRequest: validated input to a candidate selector

JSON field names follow the storefront wire format (_id, isActive,
rating.average, analytics.views) so existing clients keep working.

Errors are classified with four sentinel kinds (ErrNotFound,
ErrInvalidRequest, ErrStorageUnavailable, ErrValidationFailed) wrapped in
*Error; match them with errors.Is or the IsX helpers.
*/
package models
