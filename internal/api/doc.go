// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

/*
Package api provides the HTTP surface of Shopranker.

Endpoints:

	GET  /recommendations/trending?category&limit
	GET  /recommendations/suggested?userId&limit
	GET  /recommendations/similar/{productId}?limit
	GET  /recommendations/recent/{userId}?limit
	GET  /recommendations/category/{category}?limit
	POST /track-view, /track-search, /track-purchase
	POST /analytics/track-view, /analytics/track-search, /analytics/track-purchase
	GET  /analytics/user/{userId}
	GET  /health/live, /health/ready
	GET  /metrics

Every JSON body uses the APIResponse envelope. Ranking responses carry an
APIMeta block; degraded is set when a fallback table or an empty record was
served instead of live data.

Tracking endpoints always answer 200. The outcome in data says whether the
event was recorded; the storefront never retries.

Error mapping is centralised in writeError:

	validation failure      400 VALIDATION_ERROR
	bad parameter           400 INVALID_REQUEST
	unknown product / route 404 NOT_FOUND
	deadline exceeded       504 TIMEOUT
	storage unavailable     503 SERVICE_UNAVAILABLE
	anything else           500 INTERNAL_ERROR
*/
package api
