// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/tomtom215/shopranker/internal/logging"
	"github.com/tomtom215/shopranker/internal/models"
)

// Trending handles GET /recommendations/trending?category&limit
func (h *Handler) Trending(w http.ResponseWriter, r *http.Request) {
	h.rank(w, r, models.SurfaceRequest{
		Surface:  models.SurfaceTrending,
		Category: r.URL.Query().Get("category"),
	})
}

// Suggested handles GET /recommendations/suggested?userId&limit
func (h *Handler) Suggested(w http.ResponseWriter, r *http.Request) {
	h.rank(w, r, models.SurfaceRequest{
		Surface:   models.SurfaceSuggested,
		SubjectID: userID(r, r.URL.Query().Get("userId")),
	})
}

// Similar handles GET /recommendations/similar/{productId}?limit
func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	h.rank(w, r, models.SurfaceRequest{
		Surface:   models.SurfaceSimilar,
		SubjectID: pathParam(r, "productId"),
	})
}

// Recent handles GET /recommendations/recent/{userId}?limit
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	h.rank(w, r, models.SurfaceRequest{
		Surface:   models.SurfaceRecent,
		SubjectID: pathParam(r, "userId"),
	})
}

// Category handles GET /recommendations/category/{category}?limit
func (h *Handler) Category(w http.ResponseWriter, r *http.Request) {
	h.rank(w, r, models.SurfaceRequest{
		Surface:  models.SurfaceCategory,
		Category: pathParam(r, "category"),
	})
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (h *Handler) rank(w http.ResponseWriter, r *http.Request, req models.SurfaceRequest) {
	start := h.now()

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	req.Limit = limit

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	resp, err := h.ranker.Rank(ctx, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items := resp.Items
	if items == nil {
		items = []models.ResultItem{}
	}
	writeJSON(w, http.StatusOK, &APIResponse{
		Success:  true,
		Data:     items,
		Degraded: resp.Degraded,
		Meta: &APIMeta{
			RequestID:   logging.RequestIDFromContext(r.Context()),
			Timestamp:   start.UTC(),
			Surface:     resp.Surface,
			Count:       len(items),
			Limit:       resp.Limit,
			Strategy:    resp.Strategy,
			Cached:      resp.Cached,
			QueryTimeMS: h.now().Sub(start).Milliseconds(),
		},
	})
}

// parseLimit reads the limit query parameter. Absent means 0, the surface
// default; range checks happen in the engine.
func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, models.Invalidf("parse limit", "limit must be an integer, got %q", raw)
	}
	return n, nil
}
