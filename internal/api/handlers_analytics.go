// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package api

import (
	"net/http"
	"strings"

	"github.com/tomtom215/shopranker/internal/logging"
	"github.com/tomtom215/shopranker/internal/models"
)

// UserAnalytics handles GET /analytics/user/{userId}.
//
// Users with no history get an empty record. When storage is down the empty
// record is served with degraded set.
func (h *Handler) UserAnalytics(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(pathParam(r, "userId"))
	if id == "" || len(id) > 128 {
		writeError(w, r, models.Invalidf("user analytics", "user id must be 1..128 characters"))
		return
	}

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	rec, err := h.storage.GetInteractions(ctx, id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, &APIResponse{Success: true, Data: rec.Analytics()})
	case models.IsNotFound(err):
		writeJSON(w, http.StatusOK, &APIResponse{Success: true, Data: models.EmptyAnalytics(id)})
	case models.IsUnavailable(err):
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Serving empty analytics while storage is unavailable")
		writeJSON(w, http.StatusOK, &APIResponse{Success: true, Data: models.EmptyAnalytics(id), Degraded: true})
	default:
		writeError(w, r, err)
	}
}
