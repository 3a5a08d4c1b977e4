// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/shopranker/internal/logging"
	"github.com/tomtom215/shopranker/internal/tracking"
)

// maxTrackBody bounds tracking payloads.
const maxTrackBody = 64 << 10

// TrackView handles POST /track-view and /analytics/track-view.
func (h *Handler) TrackView(w http.ResponseWriter, r *http.Request) {
	ev := decodeTrackBody[tracking.ViewEvent](w, r)
	ev.UserID = userID(r, ev.UserID)

	ctx, cancel := h.withTimeout(r)
	defer cancel()
	writeOutcome(w, h.tracker.TrackView(ctx, ev))
}

// TrackSearch handles POST /track-search and /analytics/track-search.
func (h *Handler) TrackSearch(w http.ResponseWriter, r *http.Request) {
	ev := decodeTrackBody[tracking.SearchEvent](w, r)
	ev.UserID = userID(r, ev.UserID)

	ctx, cancel := h.withTimeout(r)
	defer cancel()
	writeOutcome(w, h.tracker.TrackSearch(ctx, ev))
}

// TrackPurchase handles POST /track-purchase and /analytics/track-purchase.
func (h *Handler) TrackPurchase(w http.ResponseWriter, r *http.Request) {
	ev := decodeTrackBody[tracking.PurchaseEvent](w, r)
	ev.UserID = userID(r, ev.UserID)

	ctx, cancel := h.withTimeout(r)
	defer cancel()
	writeOutcome(w, h.tracker.TrackPurchase(ctx, ev))
}

// decodeTrackBody returns the zero event for a malformed body. The ingestor
// then rejects it as invalid and answers with its soft message.
func decodeTrackBody[T any](w http.ResponseWriter, r *http.Request) T {
	var ev T
	if r.Body == nil {
		return ev
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTrackBody)).Decode(&ev); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Str("path", r.URL.Path).Msg("Malformed tracking body")
		var zero T
		return zero
	}
	return ev
}

// writeOutcome always answers 200: tracking is fire-and-forget for the
// storefront.
func writeOutcome(w http.ResponseWriter, out tracking.Outcome) {
	writeJSON(w, http.StatusOK, &APIResponse{
		Success: true,
		Data:    out,
		Message: out.Message,
	})
}
