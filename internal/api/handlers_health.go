// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package api

import (
	"context"
	"net/http"
	"time"
)

// readyTimeout bounds the readiness storage ping.
const readyTimeout = 2 * time.Second

// HealthStatus is the body of the health endpoints.
type HealthStatus struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Storage       string  `json:"storage,omitempty"`
	Breaker       string  `json:"breaker,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// HealthLive handles GET /health/live. It never touches dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, &APIResponse{
		Success: true,
		Data:    HealthStatus{Status: "alive", UptimeSeconds: time.Since(h.startTime).Seconds()},
	})
}

// HealthReady handles GET /health/ready by pinging storage.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := HealthStatus{
		Status:        "ready",
		UptimeSeconds: time.Since(h.startTime).Seconds(),
		Storage:       h.storage.Backend(),
		Breaker:       h.storage.BreakerState(),
	}
	if err := h.storage.Ping(ctx); err != nil {
		status.Status = "not_ready"
		status.Error = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, &APIResponse{Success: false, Data: status})
		return
	}
	writeJSON(w, http.StatusOK, &APIResponse{Success: true, Data: status})
}
