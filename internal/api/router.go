// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/shopranker/internal/config"
	"github.com/tomtom215/shopranker/internal/middleware"
)

// NewRouter builds the chi router for every route the service exposes.
func NewRouter(h *Handler, cfg *config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsHandler(cfg.CORSOrigins)) // global so OPTIONS preflight is answered
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.Compression)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorCode(w, r, http.StatusNotFound, ErrCodeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErrorCode(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed", nil)
	})

	// ========================
	// Health and Metrics
	// ========================
	r.Get("/health/live", h.HealthLive)
	r.Get("/health/ready", h.HealthReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// ========================
	// Ranking Surfaces
	// ========================
	r.Route("/recommendations", func(r chi.Router) {
		r.Get("/trending", h.Trending)
		r.Get("/suggested", h.Suggested)
		r.Get("/similar/{productId}", h.Similar)
		r.Get("/recent/{userId}", h.Recent)
		r.Get("/category/{category}", h.Category)
	})

	// ========================
	// Tracking
	// ========================
	// The storefront client posts to /analytics/track-*; the bare paths are
	// kept for server-side callers.
	r.Group(func(r chi.Router) {
		r.Use(trackRateLimit(cfg))

		r.Post("/track-view", h.TrackView)
		r.Post("/track-search", h.TrackSearch)
		r.Post("/track-purchase", h.TrackPurchase)

		r.Post("/analytics/track-view", h.TrackView)
		r.Post("/analytics/track-search", h.TrackSearch)
		r.Post("/analytics/track-purchase", h.TrackPurchase)
	})

	r.Get("/analytics/user/{userId}", h.UserAnalytics)

	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader, UserIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         86400,
	})
}

// trackRateLimit limits tracking calls per client IP. A zero limit disables it.
func trackRateLimit(cfg *config.ServerConfig) func(http.Handler) http.Handler {
	if cfg.TrackRateLimit <= 0 || cfg.TrackRateWindow <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		cfg.TrackRateLimit,
		cfg.TrackRateWindow,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeErrorCode(w, r, http.StatusTooManyRequests, ErrCodeTooManyRequests, "Too many tracking requests", nil)
		}),
	)
}
