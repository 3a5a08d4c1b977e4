// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package config

import (
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/shopranker/internal/logging"
)

// Validate checks that the configuration is complete and consistent.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateLogging,
		c.validateStorage,
		c.validateRanking,
		c.validateEvents,
		c.validateSupervisor,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

// Rate limit bounds
const (
	maxTrackRateLimit  = 100000
	minTrackRateWindow = time.Second
	maxTrackRateWindow = time.Hour
)

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	return c.validateTrackRateLimit()
}

// validateTrackRateLimit only checks the window when the limiter is on.
func (c *Config) validateTrackRateLimit() error {
	if c.Server.TrackRateLimit == 0 {
		return nil
	}
	if c.Server.TrackRateLimit < 0 || c.Server.TrackRateLimit > maxTrackRateLimit {
		return fmt.Errorf("TRACK_RATE_LIMIT must be between 0 and %d", maxTrackRateLimit)
	}
	if c.Server.TrackRateWindow < minTrackRateWindow || c.Server.TrackRateWindow > maxTrackRateWindow {
		return fmt.Errorf("TRACK_RATE_WINDOW must be between %v and %v", minTrackRateWindow, maxTrackRateWindow)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error (got %q)", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console (got %q)", c.Logging.Format)
	}
}

var validBackends = map[string]bool{
	BackendMemory: true,
	BackendBadger: true,
	BackendRedis:  true,
	BackendDuckDB: true,
}

func (c *Config) validateStorage() error {
	s := c.Storage
	if !validBackends[s.Backend] {
		return fmt.Errorf("STORAGE_BACKEND must be one of: memory, badger, redis, duckdb (got %q)", s.Backend)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("storage.timeout must be positive")
	}
	if s.Breaker.FailureThreshold == 0 {
		return fmt.Errorf("storage.breaker.failure_threshold must be at least 1")
	}
	switch s.Backend {
	case BackendBadger:
		if s.Badger.Path == "" {
			return fmt.Errorf("BADGER_PATH is required when STORAGE_BACKEND=badger")
		}
	case BackendRedis:
		if s.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required when STORAGE_BACKEND=redis")
		}
		if s.Redis.DB < 0 {
			return fmt.Errorf("REDIS_DB must not be negative")
		}
	}
	return nil
}

func (c *Config) validateRanking() error {
	r := c.Ranking
	if r.Timeout <= 0 {
		return fmt.Errorf("ranking.timeout must be positive")
	}
	if err := r.Limits.validate(); err != nil {
		return err
	}
	if err := r.Trending.validate(); err != nil {
		return err
	}
	if err := r.Personalization.validate(); err != nil {
		return err
	}
	if r.Cache.Enabled {
		if r.Cache.TTL <= 0 {
			return fmt.Errorf("ranking.cache.ttl must be positive when the cache is enabled")
		}
		if r.Cache.MaxEntries < 1 {
			return fmt.Errorf("ranking.cache.max_entries must be at least 1 when the cache is enabled")
		}
	}
	return nil
}

func (l LimitsConfig) validate() error {
	if l.Max < 1 || l.Max > MaxLimit {
		return fmt.Errorf("ranking.limits.max must be between 1 and %d (got %d)", MaxLimit, l.Max)
	}
	defaults := map[string]int{
		"trending":  l.Trending,
		"suggested": l.Suggested,
		"similar":   l.Similar,
		"recent":    l.Recent,
		"category":  l.Category,
	}
	for name, v := range defaults {
		if v < 1 || v > l.Max {
			return fmt.Errorf("ranking.limits.%s must be between 1 and %d (got %d)", name, l.Max, v)
		}
	}
	return nil
}

func (t TrendingConfig) validate() error {
	for name, w := range map[string]float64{
		"view_weight":     t.ViewWeight,
		"purchase_weight": t.PurchaseWeight,
		"recency_weight":  t.RecencyWeight,
	} {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("ranking.trending.%s must be a non-negative number", name)
		}
	}
	if t.ViewWeight+t.PurchaseWeight+t.RecencyWeight == 0 {
		return fmt.Errorf("ranking.trending weights must not all be zero")
	}
	if t.HalfLife <= 0 {
		return fmt.Errorf("ranking.trending.half_life must be positive")
	}
	return nil
}

// validate requires each penalty to lie in (0, 1]. One means no penalty.
func (p PersonalizationConfig) validate() error {
	for name, v := range map[string]float64{
		"category_penalty": p.CategoryPenalty,
		"price_penalty":    p.PricePenalty,
		"brand_penalty":    p.BrandPenalty,
	} {
		if !(v > 0 && v <= 1) {
			return fmt.Errorf("ranking.personalization.%s must be in (0, 1] (got %v)", name, v)
		}
	}
	return nil
}

func (c *Config) validateEvents() error {
	if c.Events.Enabled && c.Events.Topic == "" {
		return fmt.Errorf("EVENTS_TOPIC is required when events are enabled")
	}
	return nil
}

func (c *Config) validateSupervisor() error {
	s := c.Supervisor
	if s.FailureThreshold <= 0 {
		return fmt.Errorf("supervisor.failure_threshold must be positive")
	}
	if s.FailureDecay <= 0 {
		return fmt.Errorf("supervisor.failure_decay must be positive")
	}
	if s.FailureBackoff <= 0 || s.ShutdownTimeout <= 0 {
		return fmt.Errorf("supervisor.failure_backoff and supervisor.shutdown_timeout must be positive")
	}
	if s.MaintenanceInterval < 0 {
		return fmt.Errorf("supervisor.maintenance_interval must not be negative")
	}
	return nil
}
