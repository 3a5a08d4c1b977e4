// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

/*
Package config loads shopranker configuration.

Configuration is layered with Koanf v2:
 1. Defaults from defaultConfig()
 2. An optional YAML file (CONFIG_PATH or DefaultConfigPaths)
 3. Environment variables (SHOPRANKER_* plus a few legacy flat names)

Later layers win. The merged result is validated before it is returned.
*/
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Storage    StorageConfig    `koanf:"storage"`
	Ranking    RankingConfig    `koanf:"ranking"`
	Fallback   FallbackConfig   `koanf:"fallback"`
	Events     EventsConfig     `koanf:"events"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`

	// TrackRateLimit caps tracking requests per client IP per TrackRateWindow.
	// Zero disables the limiter.
	TrackRateLimit  int           `koanf:"track_rate_limit"`
	TrackRateWindow time.Duration `koanf:"track_rate_window"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error
	Format string `koanf:"format"` // json or console
	Caller bool   `koanf:"caller"`
}

// Storage backends.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendDuckDB = "duckdb"
)

// StorageConfig selects and tunes the counter/catalog backend.
type StorageConfig struct {
	Backend        string        `koanf:"backend"`
	Timeout        time.Duration `koanf:"timeout"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`

	// SeedPath is an optional YAML catalog loaded at startup.
	SeedPath string `koanf:"seed_path"`

	Breaker BreakerConfig `koanf:"breaker"`
	Badger  BadgerConfig  `koanf:"badger"`
	Redis   RedisConfig   `koanf:"redis"`
	DuckDB  DuckDBConfig  `koanf:"duckdb"`
}

// BreakerConfig tunes the storage circuit breaker.
type BreakerConfig struct {
	MaxRequests      uint32        `koanf:"max_requests"`
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
}

// BadgerConfig configures the embedded Badger backend.
type BadgerConfig struct {
	Path       string `koanf:"path"`
	SyncWrites bool   `koanf:"sync_writes"`
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr      string `koanf:"addr"`
	Password  string `koanf:"password"`
	DB        int    `koanf:"db"`
	KeyPrefix string `koanf:"key_prefix"`
}

// DuckDBConfig configures the DuckDB backend. An empty path is in-memory.
type DuckDBConfig struct {
	Path string `koanf:"path"`
}

// RankingConfig tunes the ranking engine.
type RankingConfig struct {
	Timeout         time.Duration         `koanf:"timeout"`
	Limits          LimitsConfig          `koanf:"limits"`
	Trending        TrendingConfig        `koanf:"trending"`
	Personalization PersonalizationConfig `koanf:"personalization"`

	// CandidateFilter is an optional CEL expression over `product`.
	// Candidates for which it evaluates false are dropped.
	CandidateFilter string `koanf:"candidate_filter"`

	Cache CacheConfig `koanf:"cache"`
}

// MaxLimit is the largest result size any surface may return.
const MaxLimit = 50

// LimitsConfig holds per-surface default result sizes. Max may lower the
// ceiling below MaxLimit but never raise it.
type LimitsConfig struct {
	Trending  int `koanf:"trending"`
	Suggested int `koanf:"suggested"`
	Similar   int `koanf:"similar"`
	Recent    int `koanf:"recent"`
	Category  int `koanf:"category"`
	Max       int `koanf:"max"`
}

// TrendingConfig weights the trending score.
type TrendingConfig struct {
	ViewWeight     float64       `koanf:"view_weight"`
	PurchaseWeight float64       `koanf:"purchase_weight"`
	RecencyWeight  float64       `koanf:"recency_weight"`
	HalfLife       time.Duration `koanf:"half_life"`
}

// PersonalizationConfig holds multiplicative penalties for profile misses.
type PersonalizationConfig struct {
	CategoryPenalty float64 `koanf:"category_penalty"`
	PricePenalty    float64 `koanf:"price_penalty"`
	BrandPenalty    float64 `koanf:"brand_penalty"`
}

// CacheConfig configures the ranked result cache.
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	TTL        time.Duration `koanf:"ttl"`
	MaxEntries int           `koanf:"max_entries"`
}

// FallbackConfig points at an optional fallback table override.
type FallbackConfig struct {
	Path string `koanf:"path"`
}

// EventsConfig configures tracking event fan-out.
type EventsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Topic   string `koanf:"topic"`

	// NATSURL selects the NATS transport. Empty uses an in-process channel.
	NATSURL string `koanf:"nats_url"`
}

// SupervisorConfig tunes the suture service tree.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`

	// MaintenanceInterval paces storage GC and result cache sweeps.
	// Zero disables the maintenance service.
	MaintenanceInterval time.Duration `koanf:"maintenance_interval"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
