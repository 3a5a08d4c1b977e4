// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/shopranker/config.yaml",
	"/etc/shopranker/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// EnvPrefix is the optional prefix accepted on every mapped environment variable.
const EnvPrefix = "SHOPRANKER_"

// Defaults returns a fresh Config holding only the built-in defaults.
func Defaults() *Config { return defaultConfig() }

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3001,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			CORSOrigins:     []string{"*"},
			TrackRateLimit:  120,
			TrackRateWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Storage: StorageConfig{
			Backend:        BackendMemory,
			Timeout:        2 * time.Second,
			ConnectTimeout: 30 * time.Second,
			Breaker: BreakerConfig{
				MaxRequests:      3,
				Interval:         time.Minute,
				Timeout:          30 * time.Second,
				FailureThreshold: 5,
			},
			Badger: BadgerConfig{
				Path: "/data/shopranker/badger",
			},
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "shopranker:",
			},
		},
		Ranking: RankingConfig{
			Timeout: 3 * time.Second,
			Limits: LimitsConfig{
				Trending:  10,
				Suggested: 10,
				Similar:   6,
				Recent:    8,
				Category:  8,
				Max:       50,
			},
			Trending: TrendingConfig{
				ViewWeight:     0.5,
				PurchaseWeight: 0.3,
				RecencyWeight:  0.2,
				HalfLife:       7 * 24 * time.Hour,
			},
			Personalization: PersonalizationConfig{
				CategoryPenalty: 0.5,
				PricePenalty:    0.5,
				BrandPenalty:    0.9,
			},
			Cache: CacheConfig{
				Enabled:    false,
				TTL:        30 * time.Second,
				MaxEntries: 1024,
			},
		},
		Events: EventsConfig{
			Enabled: true,
			Topic:   "shopranker.tracking",
		},
		Supervisor: SupervisorConfig{
			FailureThreshold:    5,
			FailureDecay:        30,
			FailureBackoff:      15 * time.Second,
			ShutdownTimeout:     10 * time.Second,
			MaintenanceInterval: 10 * time.Minute,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults
//  2. Config file (if one exists)
//  3. Environment variables
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// STORAGE_BACKEND -> storage.backend, SHOPRANKER_REDIS_ADDR -> storage.redis.addr
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file that exists, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when set from env.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps flat environment variable names (lowercased, without
// EnvPrefix) to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_host":            "server.host",
	"http_port":            "server.port",
	"server_read_timeout":  "server.read_timeout",
	"server_write_timeout": "server.write_timeout",
	"request_timeout":      "server.request_timeout",
	"shutdown_timeout":     "server.shutdown_timeout",
	"cors_origins":         "server.cors_origins",
	"track_rate_limit":     "server.track_rate_limit",
	"track_rate_window":    "server.track_rate_window",
	"server_host":          "server.host",
	"server_port":          "server.port",
	"server_cors_origins":  "server.cors_origins",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Storage
	"storage_backend":           "storage.backend",
	"storage_timeout":           "storage.timeout",
	"storage_connect_timeout":   "storage.connect_timeout",
	"seed_path":                 "storage.seed_path",
	"storage_seed_path":         "storage.seed_path",
	"breaker_max_requests":      "storage.breaker.max_requests",
	"breaker_interval":          "storage.breaker.interval",
	"breaker_timeout":           "storage.breaker.timeout",
	"breaker_failure_threshold": "storage.breaker.failure_threshold",
	"badger_path":               "storage.badger.path",
	"badger_sync_writes":        "storage.badger.sync_writes",
	"redis_addr":                "storage.redis.addr",
	"redis_password":            "storage.redis.password",
	"redis_db":                  "storage.redis.db",
	"redis_key_prefix":          "storage.redis.key_prefix",
	"duckdb_path":               "storage.duckdb.path",

	// Ranking
	"ranking_timeout":          "ranking.timeout",
	"limit_trending":           "ranking.limits.trending",
	"limit_suggested":          "ranking.limits.suggested",
	"limit_similar":            "ranking.limits.similar",
	"limit_recent":             "ranking.limits.recent",
	"limit_category":           "ranking.limits.category",
	"limit_max":                "ranking.limits.max",
	"trending_view_weight":     "ranking.trending.view_weight",
	"trending_purchase_weight": "ranking.trending.purchase_weight",
	"trending_recency_weight":  "ranking.trending.recency_weight",
	"trending_half_life":       "ranking.trending.half_life",
	"category_penalty":         "ranking.personalization.category_penalty",
	"price_penalty":            "ranking.personalization.price_penalty",
	"brand_penalty":            "ranking.personalization.brand_penalty",
	"candidate_filter":         "ranking.candidate_filter",
	"ranking_cache_enabled":    "ranking.cache.enabled",
	"ranking_cache_ttl":        "ranking.cache.ttl",
	"ranking_cache_size":       "ranking.cache.max_entries",

	// Fallback
	"fallback_path": "fallback.path",

	// Events
	"events_enabled": "events.enabled",
	"events_topic":   "events.topic",
	"nats_url":       "events.nats_url",

	// Supervisor
	"supervisor_failure_threshold":    "supervisor.failure_threshold",
	"supervisor_failure_decay":        "supervisor.failure_decay",
	"supervisor_failure_backoff":      "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":     "supervisor.shutdown_timeout",
	"supervisor_maintenance_interval": "supervisor.maintenance_interval",
}

// envTransformFunc maps an environment variable name to a koanf path.
// Names may carry EnvPrefix. Unmapped names return "" and are skipped.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	key = strings.TrimPrefix(key, strings.ToLower(EnvPrefix))
	return envMappings[key]
}
