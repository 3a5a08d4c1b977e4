// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	cfg := defaultConfig()

	if cfg.Server.Port != 3001 {
		t.Errorf("Server.Port = %d, want 3001", cfg.Server.Port)
	}
	if cfg.Storage.Backend != BackendMemory {
		t.Errorf("Storage.Backend = %q, want memory", cfg.Storage.Backend)
	}
	l := cfg.Ranking.Limits
	if l.Trending != 10 || l.Suggested != 10 || l.Similar != 6 || l.Recent != 8 || l.Category != 8 || l.Max != 50 {
		t.Errorf("unexpected default limits %+v", l)
	}
	if cfg.Ranking.Cache.Enabled {
		t.Error("result cache should be disabled by default")
	}
	if cfg.Ranking.Trending.HalfLife != 7*24*time.Hour {
		t.Errorf("Trending.HalfLife = %v, want 168h", cfg.Ranking.Trending.HalfLife)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()
	tests := []struct {
		env  string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"SHOPRANKER_HTTP_PORT", "server.port"},
		{"LOG_LEVEL", "logging.level"},
		{"STORAGE_BACKEND", "storage.backend"},
		{"SHOPRANKER_REDIS_ADDR", "storage.redis.addr"},
		{"LIMIT_SIMILAR", "ranking.limits.similar"},
		{"CANDIDATE_FILTER", "ranking.candidate_filter"},
		{"NATS_URL", "events.nats_url"},
		{"HOME", ""},
		{"SHOPRANKER_UNKNOWN", ""},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Parallel()
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadWithKoanfConfigFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
storage:
  backend: redis
  redis:
    addr: redis:6379
ranking:
  limits:
    similar: 4
  trending:
    half_life: 48h
  candidate_filter: "product.isActive"
`)
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Storage.Backend != BackendRedis || cfg.Storage.Redis.Addr != "redis:6379" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Ranking.Limits.Similar != 4 {
		t.Errorf("Limits.Similar = %d, want 4", cfg.Ranking.Limits.Similar)
	}
	if cfg.Ranking.Limits.Trending != 10 {
		t.Errorf("Limits.Trending = %d, want default 10", cfg.Ranking.Limits.Trending)
	}
	if cfg.Ranking.Trending.HalfLife != 48*time.Hour {
		t.Errorf("HalfLife = %v, want 48h", cfg.Ranking.Trending.HalfLife)
	}
	if cfg.Ranking.CandidateFilter != "product.isActive" {
		t.Errorf("CandidateFilter = %q", cfg.Ranking.CandidateFilter)
	}
}

func TestLoadWithKoanfEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8080\nlogging:\n  level: debug\n")
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("SHOPRANKER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("STORAGE_TIMEOUT", "750ms")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Storage.Timeout != 750*time.Millisecond {
		t.Errorf("Storage.Timeout = %v, want 750ms", cfg.Storage.Timeout)
	}
}

func TestLoadWithKoanfValidation(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, writeConfig(t, "storage:\n  backend: cassandra\n"))
	if _, err := LoadWithKoanf(); err == nil {
		t.Fatal("expected validation error for unknown backend")
	}
}

func TestFindConfigFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8080\n")
	t.Setenv(ConfigPathEnvVar, path)
	if got := findConfigFile(); got != path {
		t.Errorf("findConfigFile() = %q, want %q", got, path)
	}

	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			t.Skipf("%s exists in the test environment", p)
		}
	}
	if got := findConfigFile(); got != "" {
		t.Errorf("findConfigFile() = %q, want empty", got)
	}
}
