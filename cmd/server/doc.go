// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

/*
Package main is the entry point for the Shopranker server.

Shopranker ranks storefront products for five surfaces (trending,
suggested, similar, recent, category) from engagement counters and
per-shopper interaction history, and ingests the view, search and purchase
events that feed those counters.

# Startup

 1. Configuration: koanf v2 (defaults, config.yaml, environment)
 2. Storage: memory, badger, redis or duckdb behind a circuit breaker,
    optionally seeded from a YAML catalog
 3. Ranking engine: fallback table, CEL candidate filter, result cache
 4. Event bus: in-process gochannel, or NATS when events.nats_url is set
 5. HTTP: chi router with request ids, CORS, Prometheus and gzip
 6. Supervisor tree: maintenance, event consumer and HTTP server

# Configuration

Common environment variables:

	STORAGE_BACKEND=badger            memory | badger | redis | duckdb
	BADGER_PATH=/data/shopranker
	REDIS_ADDR=redis:6379
	SEED_PATH=/etc/shopranker/catalog.yaml
	NATS_URL=nats://nats:4222
	LOG_LEVEL=debug

Every variable also accepts the SHOPRANKER_ prefix.

# Signals

SIGINT and SIGTERM cancel the tree. The HTTP server drains for
server.shutdown_timeout and storage is closed last.
*/
package main
