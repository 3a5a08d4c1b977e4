// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

// Package logging provides the process-wide zerolog logger for Shopranker.
//
// Initialize once at startup and log through the package helpers:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("backend", "redis").Msg("storage opened")
//
// Handlers should log through the request context so request IDs follow
// the entry:
//
//	logging.Ctx(ctx).Warn().Err(err).Msg("tracking failed")
//
// Libraries that expect *slog.Logger (sutureslog) or a watermill.LoggerAdapter
// get adapters backed by the same zerolog instance.
package logging
