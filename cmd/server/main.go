// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/shopranker/internal/api"
	"github.com/tomtom215/shopranker/internal/config"
	"github.com/tomtom215/shopranker/internal/events"
	"github.com/tomtom215/shopranker/internal/logging"
	"github.com/tomtom215/shopranker/internal/recommend"
	"github.com/tomtom215/shopranker/internal/store"
	"github.com/tomtom215/shopranker/internal/supervisor"
	"github.com/tomtom215/shopranker/internal/supervisor/services"
	"github.com/tomtom215/shopranker/internal/tracking"
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("storage", cfg.Storage.Backend).
		Bool("events", cfg.Events.Enabled).
		Str("addr", cfg.Server.Addr()).
		Msg("Starting Shopranker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === STORAGE ===
	backend, err := store.Open(ctx, &cfg.Storage)
	if err != nil {
		logging.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("Failed to open storage")
	}
	st := store.New(backend, &cfg.Storage)
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing storage")
		}
	}()

	if cfg.Storage.SeedPath != "" {
		n, err := store.Seed(ctx, st, cfg.Storage.SeedPath)
		if err != nil {
			logging.Fatal().Err(err).Str("path", cfg.Storage.SeedPath).Msg("Failed to seed catalog")
		}
		logging.Info().Int("products", n).Str("path", cfg.Storage.SeedPath).Msg("Catalog seeded")
	}

	// === RANKING ===
	table, err := recommend.LoadTable(cfg.Fallback.Path)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load fallback table")
	}
	engine, err := recommend.NewEngine(st, table, &cfg.Ranking, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build ranking engine")
	}

	// === EVENTS ===
	var (
		publisher events.Publisher = events.Noop{}
		bus       *events.Bus
	)
	if cfg.Events.Enabled {
		bus, err = events.Open(cfg.Events, logging.Logger())
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to open event bus")
		}
		defer func() {
			if err := bus.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing event bus")
			}
		}()
		publisher = bus
		logging.Info().Str("transport", bus.Transport()).Str("topic", bus.Topic()).Msg("Event bus ready")
	} else {
		logging.Info().Msg("Tracking events are not published (events.enabled=false)")
	}

	ingestor := tracking.NewIngestor(st, publisher, logging.Logger())

	// === HTTP ===
	handler := api.NewHandler(engine, ingestor, st, &cfg.Server)
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(handler, &cfg.Server),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	// === SUPERVISOR TREE ===
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if cfg.Supervisor.MaintenanceInterval > 0 {
		tree.AddDataService(services.NewMaintenanceService(
			cfg.Supervisor.MaintenanceInterval,
			logging.Logger(),
			services.MaintenanceTask{Name: "storage-compact", Run: st.Compact},
			services.MaintenanceTask{Name: "ranking-cache-sweep", Run: engine.SweepCache},
		))
	}
	if bus != nil {
		tree.AddEventService(events.NewConsumer(bus, logging.WithComponent("events")))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout, logging.Logger()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree stopped with error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Shopranker stopped")
}
