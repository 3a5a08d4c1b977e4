// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

/*
Package supervisor runs Shopranker's long-lived services under suture v4.

The tree has three layers that restart independently:

	RootSupervisor ("shopranker")
	├── "data-layer"
	│   └── MaintenanceService (storage compaction, cache sweeps)
	├── "events-layer"
	│   └── events.Consumer (if events are enabled)
	└── "api-layer"
	    └── HTTPServerService

Supervisor events (start, failure, backoff) are logged through sutureslog
onto the zerolog-backed slog logger from internal/logging.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
	    return err
	}
	tree.AddAPIService(services.NewHTTPServerService(srv, addr, timeout, logger))
	err = tree.Serve(ctx)
*/
package supervisor
