// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

/*
Package services adapts long-running Shopranker components to suture.Service.

  - HTTPServerService: ListenAndServe plus graceful Shutdown on cancellation
  - MaintenanceService: periodic housekeeping tasks (Badger value log GC,
    ranking cache sweeps)

The tracking event consumer in internal/events implements suture.Service
directly and needs no wrapper.
*/
package services
