// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// maxTaskDuration bounds one run of one task.
const maxTaskDuration = 5 * time.Minute

// MaintenanceTask is one periodic housekeeping job, such as Badger value log
// GC or a result cache sweep.
type MaintenanceTask struct {
	Name string
	Run  func(ctx context.Context) error
}

// MaintenanceService runs its tasks every interval. Task errors are logged
// and never restart the service.
type MaintenanceService struct {
	tasks    []MaintenanceTask
	interval time.Duration
	logger   zerolog.Logger
}

// NewMaintenanceService creates the service. A non-positive interval falls
// back to ten minutes.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMaintenanceService(interval time.Duration, logger zerolog.Logger, tasks ...MaintenanceTask) *MaintenanceService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &MaintenanceService{
		tasks:    tasks,
		interval: interval,
		logger:   logger.With().Str("service", "maintenance").Logger(),
	}
}

// Serve implements suture.Service.
func (s *MaintenanceService) Serve(ctx context.Context) error {
	s.logger.Info().
		Int("tasks", len(s.tasks)).
		Dur("interval", s.interval).
		Msg("Maintenance service starting")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

func (s *MaintenanceService) runAll(ctx context.Context) {
	for _, task := range s.tasks {
		if ctx.Err() != nil {
			return
		}
		taskCtx, cancel := context.WithTimeout(ctx, maxTaskDuration)
		start := time.Now()
		err := task.Run(taskCtx)
		cancel()

		if err != nil {
			s.logger.Warn().Err(err).Str("task", task.Name).Msg("Maintenance task failed")
			continue
		}
		s.logger.Debug().
			Str("task", task.Name).
			Dur("duration", time.Since(start)).
			Msg("Maintenance task complete")
	}
}

func (s *MaintenanceService) String() string {
	return "maintenance"
}
