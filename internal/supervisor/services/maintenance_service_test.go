// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestMaintenanceServiceRunsTasks(t *testing.T) {
	t.Parallel()

	var compactions, sweeps atomic.Int32
	svc := NewMaintenanceService(5*time.Millisecond, zerolog.Nop(),
		MaintenanceTask{Name: "storage-compact", Run: func(context.Context) error {
			compactions.Add(1)
			return errors.New("value log busy")
		}},
		MaintenanceTask{Name: "ranking-cache-sweep", Run: func(context.Context) error {
			sweeps.Add(1)
			return nil
		}},
	)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for compactions.Load() < 2 || sweeps.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("compactions=%d sweeps=%d", compactions.Load(), sweeps.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
}

func TestMaintenanceServiceDefaults(t *testing.T) {
	t.Parallel()

	svc := NewMaintenanceService(0, zerolog.Nop())
	if svc.interval != 10*time.Minute {
		t.Errorf("interval = %v, want 10m", svc.interval)
	}
	if svc.String() != "maintenance" {
		t.Errorf("String() = %q", svc.String())
	}
}
