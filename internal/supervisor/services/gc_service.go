// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package services

import (
	"context"
	"time"

	"github.com/watchpoints/watchpoints/internal/logging"
)

// Collector runs one garbage collection pass over a store.
type Collector interface {
	RunGC() error
}

// GCService periodically garbage-collects the ledger store's value log.
type GCService struct {
	store    Collector
	interval time.Duration
	name     string
}

// NewGCService creates the GC loop. interval must be positive; callers
// gate on config before wiring the service.
func NewGCService(store Collector, interval time.Duration) *GCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &GCService{
		store:    store,
		interval: interval,
		name:     "ledger-gc",
	}
}

// Serve implements suture.Service.
func (s *GCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.store.RunGC(); err != nil {
				logging.Warn().Err(err).Msg("ledger value log GC failed")
			}
		}
	}
}

// String implements fmt.Stringer for suture's log messages.
func (s *GCService) String() string {
	return s.name
}
