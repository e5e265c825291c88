// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

// Package scheduler contains the supervised background jobs: retention
// cleanup and stale session reaping. Each job is a suture.Service that runs
// a ticker loop until its context is canceled.
package scheduler

import (
	"context"
	"time"

	"github.com/gridwatch/gridwatch/internal/config"
	"github.com/gridwatch/gridwatch/internal/database"
	"github.com/gridwatch/gridwatch/internal/logging"
)

// CleanupService deletes events older than the retention window on a
// fixed interval. Deletion happens in batches so a large backlog never
// holds one long-running statement.
type CleanupService struct {
	db  *database.DB
	cfg *config.RetentionConfig
}

// NewCleanupService creates the retention cleanup job.
func NewCleanupService(db *database.DB, cfg *config.RetentionConfig) *CleanupService {
	return &CleanupService{db: db, cfg: cfg}
}

// Serve implements suture.Service. One cleanup pass runs immediately at
// startup, then on every tick. Failures are logged and retried on the next
// tick rather than crashing the service.
func (s *CleanupService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()

	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce executes a single retention pass.
func (s *CleanupService) runOnce(ctx context.Context) {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.cfg.EventRetentionDays)

	deleted, err := s.db.DeleteEventsBefore(ctx, cutoff, s.cfg.DeleteBatchSize)
	if err != nil {
		logging.Error().Err(err).
			Time("cutoff", cutoff).
			Int("deleted_before_error", deleted).
			Msg("retention cleanup failed")
		return
	}

	if deleted > 0 {
		logging.Info().
			Int("deleted", deleted).
			Time("cutoff", cutoff).
			Msg("retention cleanup completed")
	}
}

// String implements fmt.Stringer for supervisor logging.
func (s *CleanupService) String() string {
	return "retention-cleanup"
}
