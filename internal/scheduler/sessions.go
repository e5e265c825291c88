// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

package scheduler

import (
	"context"
	"time"

	"github.com/gridwatch/gridwatch/internal/config"
	"github.com/gridwatch/gridwatch/internal/database"
	"github.com/gridwatch/gridwatch/internal/logging"
	"github.com/gridwatch/gridwatch/internal/metrics"
)

// ReaperService closes sessions that never received a session-end event.
// Clients that crash or lose connectivity leave sessions open indefinitely;
// the reaper caps them at the configured maximum age.
type ReaperService struct {
	db  *database.DB
	cfg *config.RetentionConfig
}

// NewReaperService creates the stale session reaper job.
func NewReaperService(db *database.DB, cfg *config.RetentionConfig) *ReaperService {
	return &ReaperService{db: db, cfg: cfg}
}

// Serve implements suture.Service.
func (s *ReaperService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.SessionReaperInterval)
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

// runOnce executes a single reaper pass.
func (s *ReaperService) runOnce(ctx context.Context) {
	closed, err := s.db.CloseStaleSessions(ctx, time.Now().UTC(), s.cfg.SessionMaxAge)
	if err != nil {
		logging.Error().Err(err).Msg("stale session reaper failed")
		return
	}

	if closed > 0 {
		metrics.RecordSessionsReaped(closed)
		logging.Info().Int("closed", closed).Msg("stale sessions closed")
	}
}

// String implements fmt.Stringer for supervisor logging.
func (s *ReaperService) String() string {
	return "session-reaper"
}
