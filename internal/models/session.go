// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

package models

import "time"

// Session is the server-derived record of a spreadsheet client session.
//
// Sessions are never created directly by clients; they are derived during
// batch ingestion from the session_id carried on each event:
//
//   - StartTime is the earliest event timestamp ever observed for the
//     session (min-wins across ingests, so late-arriving batches can move
//     it backwards but never forwards)
//   - UserName and MachineName reflect the most recent ingest touching the
//     session
//   - EventCount accumulates across ingests
//   - EndTime is nil while the session is considered active; the stale
//     session reaper closes sessions that stay open past the activity window
type Session struct {
	SessionID   string     `json:"session_id"`
	UserName    string     `json:"user_name"`
	MachineName string     `json:"machine_name"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	EventCount  int        `json:"event_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Active reports whether the session has not been closed yet.
func (s *Session) Active() bool {
	return s.EndTime == nil
}
