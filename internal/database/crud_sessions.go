// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gridwatch/gridwatch/internal/models"
)

const sessionColumns = `session_id, user_name, machine_name, start_time, end_time,
	event_count, created_at, updated_at`

// GetSessions returns a page of sessions ordered by start_time descending,
// plus an independent total count. When activeOnly is set, only sessions
// without an end_time are returned.
func (db *DB) GetSessions(ctx context.Context, activeOnly bool, limit, offset int) ([]models.Session, int, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	where := "WHERE 1=1"
	if activeOnly {
		where += " AND end_time IS NULL"
	}

	query := fmt.Sprintf("SELECT %s FROM sessions %s ORDER BY start_time DESC LIMIT ? OFFSET ?",
		sessionColumns, where)

	rows, err := db.conn.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer closeWithLog(rows, "session rows")

	sessions, err := scanSessions(rows)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions "+where).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	return sessions, total, nil
}

// GetSession returns a single session or ErrNotFound.
func (db *DB) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM sessions WHERE session_id = ?", sessionColumns)

	rows, err := db.conn.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session %s: %w", sessionID, err)
	}
	defer closeWithLog(rows, "session rows")

	sessions, err := scanSessions(rows)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	return &sessions[0], nil
}

// CloseStaleSessions closes sessions that have stayed open longer than
// maxAge by setting end_time = start_time + maxAge. Returns the number of
// sessions closed.
func (db *DB) CloseStaleSessions(ctx context.Context, now time.Time, maxAge time.Duration) (int, error) {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	cutoff := now.UTC().Add(-maxAge)

	query := `UPDATE sessions
		SET end_time = start_time + ?::INTERVAL, updated_at = ?
		WHERE end_time IS NULL AND start_time < ?`

	interval := fmt.Sprintf("%d seconds", int64(maxAge.Seconds()))
	result, err := db.conn.ExecContext(ctx, query, interval, now.UTC(), cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to close stale sessions: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(affected), nil
}

// CountActiveSessions returns the number of sessions without an end_time.
func (db *DB) CountActiveSessions(ctx context.Context) (int, error) {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	var count int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions WHERE end_time IS NULL").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active sessions: %w", err)
	}
	return count, nil
}

// scanSessions drains rows into Session values.
func scanSessions(rows *sql.Rows) ([]models.Session, error) {
	var sessions []models.Session

	for rows.Next() {
		var s models.Session
		err := rows.Scan(
			&s.SessionID, &s.UserName, &s.MachineName, &s.StartTime, &s.EndTime,
			&s.EventCount, &s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}

		s.StartTime = s.StartTime.UTC()
		s.CreatedAt = s.CreatedAt.UTC()
		s.UpdatedAt = s.UpdatedAt.UTC()
		if s.EndTime != nil {
			t := s.EndTime.UTC()
			s.EndTime = &t
		}

		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session row iteration failed: %w", err)
	}

	return sessions, nil
}
