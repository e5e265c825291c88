// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/gridwatch/gridwatch/internal/metrics"
	"github.com/gridwatch/gridwatch/internal/models"
)

// GetStatistics computes aggregate statistics over [start, end], inclusive.
// Callers are responsible for defaulting the window; the store applies the
// bounds exactly as given.
func (db *DB) GetStatistics(ctx context.Context, start, end time.Time) (*models.EventStatistics, error) {
	began := time.Now()
	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	stats := &models.EventStatistics{
		EventsByType: make(map[string]int),
		StartTime:    start.UTC(),
		EndTime:      end.UTC(),
	}

	query := `SELECT
		COUNT(*),
		COUNT(DISTINCT user_name),
		COUNT(DISTINCT session_id),
		COUNT(DISTINCT workbook_name) FILTER (WHERE workbook_name IS NOT NULL)
	FROM audit_events
	WHERE timestamp >= ? AND timestamp <= ?`

	err := db.conn.QueryRowContext(ctx, query, start.UTC(), end.UTC()).Scan(
		&stats.TotalEvents, &stats.UniqueUsers, &stats.UniqueSessions, &stats.UniqueWorkbooks,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}

	typeQuery := `SELECT event_type, COUNT(*)
		FROM audit_events
		WHERE timestamp >= ? AND timestamp <= ?
		GROUP BY event_type`

	rows, err := db.conn.QueryContext(ctx, typeQuery, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to compute per-type counts: %w", err)
	}
	defer closeWithLog(rows, "statistics rows")

	for rows.Next() {
		var eventType, count int
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan per-type count: %w", err)
		}
		stats.EventsByType[models.EventType(eventType).String()] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("per-type count iteration failed: %w", err)
	}

	metrics.RecordQuery("statistics", time.Since(began))
	return stats, nil
}

// GetDashboardMetrics computes the aggregate snapshot for the live feed
// and dashboard metrics endpoint.
func (db *DB) GetDashboardMetrics(ctx context.Context) (*models.DashboardMetrics, error) {
	began := time.Now()
	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	m := &models.DashboardMetrics{}

	// Cells changed sums cell_count wherever the producer supplied one;
	// only mutation events carry the field.
	query := `SELECT
		COUNT(*),
		COALESCE(SUM(cell_count), 0),
		COUNT(DISTINCT workbook_name) FILTER (WHERE workbook_name IS NOT NULL),
		COUNT(DISTINCT workbook_name || '||' || sheet_name)
			FILTER (WHERE workbook_name IS NOT NULL AND sheet_name IS NOT NULL)
	FROM audit_events`

	err := db.conn.QueryRowContext(ctx, query).Scan(
		&m.TotalEvents, &m.TotalCellsChanged, &m.TotalWorkbooks, &m.TotalSheets,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute dashboard metrics: %w", err)
	}

	active, err := db.CountActiveSessions(ctx)
	if err != nil {
		return nil, err
	}
	m.ActiveSessions = active
	m.DatabaseSizeBytes = db.SizeBytes()

	metrics.RecordQuery("dashboard_metrics", time.Since(began))
	return m, nil
}
