// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

package models

import "time"

// EventStatistics summarizes audit activity over a time window.
// The window defaults to the trailing 24 hours when the caller supplies
// no bounds.
type EventStatistics struct {
	TotalEvents     int            `json:"total_events"`
	EventsByType    map[string]int `json:"events_by_type"`
	UniqueUsers     int            `json:"unique_users"`
	UniqueSessions  int            `json:"unique_sessions"`
	UniqueWorkbooks int            `json:"unique_workbooks"`
	StartTime       time.Time      `json:"start_time"`
	EndTime         time.Time      `json:"end_time"`
}

// DashboardMetrics is the aggregate snapshot pushed to live feed clients
// and served on the dashboard metrics endpoint.
//
// TotalCellsChanged sums cell_count over cell-mutating event types
// (CELL_CHANGE, RANGE_CHANGE, PASTE_CELLS). TotalSheets counts distinct
// workbook+sheet pairs. DatabaseSizeBytes is 0 for in-memory stores.
type DashboardMetrics struct {
	TotalEvents       int   `json:"total_events"`
	TotalCellsChanged int   `json:"total_cells_changed"`
	TotalWorkbooks    int   `json:"total_workbooks"`
	TotalSheets       int   `json:"total_sheets"`
	ActiveSessions    int   `json:"active_sessions"`
	DatabaseSizeBytes int64 `json:"database_size_bytes"`
}
