// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

package database

import (
	"context"
	"fmt"
	"time"
)

// createTables creates the audit event, session, and model registry tables.
// All statements are idempotent so startup can run them unconditionally.
func (db *DB) createTables() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS audit_events (
			event_id VARCHAR PRIMARY KEY,
			timestamp TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL,
			event_type INTEGER NOT NULL,
			user_name VARCHAR(255),
			machine_name VARCHAR(255),
			user_domain VARCHAR(255),
			session_id VARCHAR(255),
			workbook_name VARCHAR(500),
			workbook_path VARCHAR(1000),
			sheet_name VARCHAR(255),
			cell_address VARCHAR(100),
			cell_count INTEGER,
			old_value TEXT,
			new_value TEXT,
			formula TEXT,
			details TEXT,
			error_message TEXT,
			correlation_id VARCHAR(255)
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id VARCHAR PRIMARY KEY,
			user_name VARCHAR(255) NOT NULL,
			machine_name VARCHAR(255) NOT NULL,
			start_time TIMESTAMP NOT NULL,
			end_time TIMESTAMP,
			event_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS models (
			model_id VARCHAR PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			version INTEGER NOT NULL,
			parent_model_id VARCHAR,
			description TEXT,
			created_by VARCHAR(255),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// createIndexes creates indexes matching the query engine's filter dimensions.
func (db *DB) createIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_events_timestamp ON audit_events (timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_events_type ON audit_events (event_type)`,
		`CREATE INDEX IF NOT EXISTS idx_events_user_ts ON audit_events (user_name, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_events_session_ts ON audit_events (session_id, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_events_workbook_ts ON audit_events (workbook_name, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_events_correlation ON audit_events (correlation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_start ON sessions (start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_models_name ON models (name, version)`,
	}

	for _, stmt := range indexes {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
