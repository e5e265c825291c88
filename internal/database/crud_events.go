// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gridwatch/gridwatch/internal/logging"
	"github.com/gridwatch/gridwatch/internal/models"
)

// eventColumns is the canonical column list for audit_events, used by both
// inserts and scans so the two can never drift apart.
const eventColumns = `event_id, timestamp, created_at, event_type,
	user_name, machine_name, user_domain, session_id,
	workbook_name, workbook_path, sheet_name,
	cell_address, cell_count,
	old_value, new_value, formula, details, error_message,
	correlation_id`

const eventColumnCount = 19

// SessionUpdate carries the per-session aggregate derived from a batch.
// StartTime is the earliest event timestamp in the batch group; Count is
// the number of events the group contributes to the session.
type SessionUpdate struct {
	SessionID   string
	UserName    string
	MachineName string
	StartTime   time.Time
	Count       int
}

// IngestBatch persists a validated batch of events and its derived session
// updates in a single transaction. Events are inserted in chunks of
// chunkSize rows; a failure anywhere rolls back the entire batch including
// the session updates.
//
// Duplicate event ids already present in the store are skipped via
// ON CONFLICT DO NOTHING and reported in the duplicates count.
func (db *DB) IngestBatch(ctx context.Context, events []*models.AuditEvent, updates []SessionUpdate, chunkSize int) (inserted, duplicates int, err error) {
	if len(events) == 0 {
		return 0, 0, nil
	}
	if chunkSize < 1 {
		chunkSize = len(events)
	}

	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Ensure transaction is finalized
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().
					Err(rbErr).
					AnErr("original_error", err).
					Msg("Transaction rollback failed")
			}
		}
	}()

	if err = upsertSessionsTx(ctx, tx, updates); err != nil {
		return 0, 0, err
	}

	for start := 0; start < len(events); start += chunkSize {
		end := start + chunkSize
		if end > len(events) {
			end = len(events)
		}

		var n int
		n, err = insertEventChunkTx(ctx, tx, events[start:end])
		if err != nil {
			return 0, 0, err
		}
		inserted += n
	}

	duplicates = len(events) - inserted
	if duplicates > 0 {
		logging.Debug().Int("duplicates", duplicates).Msg("skipped duplicate event ids in batch")
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit batch: %w", err)
	}

	return inserted, duplicates, nil
}

// insertEventChunkTx inserts one chunk of events with a multi-row VALUES
// statement and returns the number of rows actually inserted.
func insertEventChunkTx(ctx context.Context, tx *sql.Tx, events []*models.AuditEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	row := "(" + strings.TrimSuffix(strings.Repeat("?, ", eventColumnCount), ", ") + ")"
	rows := make([]string, len(events))
	args := make([]interface{}, 0, len(events)*eventColumnCount)

	for i, event := range events {
		rows[i] = row
		args = append(args,
			event.EventID.String(), event.Timestamp, event.CreatedAt, int(event.EventType),
			nullIfEmpty(event.UserName), nullIfEmpty(event.MachineName),
			nullIfEmpty(event.UserDomain), nullIfEmpty(event.SessionID),
			event.WorkbookName, event.WorkbookPath, event.SheetName,
			event.CellAddress, event.CellCount,
			event.OldValue, event.NewValue, event.Formula, event.Details, event.ErrorMessage,
			event.CorrelationID,
		)
	}

	query := fmt.Sprintf("INSERT INTO audit_events (%s) VALUES %s ON CONFLICT DO NOTHING",
		eventColumns, strings.Join(rows, ", "))

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert event chunk: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		// Driver could not report the count; assume the full chunk landed
		return len(events), nil
	}
	return int(affected), nil
}

// QueryEvents returns a page of events matching the filter plus an
// independent total count over the same conditions.
func (db *DB) QueryEvents(ctx context.Context, filter *EventFilter) ([]models.AuditEvent, int, error) {
	start := time.Now()
	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	whereClause, args := buildFilterWhereClause(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf("SELECT %s FROM audit_events %s %s LIMIT ? OFFSET ?",
		eventColumns, whereClause, filter.OrderClause())
	queryArgs := append(append([]interface{}{}, args...), limit, offset)

	rows, err := db.conn.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query events: %w", err)
	}
	defer closeWithLog(rows, "event rows")

	events, err := scanEvents(rows)
	if err != nil {
		return nil, 0, err
	}

	countQuery := "SELECT COUNT(*) FROM audit_events " + whereClause
	var total int
	if err := db.conn.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	logging.Debug().
		Int("returned", len(events)).
		Int("total", total).
		Dur("elapsed", time.Since(start)).
		Msg("event query completed")

	return events, total, nil
}

// GetEventByID returns a single event or ErrNotFound.
func (db *DB) GetEventByID(ctx context.Context, eventID string) (*models.AuditEvent, error) {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM audit_events WHERE event_id = ?", eventColumns)

	rows, err := db.conn.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query event %s: %w", eventID, err)
	}
	defer closeWithLog(rows, "event rows")

	events, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("event %s: %w", eventID, ErrNotFound)
	}
	return &events[0], nil
}

// GetRecentEvents returns the newest events in descending timestamp order.
// Used for the live feed's initial snapshot.
func (db *DB) GetRecentEvents(ctx context.Context, limit int) ([]models.AuditEvent, error) {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM audit_events ORDER BY timestamp DESC LIMIT ?", eventColumns)

	rows, err := db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer closeWithLog(rows, "event rows")

	return scanEvents(rows)
}

// GetEventsSince returns events strictly newer than the watermark, newest
// first, capped at limit. Used by live feed polling.
func (db *DB) GetEventsSince(ctx context.Context, watermark time.Time, limit int) ([]models.AuditEvent, error) {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM audit_events WHERE timestamp > ? ORDER BY timestamp DESC LIMIT ?", eventColumns)

	rows, err := db.conn.QueryContext(ctx, query, watermark.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events since watermark: %w", err)
	}
	defer closeWithLog(rows, "event rows")

	return scanEvents(rows)
}

// scanEvents drains rows into AuditEvent values.
func scanEvents(rows *sql.Rows) ([]models.AuditEvent, error) {
	var events []models.AuditEvent

	for rows.Next() {
		var event models.AuditEvent
		var idStr string
		var eventType int
		var userName, machineName, userDomain, sessionID sql.NullString

		err := rows.Scan(
			&idStr, &event.Timestamp, &event.CreatedAt, &eventType,
			&userName, &machineName, &userDomain, &sessionID,
			&event.WorkbookName, &event.WorkbookPath, &event.SheetName,
			&event.CellAddress, &event.CellCount,
			&event.OldValue, &event.NewValue, &event.Formula, &event.Details, &event.ErrorMessage,
			&event.CorrelationID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}

		event.EventID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("invalid event id %q in store: %w", idStr, err)
		}
		event.UserName = userName.String
		event.MachineName = machineName.String
		event.UserDomain = userDomain.String
		event.SessionID = sessionID.String
		event.EventType = models.EventType(eventType)
		event.Timestamp = event.Timestamp.UTC()
		event.CreatedAt = event.CreatedAt.UTC()

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("event row iteration failed: %w", err)
	}

	return events, nil
}

// upsertSessionsTx applies session derivations inside the ingest transaction.
//
// The conflict clause encodes the session merge rules: start_time keeps the
// minimum ever observed, actor fields take the incoming value, and
// event_count accumulates.
func upsertSessionsTx(ctx context.Context, tx *sql.Tx, updates []SessionUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	query := `INSERT INTO sessions (
		session_id, user_name, machine_name, start_time, end_time,
		event_count, created_at, updated_at
	) VALUES (?, ?, ?, ?, NULL, ?, ?, ?)
	ON CONFLICT (session_id) DO UPDATE SET
		start_time = LEAST(sessions.start_time, excluded.start_time),
		user_name = excluded.user_name,
		machine_name = excluded.machine_name,
		event_count = sessions.event_count + excluded.event_count,
		updated_at = excluded.updated_at`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare session upsert: %w", err)
	}
	defer closeWithLog(stmt, "session upsert statement")

	now := time.Now().UTC()
	for _, update := range updates {
		if _, err := stmt.ExecContext(ctx,
			update.SessionID, update.UserName, update.MachineName,
			update.StartTime.UTC(), update.Count, now, now,
		); err != nil {
			return fmt.Errorf("failed to upsert session %s: %w", update.SessionID, err)
		}
	}

	return nil
}

// nullIfEmpty maps absent optional identifiers to NULL so distinct counts
// and actor filters never see a phantom empty-string value.
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// IsNotFound reports whether err indicates a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
