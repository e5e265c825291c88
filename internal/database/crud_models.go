// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/gridwatch/gridwatch/internal/models"
)

const modelColumns = `model_id, name, version, parent_model_id, description,
	created_by, is_active, created_at`

// InsertModel persists a model registry row.
func (db *DB) InsertModel(ctx context.Context, m *models.Model) error {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	query := `INSERT INTO models (
		model_id, name, version, parent_model_id, description,
		created_by, is_active, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.conn.ExecContext(ctx, query,
		m.ModelID.String(), m.Name, m.Version, m.ParentModelID, m.Description,
		m.CreatedBy, m.IsActive, m.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert model %s: %w", m.ModelID, err)
	}
	return nil
}

// GetModelByID returns a single model or ErrNotFound.
func (db *DB) GetModelByID(ctx context.Context, modelID string) (*models.Model, error) {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM models WHERE model_id = ?", modelColumns)

	rows, err := db.conn.QueryContext(ctx, query, modelID)
	if err != nil {
		return nil, fmt.Errorf("failed to query model %s: %w", modelID, err)
	}
	defer closeWithLog(rows, "model rows")

	list, err := scanModels(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("model %s: %w", modelID, ErrNotFound)
	}
	return &list[0], nil
}

// GetLatestModels returns the latest active version of each model name,
// ordered by name.
func (db *DB) GetLatestModels(ctx context.Context) ([]models.Model, error) {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM models m
		WHERE m.is_active
		  AND m.version = (SELECT MAX(version) FROM models WHERE name = m.name AND is_active)
		ORDER BY m.name`, modelColumns)

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest models: %w", err)
	}
	defer closeWithLog(rows, "model rows")

	return scanModels(rows)
}

// scanModels drains rows into Model values.
func scanModels(rows *sql.Rows) ([]models.Model, error) {
	var list []models.Model

	for rows.Next() {
		var m models.Model
		var idStr string

		err := rows.Scan(
			&idStr, &m.Name, &m.Version, &m.ParentModelID, &m.Description,
			&m.CreatedBy, &m.IsActive, &m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan model row: %w", err)
		}

		m.ModelID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("invalid model id %q in store: %w", idStr, err)
		}
		m.CreatedAt = m.CreatedAt.UTC()

		list = append(list, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("model row iteration failed: %w", err)
	}

	return list, nil
}
