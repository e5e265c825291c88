// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

package models

import (
	"time"

	"github.com/google/uuid"
)

// Model represents a registered spreadsheet model (a governed workbook
// template tracked through versions).
//
// Versioning rules:
//   - Registering a name with no parent creates version 1
//   - Registering with a parent model id creates a fork: a new row with a
//     fresh id and version = parent version + 1; the name must match the
//     parent's name
//   - Listing returns only the latest active version per name
type Model struct {
	ModelID       uuid.UUID `json:"model_id"`
	Name          string    `json:"name"`
	Version       int       `json:"version"`
	ParentModelID *string   `json:"parent_model_id,omitempty"`
	Description   *string   `json:"description,omitempty"`
	CreatedBy     *string   `json:"created_by,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// ModelRegistration is the request payload for registering a model version.
type ModelRegistration struct {
	Name            string  `json:"name" validate:"required,max=255"`
	Description     *string `json:"description,omitempty"`
	CreatedBy       *string `json:"created_by,omitempty" validate:"omitempty,max=255"`
	ExistingModelID *string `json:"existing_model_id,omitempty" validate:"omitempty,uuid"`
}
