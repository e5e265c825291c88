// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gridwatch/gridwatch/internal/models"
)

func makeModel(name string, version int, parentID *string) *models.Model {
	description := "test model"
	createdBy := "alice"
	return &models.Model{
		ModelID:       uuid.New(),
		Name:          name,
		Version:       version,
		ParentModelID: parentID,
		Description:   &description,
		CreatedBy:     &createdBy,
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestInsertAndGetModel(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	m := makeModel("revenue-forecast", 1, nil)
	if err := db.InsertModel(ctx, m); err != nil {
		t.Fatalf("InsertModel failed: %v", err)
	}

	got, err := db.GetModelByID(ctx, m.ModelID.String())
	if err != nil {
		t.Fatalf("GetModelByID failed: %v", err)
	}
	if got.Name != "revenue-forecast" || got.Version != 1 {
		t.Errorf("unexpected model: %+v", got)
	}
	if got.ParentModelID != nil {
		t.Error("expected nil parent for root model")
	}

	_, err = db.GetModelByID(ctx, uuid.New().String())
	if !IsNotFound(err) {
		t.Errorf("expected ErrNotFound for missing model, got %v", err)
	}
}

func TestGetLatestModelsPerName(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	v1 := makeModel("revenue-forecast", 1, nil)
	parentID := v1.ModelID.String()
	v2 := makeModel("revenue-forecast", 2, &parentID)
	inventory := makeModel("inventory", 1, nil)

	inactive := makeModel("retired", 3, nil)
	inactive.IsActive = false

	for _, m := range []*models.Model{v1, v2, inventory, inactive} {
		if err := db.InsertModel(ctx, m); err != nil {
			t.Fatalf("InsertModel failed: %v", err)
		}
	}

	latest, err := db.GetLatestModels(ctx)
	if err != nil {
		t.Fatalf("GetLatestModels failed: %v", err)
	}

	if len(latest) != 2 {
		t.Fatalf("expected 2 latest models, got %d", len(latest))
	}
	// Ordered by name
	if latest[0].Name != "inventory" || latest[0].Version != 1 {
		t.Errorf("unexpected first model: %+v", latest[0])
	}
	if latest[1].Name != "revenue-forecast" || latest[1].Version != 2 {
		t.Errorf("expected revenue-forecast v2, got %+v", latest[1])
	}
	if latest[1].ParentModelID == nil || *latest[1].ParentModelID != parentID {
		t.Error("expected fork to carry its parent id")
	}
}
