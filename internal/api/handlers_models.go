// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/gridwatch/gridwatch/internal/database"
	"github.com/gridwatch/gridwatch/internal/models"
)

// RegisterModel handles POST /api/v1/models.
//
// Without existing_model_id the registration creates version 1 of a new
// model. With it, the registration forks the named parent: version becomes
// parent version + 1 and the name must match the parent's name.
func (h *Handler) RegisterModel(w http.ResponseWriter, r *http.Request) {
	began := time.Now()

	var req models.ModelRegistration
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Request body must be a JSON model registration", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	model := &models.Model{
		ModelID:     uuid.New(),
		Name:        req.Name,
		Version:     1,
		Description: req.Description,
		CreatedBy:   req.CreatedBy,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}

	if req.ExistingModelID != nil {
		parent, err := h.db.GetModelByID(r.Context(), *req.ExistingModelID)
		if err != nil {
			if database.IsNotFound(err) {
				respondError(w, http.StatusNotFound, "NOT_FOUND", "Parent model not found", nil)
				return
			}
			respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load parent model", err)
			return
		}
		if parent.Name != req.Name {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Model name must match the parent model name", nil)
			return
		}
		model.Version = parent.Version + 1
		parentID := parent.ModelID.String()
		model.ParentModelID = &parentID
	}

	if err := h.db.InsertModel(r.Context(), model); err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to register model", err)
		return
	}

	respondSuccess(w, http.StatusCreated, model, began)
}

// GetModel handles GET /api/v1/models/{id}.
func (h *Handler) GetModel(w http.ResponseWriter, r *http.Request) {
	began := time.Now()

	modelID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(modelID); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Model id must be a valid UUID", nil)
		return
	}

	model, err := h.db.GetModelByID(r.Context(), modelID)
	if err != nil {
		if database.IsNotFound(err) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Model not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load model", err)
		return
	}

	respondSuccess(w, http.StatusOK, model, began)
}

// ListModels handles GET /api/v1/models. Only the latest active version of
// each model name is returned.
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	began := time.Now()

	list, err := h.db.GetLatestModels(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list models", err)
		return
	}
	if list == nil {
		list = []models.Model{}
	}

	respondSuccess(w, http.StatusOK, list, began)
}
