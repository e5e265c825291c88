// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gridwatch/gridwatch/internal/database"
	"github.com/gridwatch/gridwatch/internal/models"
)

// Sessions handles GET /api/v1/sessions.
// Sessions are ordered by start_time descending; active_only=true filters
// to sessions without an end_time.
func (h *Handler) Sessions(w http.ResponseWriter, r *http.Request) {
	began := time.Now()

	req := EventsRequest{
		Limit:  getIntParam(r, "limit", 100),
		Offset: getIntParam(r, "offset", 0),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	activeOnly := r.URL.Query().Get("active_only") == "true"

	sessions, total, err := h.db.GetSessions(r.Context(), activeOnly, req.Limit, req.Offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query sessions", err)
		return
	}

	respondSuccess(w, http.StatusOK, models.SessionPage{
		Sessions: sessions,
		Total:    total,
		Limit:    req.Limit,
		Offset:   req.Offset,
	}, began)
}

// GetSession handles GET /api/v1/sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	began := time.Now()

	sessionID := chi.URLParam(r, "id")

	session, err := h.db.GetSession(r.Context(), sessionID)
	if err != nil {
		if database.IsNotFound(err) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Session not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load session", err)
		return
	}

	respondSuccess(w, http.StatusOK, session, began)
}
