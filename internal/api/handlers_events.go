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
	"github.com/gridwatch/gridwatch/internal/logging"
	"github.com/gridwatch/gridwatch/internal/models"
)

// EventsRequest captures validated query parameters for event listing.
type EventsRequest struct {
	Limit  int `validate:"min=1,max=1000"`
	Offset int `validate:"min=0"`
}

// IngestBatch handles POST /api/v1/events/batch.
//
// Batches are all-or-nothing: an invalid event or an oversize batch rejects
// the whole request with a VALIDATION_ERROR. Duplicate event IDs within an
// accepted batch are skipped silently.
func (h *Handler) IngestBatch(w http.ResponseWriter, r *http.Request) {
	began := time.Now()

	var events []*models.AuditEvent
	if err := json.NewDecoder(r.Body).Decode(&events); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Request body must be a JSON array of events", err)
		return
	}

	result, err := h.ingest.Ingest(r.Context(), events)
	if err != nil {
		// The ingest service still reports the structured outcome
		// (accepted=0, rejected=len, errors) on storage failure.
		logging.Error().Str("error", sanitizeLogValue(err.Error())).Msg("batch persistence failed")
		respondJSON(w, http.StatusInternalServerError, &models.APIResponse{
			Status: "error",
			Data:   result,
			Metadata: models.Metadata{
				Timestamp:   time.Now(),
				QueryTimeMS: time.Since(began).Milliseconds(),
			},
			Error: &models.APIError{
				Code:    "DATABASE_ERROR",
				Message: "Failed to persist batch",
			},
		})
		return
	}

	if result.Rejected > 0 || result.Accepted == 0 {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{
			Status: "error",
			Data:   result,
			Metadata: models.Metadata{
				Timestamp:   time.Now(),
				QueryTimeMS: time.Since(began).Milliseconds(),
			},
			Error: &models.APIError{
				Code:    "VALIDATION_ERROR",
				Message: result.Errors[0],
			},
		})
		return
	}

	respondSuccess(w, http.StatusOK, result, began)
}

// QueryEvents handles GET /api/v1/events.
//
// All filters combine with AND; multi-value filters (comma-separated) match
// any of their values. The total in the response counts all matching rows
// independently of pagination.
func (h *Handler) QueryEvents(w http.ResponseWriter, r *http.Request) {
	began := time.Now()

	req := EventsRequest{
		Limit:  getIntParam(r, "limit", 100),
		Offset: getIntParam(r, "offset", 0),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	startTime, err := parseTimeParam(r, "start_time")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	endTime, err := parseTimeParam(r, "end_time")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	filter := &database.EventFilter{
		EventTypes:    parseCommaSeparatedInts(r.URL.Query().Get("event_types")),
		Users:         parseCommaSeparated(r.URL.Query().Get("users")),
		SessionIDs:    parseCommaSeparated(r.URL.Query().Get("session_ids")),
		WorkbookNames: parseCommaSeparated(r.URL.Query().Get("workbooks")),
		StartTime:     startTime,
		EndTime:       endTime,
		SortBy:        r.URL.Query().Get("sort_by"),
		SortOrder:     r.URL.Query().Get("sort_order"),
		Limit:         req.Limit,
		Offset:        req.Offset,
	}
	if correlationID := r.URL.Query().Get("correlation_id"); correlationID != "" {
		filter.CorrelationID = &correlationID
	}

	events, total, err := h.db.QueryEvents(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query events", err)
		return
	}

	respondSuccess(w, http.StatusOK, models.EventPage{
		Events: events,
		Total:  total,
		Limit:  req.Limit,
		Offset: req.Offset,
	}, began)
}

// GetEvent handles GET /api/v1/events/{id}.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	began := time.Now()

	eventID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(eventID); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Event id must be a valid UUID", nil)
		return
	}

	event, err := h.db.GetEventByID(r.Context(), eventID)
	if err != nil {
		if database.IsNotFound(err) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Event not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load event", err)
		return
	}

	respondSuccess(w, http.StatusOK, event, began)
}
