// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

package api

import (
	"net/http"
	"time"
)

// Statistics handles GET /api/v1/statistics.
//
// Without explicit bounds the window is the trailing 24 hours. A supplied
// start without an end (or vice versa) anchors the other bound the same way.
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	began := time.Now()

	startParam, err := parseTimeParam(r, "start_time")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	endParam, err := parseTimeParam(r, "end_time")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	end := time.Now().UTC()
	if endParam != nil {
		end = *endParam
	}
	start := end.Add(-24 * time.Hour)
	if startParam != nil {
		start = *startParam
	}

	// An inverted window is applied literally and yields zero counts.
	stats, err := h.db.GetStatistics(r.Context(), start, end)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to compute statistics", err)
		return
	}

	respondSuccess(w, http.StatusOK, stats, began)
}

// DashboardMetrics handles GET /api/v1/metrics/dashboard.
func (h *Handler) DashboardMetrics(w http.ResponseWriter, r *http.Request) {
	began := time.Now()

	metrics, err := h.db.GetDashboardMetrics(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to compute dashboard metrics", err)
		return
	}

	respondSuccess(w, http.StatusOK, metrics, began)
}
