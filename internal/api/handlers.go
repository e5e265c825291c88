// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

// Package api implements the HTTP surface: batch ingestion, event queries,
// statistics, sessions, the model registry, health probes, and the live
// feed upgrade endpoint.
package api

import (
	"time"

	"github.com/gridwatch/gridwatch/internal/config"
	"github.com/gridwatch/gridwatch/internal/database"
	"github.com/gridwatch/gridwatch/internal/ingest"
	"github.com/gridwatch/gridwatch/internal/websocket"
)

// Version is the reported service version.
const Version = "1.0.0"

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	db        *database.DB
	ingest    *ingest.Service
	hub       *websocket.Hub
	feed      *websocket.Feed
	config    *config.Config
	startTime time.Time
}

// NewHandler creates a new Handler with the given dependencies.
func NewHandler(db *database.DB, ingestSvc *ingest.Service, hub *websocket.Hub, feed *websocket.Feed, cfg *config.Config) *Handler {
	return &Handler{
		db:        db,
		ingest:    ingestSvc,
		hub:       hub,
		feed:      feed,
		config:    cfg,
		startTime: time.Now(),
	}
}
