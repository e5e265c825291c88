// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

// Package ingest implements the batch ingestion pipeline. Batches are
// all-or-nothing: any invalid event, or a batch exceeding the configured
// maximum size, rejects the whole batch before the store is touched.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gridwatch/gridwatch/internal/config"
	"github.com/gridwatch/gridwatch/internal/database"
	"github.com/gridwatch/gridwatch/internal/logging"
	"github.com/gridwatch/gridwatch/internal/metrics"
	"github.com/gridwatch/gridwatch/internal/models"
	"github.com/gridwatch/gridwatch/internal/validation"
)

// Service validates and persists batches of audit events.
type Service struct {
	db  *database.DB
	cfg *config.IngestConfig
}

// New creates an ingestion service backed by db.
func New(db *database.DB, cfg *config.IngestConfig) *Service {
	return &Service{db: db, cfg: cfg}
}

// Ingest processes one batch. The returned BatchResult always carries the
// outcome; the error return is reserved for storage failures so callers can
// map them to DATABASE_ERROR responses.
func (s *Service) Ingest(ctx context.Context, events []*models.AuditEvent) (*models.BatchResult, error) {
	started := time.Now()

	if len(events) == 0 {
		metrics.RecordBatchRejected(0)
		return &models.BatchResult{
			Rejected:         0,
			Errors:           []string{"Batch must contain at least one event"},
			ProcessingTimeMS: msSince(started),
		}, nil
	}

	if len(events) > s.cfg.MaxBatchSize {
		metrics.RecordBatchRejected(len(events))
		return &models.BatchResult{
			Rejected: len(events),
			Errors: []string{
				fmt.Sprintf("Batch size %d exceeds maximum %d", len(events), s.cfg.MaxBatchSize),
			},
			ProcessingTimeMS: msSince(started),
		}, nil
	}

	if errs := s.validateBatch(events); len(errs) > 0 {
		metrics.RecordBatchRejected(len(events))
		return &models.BatchResult{
			Rejected:         len(events),
			Errors:           errs,
			ProcessingTimeMS: msSince(started),
		}, nil
	}

	now := time.Now().UTC()
	for _, e := range events {
		if e.EventID == uuid.Nil {
			e.EventID = uuid.New()
		}
		e.Timestamp = e.Timestamp.UTC()
		e.CreatedAt = now
	}

	updates := deriveSessionUpdates(events)

	inserted, duplicates, err := s.db.IngestBatch(ctx, events, updates, s.cfg.InsertChunkSize)
	if err != nil {
		logging.Error().Err(err).Int("batch_size", len(events)).Msg("batch ingest failed")
		metrics.RecordBatchRejected(len(events))
		return &models.BatchResult{
			Rejected:         len(events),
			Errors:           []string{"Failed to persist batch"},
			ProcessingTimeMS: msSince(started),
		}, err
	}

	metrics.RecordBatchAccepted(inserted, time.Since(started))
	metrics.RecordDuplicateEvents(duplicates)

	logging.Debug().
		Int("inserted", inserted).
		Int("duplicates", duplicates).
		Int("sessions", len(updates)).
		Msg("batch ingested")

	return &models.BatchResult{
		Accepted:         len(events),
		ProcessingTimeMS: msSince(started),
	}, nil
}

// validateBatch runs struct validation over every event. All failures are
// collected so the client sees the full picture in one response.
func (s *Service) validateBatch(events []*models.AuditEvent) []string {
	var errs []string
	for i, e := range events {
		if e == nil {
			errs = append(errs, fmt.Sprintf("event %d: missing event body", i))
			continue
		}
		if verr := validation.ValidateStruct(e); verr != nil {
			errs = append(errs, fmt.Sprintf("event %d: %s", i, verr.Error()))
		}
	}
	return errs
}

// deriveSessionUpdates groups a batch by session_id and summarizes each
// group into one upsert. The earliest event in the group supplies the
// candidate start_time and the actor fields. Events without a session id
// contribute no session state.
func deriveSessionUpdates(events []*models.AuditEvent) []database.SessionUpdate {
	groups := make(map[string]*database.SessionUpdate)
	order := make([]string, 0)

	for _, e := range events {
		if e.SessionID == "" {
			continue
		}
		u, ok := groups[e.SessionID]
		if !ok {
			groups[e.SessionID] = &database.SessionUpdate{
				SessionID:   e.SessionID,
				UserName:    e.UserName,
				MachineName: e.MachineName,
				StartTime:   e.Timestamp,
				Count:       1,
			}
			order = append(order, e.SessionID)
			continue
		}

		u.Count++
		if e.Timestamp.Before(u.StartTime) {
			u.StartTime = e.Timestamp
			u.UserName = e.UserName
			u.MachineName = e.MachineName
		}
	}

	updates := make([]database.SessionUpdate, 0, len(order))
	for _, id := range order {
		updates = append(updates, *groups[id])
	}
	return updates
}

func msSince(t time.Time) int64 {
	return time.Since(t).Milliseconds()
}
