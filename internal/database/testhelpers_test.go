// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

package database

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gridwatch/gridwatch/internal/config"
	"github.com/gridwatch/gridwatch/internal/models"
)

// setupTestDB creates an isolated in-memory database per test.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Path:         "", // in-memory
		MaxMemory:    "512MB",
		Threads:      2,
		QueryTimeout: 30 * time.Second,
	}

	db, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	return db
}

// makeEvent builds a valid audit event for tests.
func makeEvent(sessionID string, ts time.Time, eventType models.EventType) *models.AuditEvent {
	return &models.AuditEvent{
		EventID:     uuid.New(),
		Timestamp:   ts.UTC(),
		CreatedAt:   time.Now().UTC(),
		EventType:   eventType,
		UserName:    "alice",
		MachineName: "WORKSTATION-01",
		UserDomain:  "CORP",
		SessionID:   sessionID,
	}
}

// strPtr returns a pointer to s.
func strPtr(s string) *string {
	return &s
}

// intPtr returns a pointer to n.
func intPtr(n int) *int {
	return &n
}

// sessionUpdateFor summarizes a slice of events into one SessionUpdate,
// mirroring what the ingestion pipeline derives per batch group.
func sessionUpdateFor(events []*models.AuditEvent) SessionUpdate {
	earliest := events[0]
	for _, e := range events[1:] {
		if e.Timestamp.Before(earliest.Timestamp) {
			earliest = e
		}
	}
	return SessionUpdate{
		SessionID:   earliest.SessionID,
		UserName:    earliest.UserName,
		MachineName: earliest.MachineName,
		StartTime:   earliest.Timestamp,
		Count:       len(events),
	}
}
