// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

package database

import (
	"context"
	"testing"
	"time"

	"github.com/gridwatch/gridwatch/internal/models"
)

func TestGetSessionsActiveFilterAndPagination(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	var events []*models.AuditEvent
	var updates []SessionUpdate
	for i := 0; i < 5; i++ {
		e := makeEvent(string(rune('a'+i))+"-sess", base.Add(time.Duration(i)*time.Hour), models.EventWorkbookOpen)
		events = append(events, e)
		updates = append(updates, sessionUpdateFor([]*models.AuditEvent{e}))
	}
	if _, _, err := db.IngestBatch(ctx, events, updates, 10); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	sessions, total, err := db.GetSessions(ctx, false, 2, 0)
	if err != nil {
		t.Fatalf("GetSessions failed: %v", err)
	}
	if total != 5 {
		t.Errorf("expected independent total 5, got %d", total)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected page of 2, got %d", len(sessions))
	}
	if !sessions[0].StartTime.After(sessions[1].StartTime) {
		t.Error("expected sessions ordered by start_time descending")
	}

	// Close everything older than 2h, then check the active filter
	closed, err := db.CloseStaleSessions(ctx, base.Add(5*time.Hour), 2*time.Hour)
	if err != nil {
		t.Fatalf("CloseStaleSessions failed: %v", err)
	}
	if closed != 3 {
		t.Errorf("expected 3 sessions closed, got %d", closed)
	}

	active, activeTotal, err := db.GetSessions(ctx, true, 100, 0)
	if err != nil {
		t.Fatalf("GetSessions(activeOnly) failed: %v", err)
	}
	if activeTotal != 2 || len(active) != 2 {
		t.Errorf("expected 2 active sessions, got total=%d len=%d", activeTotal, len(active))
	}
	for _, s := range active {
		if s.EndTime != nil {
			t.Errorf("active session %s has end_time set", s.SessionID)
		}
	}
}

func TestCloseStaleSessionsEndTimeFromStart(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	events := []*models.AuditEvent{makeEvent("sess-stale", start, models.EventWorkbookOpen)}
	if _, _, err := db.IngestBatch(ctx, events, []SessionUpdate{sessionUpdateFor(events)}, 10); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	maxAge := 24 * time.Hour
	now := start.Add(48 * time.Hour)

	closed, err := db.CloseStaleSessions(ctx, now, maxAge)
	if err != nil {
		t.Fatalf("CloseStaleSessions failed: %v", err)
	}
	if closed != 1 {
		t.Fatalf("expected 1 session closed, got %d", closed)
	}

	session, err := db.GetSession(ctx, "sess-stale")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if session.EndTime == nil {
		t.Fatal("expected end_time to be set")
	}
	// end_time derives from start_time, not from the reap time
	want := start.Add(maxAge)
	if !session.EndTime.Equal(want) {
		t.Errorf("expected end_time %v, got %v", want, *session.EndTime)
	}
	if session.Active() {
		t.Error("closed session reported active")
	}
}

func TestCloseStaleSessionsLeavesFreshAlone(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	events := []*models.AuditEvent{makeEvent("sess-fresh", start, models.EventWorkbookOpen)}
	if _, _, err := db.IngestBatch(ctx, events, []SessionUpdate{sessionUpdateFor(events)}, 10); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	closed, err := db.CloseStaleSessions(ctx, start.Add(time.Hour), 24*time.Hour)
	if err != nil {
		t.Fatalf("CloseStaleSessions failed: %v", err)
	}
	if closed != 0 {
		t.Errorf("expected no sessions closed, got %d", closed)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetSession(context.Background(), "missing")
	if !IsNotFound(err) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
