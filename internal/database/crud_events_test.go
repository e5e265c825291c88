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

func TestIngestBatchInsertsEventsAndSessions(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	events := []*models.AuditEvent{
		makeEvent("sess-1", base, models.EventWorkbookOpen),
		makeEvent("sess-1", base.Add(time.Minute), models.EventCellChange),
		makeEvent("sess-1", base.Add(2*time.Minute), models.EventWorkbookSave),
	}

	inserted, duplicates, err := db.IngestBatch(ctx, events, []SessionUpdate{sessionUpdateFor(events)}, 2)
	if err != nil {
		t.Fatalf("IngestBatch failed: %v", err)
	}
	if inserted != 3 {
		t.Errorf("expected 3 inserted, got %d", inserted)
	}
	if duplicates != 0 {
		t.Errorf("expected 0 duplicates, got %d", duplicates)
	}

	session, err := db.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if !session.StartTime.Equal(base) {
		t.Errorf("expected session start %v, got %v", base, session.StartTime)
	}
	if session.EventCount != 3 {
		t.Errorf("expected event count 3, got %d", session.EventCount)
	}
	if session.EndTime != nil {
		t.Error("expected new session to be active")
	}
}

func TestIngestBatchSkipsDuplicateEventIDs(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	first := makeEvent("sess-1", base, models.EventWorkbookOpen)

	if _, _, err := db.IngestBatch(ctx, []*models.AuditEvent{first},
		[]SessionUpdate{sessionUpdateFor([]*models.AuditEvent{first})}, 10); err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}

	// Re-send the same event plus one new event
	second := makeEvent("sess-1", base.Add(time.Minute), models.EventCellChange)
	batch := []*models.AuditEvent{first, second}

	inserted, duplicates, err := db.IngestBatch(ctx, batch,
		[]SessionUpdate{sessionUpdateFor(batch)}, 10)
	if err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}
	if inserted != 1 {
		t.Errorf("expected 1 inserted, got %d", inserted)
	}
	if duplicates != 1 {
		t.Errorf("expected 1 duplicate, got %d", duplicates)
	}
}

func TestIngestBatchSessionMinWinsStartTime(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	// First batch establishes the session at base
	first := []*models.AuditEvent{makeEvent("sess-1", base, models.EventWorkbookOpen)}
	if _, _, err := db.IngestBatch(ctx, first, []SessionUpdate{sessionUpdateFor(first)}, 10); err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}

	// Late-arriving batch with an earlier timestamp moves start_time backwards
	earlier := []*models.AuditEvent{makeEvent("sess-1", base.Add(-time.Hour), models.EventWorkbookNew)}
	if _, _, err := db.IngestBatch(ctx, earlier, []SessionUpdate{sessionUpdateFor(earlier)}, 10); err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}

	// A later batch never moves start_time forwards
	later := []*models.AuditEvent{makeEvent("sess-1", base.Add(time.Hour), models.EventWorkbookSave)}
	if _, _, err := db.IngestBatch(ctx, later, []SessionUpdate{sessionUpdateFor(later)}, 10); err != nil {
		t.Fatalf("third ingest failed: %v", err)
	}

	session, err := db.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	want := base.Add(-time.Hour)
	if !session.StartTime.Equal(want) {
		t.Errorf("expected min-wins start %v, got %v", want, session.StartTime)
	}
	if session.EventCount != 3 {
		t.Errorf("expected additive event count 3, got %d", session.EventCount)
	}
}

func TestIngestBatchSessionActorLastWriterWins(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	first := []*models.AuditEvent{makeEvent("sess-1", base, models.EventWorkbookOpen)}
	if _, _, err := db.IngestBatch(ctx, first, []SessionUpdate{sessionUpdateFor(first)}, 10); err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}

	handoff := makeEvent("sess-1", base.Add(time.Minute), models.EventCellChange)
	handoff.UserName = "bob"
	handoff.MachineName = "LAPTOP-07"
	second := []*models.AuditEvent{handoff}
	if _, _, err := db.IngestBatch(ctx, second, []SessionUpdate{sessionUpdateFor(second)}, 10); err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}

	session, err := db.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if session.UserName != "bob" {
		t.Errorf("expected last-writer user bob, got %q", session.UserName)
	}
	if session.MachineName != "LAPTOP-07" {
		t.Errorf("expected last-writer machine LAPTOP-07, got %q", session.MachineName)
	}
}

func TestQueryEventsFiltersCombineWithAND(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	a := makeEvent("sess-1", base, models.EventCellChange)
	a.WorkbookName = strPtr("budget.xlsx")

	b := makeEvent("sess-1", base.Add(time.Minute), models.EventWorkbookSave)
	b.WorkbookName = strPtr("budget.xlsx")

	c := makeEvent("sess-2", base.Add(2*time.Minute), models.EventCellChange)
	c.UserName = "bob"
	c.WorkbookName = strPtr("forecast.xlsx")

	batch := []*models.AuditEvent{a, b, c}
	updates := []SessionUpdate{
		sessionUpdateFor([]*models.AuditEvent{a, b}),
		sessionUpdateFor([]*models.AuditEvent{c}),
	}
	if _, _, err := db.IngestBatch(ctx, batch, updates, 10); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	filter := &EventFilter{
		EventTypes: []int{int(models.EventCellChange)},
		Users:      []string{"alice"},
		Limit:      100,
	}
	events, total, err := db.QueryEvents(ctx, filter)
	if err != nil {
		t.Fatalf("QueryEvents failed: %v", err)
	}
	if total != 1 {
		t.Errorf("expected total 1, got %d", total)
	}
	if len(events) != 1 || events[0].EventID != a.EventID {
		t.Errorf("expected only alice's cell change, got %d events", len(events))
	}
}

func TestQueryEventsTimeRangeInclusive(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	events := []*models.AuditEvent{
		makeEvent("sess-1", base, models.EventWorkbookOpen),
		makeEvent("sess-1", base.Add(time.Hour), models.EventCellChange),
		makeEvent("sess-1", base.Add(2*time.Hour), models.EventWorkbookClose),
	}
	if _, _, err := db.IngestBatch(ctx, events, []SessionUpdate{sessionUpdateFor(events)}, 10); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	// Bounds exactly on the first and second event are inclusive
	start := base
	end := base.Add(time.Hour)
	filter := &EventFilter{StartTime: &start, EndTime: &end, Limit: 100}

	got, total, err := db.QueryEvents(ctx, filter)
	if err != nil {
		t.Fatalf("QueryEvents failed: %v", err)
	}
	if total != 2 || len(got) != 2 {
		t.Errorf("expected 2 events in inclusive range, got total=%d len=%d", total, len(got))
	}
}

func TestQueryEventsPaginationIndependentTotal(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	var events []*models.AuditEvent
	for i := 0; i < 10; i++ {
		events = append(events, makeEvent("sess-1", base.Add(time.Duration(i)*time.Minute), models.EventCellChange))
	}
	if _, _, err := db.IngestBatch(ctx, events, []SessionUpdate{sessionUpdateFor(events)}, 10); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	filter := &EventFilter{Limit: 3, Offset: 6}
	got, total, err := db.QueryEvents(ctx, filter)
	if err != nil {
		t.Fatalf("QueryEvents failed: %v", err)
	}
	if total != 10 {
		t.Errorf("expected independent total 10, got %d", total)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 events in page, got %d", len(got))
	}

	// Default sort is timestamp descending
	if !got[0].Timestamp.After(got[1].Timestamp) {
		t.Error("expected descending timestamp order")
	}
}

func TestQueryEventsSortFallbackOnUnknownColumn(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	events := []*models.AuditEvent{
		makeEvent("sess-1", base, models.EventWorkbookOpen),
		makeEvent("sess-1", base.Add(time.Minute), models.EventCellChange),
	}
	if _, _, err := db.IngestBatch(ctx, events, []SessionUpdate{sessionUpdateFor(events)}, 10); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	filter := &EventFilter{SortBy: "robert'); DROP TABLE audit_events;--", Limit: 100}
	got, _, err := db.QueryEvents(ctx, filter)
	if err != nil {
		t.Fatalf("QueryEvents with unknown sort column failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	// Fallback is timestamp descending
	if !got[0].Timestamp.After(got[1].Timestamp) {
		t.Error("expected timestamp desc fallback ordering")
	}
}

func TestGetEventByID(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	event := makeEvent("sess-1", time.Now(), models.EventCellChange)
	event.Formula = strPtr("=SUM(A1:A10)")
	event.CellAddress = strPtr("B2")
	event.CellCount = intPtr(1)

	batch := []*models.AuditEvent{event}
	if _, _, err := db.IngestBatch(ctx, batch, []SessionUpdate{sessionUpdateFor(batch)}, 10); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	got, err := db.GetEventByID(ctx, event.EventID.String())
	if err != nil {
		t.Fatalf("GetEventByID failed: %v", err)
	}
	if got.Formula == nil || *got.Formula != "=SUM(A1:A10)" {
		t.Error("expected formula round-trip")
	}
	if got.CellCount == nil || *got.CellCount != 1 {
		t.Error("expected cell count round-trip")
	}

	_, err = db.GetEventByID(ctx, "00000000-0000-0000-0000-000000000000")
	if !IsNotFound(err) {
		t.Errorf("expected ErrNotFound for missing id, got %v", err)
	}
}

func TestGetEventsSinceWatermark(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	events := []*models.AuditEvent{
		makeEvent("sess-1", base, models.EventWorkbookOpen),
		makeEvent("sess-1", base.Add(time.Minute), models.EventCellChange),
		makeEvent("sess-1", base.Add(2*time.Minute), models.EventWorkbookSave),
	}
	if _, _, err := db.IngestBatch(ctx, events, []SessionUpdate{sessionUpdateFor(events)}, 10); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	// Watermark equal to an event timestamp excludes it (strictly newer)
	got, err := db.GetEventsSince(ctx, base.Add(time.Minute), 50)
	if err != nil {
		t.Fatalf("GetEventsSince failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 event past watermark, got %d", len(got))
	}
	if !got[0].Timestamp.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("unexpected event past watermark: %v", got[0].Timestamp)
	}
}
