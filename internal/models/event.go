// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

// Package models defines data structures used throughout the Gridwatch application.
// These models represent audit events, client sessions, statistics, and API responses.
package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies the kind of spreadsheet activity an audit event records.
// Clients send the integer form; the numeric values are part of the wire
// contract with the add-in and must never be reordered.
type EventType int

// Audit event types emitted by spreadsheet clients.
const (
	EventWorkbookNew EventType = iota
	EventWorkbookOpen
	EventWorkbookClose
	EventWorkbookSave
	EventWorkbookActivate
	EventWorkbookDeactivate
	EventCellChange
	EventSelectionChange
	EventSheetAdd
	EventSheetDelete
	EventSheetRename
	EventSheetActivate
	EventSessionStart
	EventSessionEnd
	EventAddinLoad
	EventAddinUnload
	EventError
)

// eventTypeNames maps event types to their canonical wire names.
// The uppercase form matches what existing dashboards consume.
var eventTypeNames = map[EventType]string{
	EventWorkbookNew:        "WORKBOOK_NEW",
	EventWorkbookOpen:       "WORKBOOK_OPEN",
	EventWorkbookClose:      "WORKBOOK_CLOSE",
	EventWorkbookSave:       "WORKBOOK_SAVE",
	EventWorkbookActivate:   "WORKBOOK_ACTIVATE",
	EventWorkbookDeactivate: "WORKBOOK_DEACTIVATE",
	EventCellChange:         "CELL_CHANGE",
	EventSelectionChange:    "SELECTION_CHANGE",
	EventSheetAdd:           "SHEET_ADD",
	EventSheetDelete:        "SHEET_DELETE",
	EventSheetRename:        "SHEET_RENAME",
	EventSheetActivate:      "SHEET_ACTIVATE",
	EventSessionStart:       "SESSION_START",
	EventSessionEnd:         "SESSION_END",
	EventAddinLoad:          "ADDIN_LOAD",
	EventAddinUnload:        "ADDIN_UNLOAD",
	EventError:              "ERROR",
}

// String returns the canonical name for the event type, or "UNKNOWN" for
// values outside the defined range.
func (t EventType) String() string {
	if name, ok := eventTypeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Valid reports whether the event type is within the defined range.
func (t EventType) Valid() bool {
	return t >= EventWorkbookNew && t <= EventError
}

// AuditEvent is the core data model for a single spreadsheet audit event.
//
// Events are uploaded by clients in batches. Timestamp carries the client-side
// event time and is normalized to UTC during ingestion; CreatedAt is set by
// the server at persist time.
//
// Optional pointer fields use omitempty to keep response payloads small.
// Validation tags are enforced per event during batch ingestion; any invalid
// event rejects the whole batch.
type AuditEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
	CreatedAt time.Time `json:"created_at,omitempty"`

	EventType EventType `json:"event_type" validate:"min=0,max=16"`

	// Actor identification. All four are optional; clients running outside
	// a domain, or before their session handshake, omit them.
	UserName    string `json:"user_name,omitempty" validate:"max=255"`
	MachineName string `json:"machine_name,omitempty" validate:"max=255"`
	UserDomain  string `json:"user_domain,omitempty" validate:"max=255"`
	SessionID   string `json:"session_id,omitempty" validate:"max=255"`

	// Workbook context
	WorkbookName *string `json:"workbook_name,omitempty" validate:"omitempty,max=500"`
	WorkbookPath *string `json:"workbook_path,omitempty" validate:"omitempty,max=1000"`
	SheetName    *string `json:"sheet_name,omitempty" validate:"omitempty,max=255"`

	// Cell-level detail
	CellAddress *string `json:"cell_address,omitempty" validate:"omitempty,max=100"`
	CellCount   *int    `json:"cell_count,omitempty" validate:"omitempty,min=0"`

	// Change payload
	OldValue     *string `json:"old_value,omitempty"`
	NewValue     *string `json:"new_value,omitempty"`
	Formula      *string `json:"formula,omitempty"`
	Details      *string `json:"details,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`

	// Correlation across related events (e.g. a paste spanning many cells)
	CorrelationID *string `json:"correlation_id,omitempty" validate:"omitempty,max=255"`
}

// BatchResult summarizes the outcome of a batch ingestion request.
// Batches are all-or-nothing: Accepted and Rejected never both exceed zero.
type BatchResult struct {
	Accepted         int      `json:"accepted"`
	Rejected         int      `json:"rejected"`
	Errors           []string `json:"errors"`
	ProcessingTimeMS int64    `json:"processing_time_ms"`
}
