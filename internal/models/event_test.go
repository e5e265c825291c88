// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

package models

import (
	"testing"
)

// TestEventTypeWireValues pins the integer encoding shared with the
// spreadsheet add-in. These values are a wire contract; a renumbering here
// silently misclassifies every event the producer sends.
func TestEventTypeWireValues(t *testing.T) {
	wire := []struct {
		value int
		name  string
	}{
		{0, "WORKBOOK_NEW"},
		{1, "WORKBOOK_OPEN"},
		{2, "WORKBOOK_CLOSE"},
		{3, "WORKBOOK_SAVE"},
		{4, "WORKBOOK_ACTIVATE"},
		{5, "WORKBOOK_DEACTIVATE"},
		{6, "CELL_CHANGE"},
		{7, "SELECTION_CHANGE"},
		{8, "SHEET_ADD"},
		{9, "SHEET_DELETE"},
		{10, "SHEET_RENAME"},
		{11, "SHEET_ACTIVATE"},
		{12, "SESSION_START"},
		{13, "SESSION_END"},
		{14, "ADDIN_LOAD"},
		{15, "ADDIN_UNLOAD"},
		{16, "ERROR"},
	}

	for _, tc := range wire {
		if got := EventType(tc.value).String(); got != tc.name {
			t.Errorf("EventType(%d).String() = %q, want %q", tc.value, got, tc.name)
		}
	}

	if got := EventCellChange; int(got) != 6 {
		t.Errorf("EventCellChange = %d, want 6", got)
	}
	if got := EventWorkbookSave; int(got) != 3 {
		t.Errorf("EventWorkbookSave = %d, want 3", got)
	}
	if got := EventSessionStart; int(got) != 12 {
		t.Errorf("EventSessionStart = %d, want 12", got)
	}
}

func TestEventTypeUnknownAndValidity(t *testing.T) {
	if got := EventType(42).String(); got != "UNKNOWN" {
		t.Errorf("out-of-range type: got %q, want UNKNOWN", got)
	}
	if got := EventType(-1).String(); got != "UNKNOWN" {
		t.Errorf("negative type: got %q, want UNKNOWN", got)
	}

	if !EventType(0).Valid() || !EventType(16).Valid() {
		t.Error("boundary values 0 and 16 should be valid")
	}
	if EventType(17).Valid() || EventType(-1).Valid() {
		t.Error("values outside 0..16 should be invalid")
	}
}
