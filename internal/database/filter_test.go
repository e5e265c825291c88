// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

package database

import (
	"strings"
	"testing"
	"time"
)

func TestOrderClause(t *testing.T) {
	tests := []struct {
		name   string
		filter EventFilter
		want   string
	}{
		{
			name:   "defaults to timestamp descending",
			filter: EventFilter{},
			want:   "ORDER BY timestamp DESC",
		},
		{
			name:   "ascending when requested",
			filter: EventFilter{SortBy: "user_name", SortOrder: "asc"},
			want:   "ORDER BY user_name ASC",
		},
		{
			name:   "unknown column falls back to timestamp",
			filter: EventFilter{SortBy: "drop table", SortOrder: "asc"},
			want:   "ORDER BY timestamp ASC",
		},
		{
			name:   "unknown order falls back to descending",
			filter: EventFilter{SortBy: "event_type", SortOrder: "sideways"},
			want:   "ORDER BY event_type DESC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.OrderClause(); got != tt.want {
				t.Errorf("OrderClause() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppendInClause(t *testing.T) {
	t.Run("string values", func(t *testing.T) {
		var clauses []string
		var args []interface{}

		appendInClause("user_name", []string{"alice", "bob"}, &clauses, &args)

		if len(clauses) != 1 || clauses[0] != "user_name IN (?, ?)" {
			t.Errorf("unexpected clauses: %v", clauses)
		}
		if len(args) != 2 || args[0] != "alice" || args[1] != "bob" {
			t.Errorf("unexpected args: %v", args)
		}
	})

	t.Run("int values", func(t *testing.T) {
		var clauses []string
		var args []interface{}

		appendInClause("event_type", []int{3, 7, 9}, &clauses, &args)

		if len(clauses) != 1 || clauses[0] != "event_type IN (?, ?, ?)" {
			t.Errorf("unexpected clauses: %v", clauses)
		}
		if len(args) != 3 {
			t.Errorf("unexpected args: %v", args)
		}
	})

	t.Run("empty slice adds nothing", func(t *testing.T) {
		var clauses []string
		var args []interface{}

		appendInClause("user_name", []string{}, &clauses, &args)

		if len(clauses) != 0 || len(args) != 0 {
			t.Errorf("expected no clauses or args, got %v / %v", clauses, args)
		}
	})
}

func TestBuildFilterWhereClause(t *testing.T) {
	t.Run("empty filter", func(t *testing.T) {
		where, args := buildFilterWhereClause(&EventFilter{})
		if where != "WHERE 1=1" {
			t.Errorf("expected bare WHERE 1=1, got %q", where)
		}
		if len(args) != 0 {
			t.Errorf("expected no args, got %v", args)
		}
	})

	t.Run("combined filter", func(t *testing.T) {
		start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		end := start.Add(24 * time.Hour)
		corr := "import-batch-7"

		filter := &EventFilter{
			EventTypes:    []int{3},
			Users:         []string{"alice"},
			SessionIDs:    []string{"sess-1", "sess-2"},
			WorkbookNames: []string{"budget.xlsx"},
			CorrelationID: &corr,
			StartTime:     &start,
			EndTime:       &end,
		}

		where, args := buildFilterWhereClause(filter)

		for _, fragment := range []string{
			"event_type IN (?)",
			"user_name IN (?)",
			"session_id IN (?, ?)",
			"workbook_name IN (?)",
			"correlation_id = ?",
			"timestamp >= ?",
			"timestamp <= ?",
		} {
			if !strings.Contains(where, fragment) {
				t.Errorf("where clause missing %q: %s", fragment, where)
			}
		}
		if len(args) != 8 {
			t.Errorf("expected 8 args, got %d: %v", len(args), args)
		}
	})
}
