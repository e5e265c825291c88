// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

package database

import (
	"fmt"
	"strings"
	"time"
)

// EventFilter contains filter parameters for audit event queries.
//
// All filter fields are optional and combine using AND logic. Multi-select
// fields (slices) use OR logic within the field (e.g., Users: ["alice",
// "bob"] matches alice OR bob). Time bounds are inclusive.
type EventFilter struct {
	EventTypes    []int
	Users         []string
	SessionIDs    []string
	WorkbookNames []string
	CorrelationID *string
	StartTime     *time.Time
	EndTime       *time.Time

	// SortBy is validated against sortColumns; unknown values fall back
	// to the timestamp column.
	SortBy    string
	SortOrder string

	Limit  int
	Offset int
}

// sortColumns whitelists the columns a caller may sort by. Anything else
// silently falls back to timestamp, matching the query engine contract.
var sortColumns = map[string]string{
	"timestamp":     "timestamp",
	"created_at":    "created_at",
	"event_type":    "event_type",
	"user_name":     "user_name",
	"session_id":    "session_id",
	"workbook_name": "workbook_name",
	"sheet_name":    "sheet_name",
}

// OrderClause returns a safe ORDER BY fragment for the filter.
func (f *EventFilter) OrderClause() string {
	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = "timestamp"
	}

	direction := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		direction = "ASC"
	}

	return fmt.Sprintf("ORDER BY %s %s", column, direction)
}

// appendInClause is a generic helper for building SQL IN clauses.
// Eliminates duplication across the filter dimensions.
func appendInClause(columnName string, values interface{}, whereClauses *[]string, args *[]interface{}) {
	var length int
	var getValue func(int) interface{}

	switch v := values.(type) {
	case []string:
		length = len(v)
		getValue = func(i int) interface{} { return v[i] }
	case []int:
		length = len(v)
		getValue = func(i int) interface{} { return v[i] }
	default:
		return // Unknown type, skip
	}

	if length == 0 {
		return
	}

	placeholders := make([]string, length)
	for i := 0; i < length; i++ {
		placeholders[i] = "?"
		*args = append(*args, getValue(i))
	}

	*whereClauses = append(*whereClauses, fmt.Sprintf("%s IN (%s)", columnName, strings.Join(placeholders, ", ")))
}

// buildFilterConditions converts an EventFilter into WHERE clause fragments
// and a matching argument list.
func buildFilterConditions(filter *EventFilter) ([]string, []interface{}) {
	var whereClauses []string
	var args []interface{}

	appendInClause("event_type", filter.EventTypes, &whereClauses, &args)
	appendInClause("user_name", filter.Users, &whereClauses, &args)
	appendInClause("session_id", filter.SessionIDs, &whereClauses, &args)
	appendInClause("workbook_name", filter.WorkbookNames, &whereClauses, &args)

	if filter.CorrelationID != nil && *filter.CorrelationID != "" {
		whereClauses = append(whereClauses, "correlation_id = ?")
		args = append(args, *filter.CorrelationID)
	}

	if filter.StartTime != nil {
		whereClauses = append(whereClauses, "timestamp >= ?")
		args = append(args, filter.StartTime.UTC())
	}
	if filter.EndTime != nil {
		whereClauses = append(whereClauses, "timestamp <= ?")
		args = append(args, filter.EndTime.UTC())
	}

	return whereClauses, args
}

// buildFilterWhereClause returns a complete WHERE clause for the filter.
// The leading "1=1" keeps query assembly simple when no filters apply.
func buildFilterWhereClause(filter *EventFilter) (string, []interface{}) {
	whereClauses, args := buildFilterConditions(filter)

	clause := "WHERE 1=1"
	if len(whereClauses) > 0 {
		clause += " AND " + strings.Join(whereClauses, " AND ")
	}

	return clause, args
}
