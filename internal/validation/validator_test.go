// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

package validation

import (
	"strings"
	"testing"
)

type sampleRequest struct {
	Name   string `validate:"required,max=10"`
	Limit  int    `validate:"min=1,max=1000"`
	Fork   string `validate:"omitempty,uuid"`
	Choice string `validate:"omitempty,oneof=asc desc"`
}

func TestValidateStructPasses(t *testing.T) {
	req := sampleRequest{Name: "budget", Limit: 100}
	if err := ValidateStruct(&req); err != nil {
		t.Fatalf("expected no validation error, got %v", err)
	}
}

func TestValidateStructRequired(t *testing.T) {
	req := sampleRequest{Limit: 5}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation error for missing Name")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR code, got %q", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "Name is required") {
		t.Errorf("expected required message, got %q", apiErr.Message)
	}
}

func TestValidateStructMaxString(t *testing.T) {
	req := sampleRequest{Name: "much-too-long-name", Limit: 5}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation error for overlong Name")
	}
	if !strings.Contains(err.Error(), "at most 10 characters") {
		t.Errorf("expected character-count message, got %q", err.Error())
	}
}

func TestValidateStructUUID(t *testing.T) {
	req := sampleRequest{Name: "x", Limit: 1, Fork: "not-a-uuid"}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation error for bad UUID")
	}
	if !strings.Contains(err.Error(), "valid UUID") {
		t.Errorf("expected UUID message, got %q", err.Error())
	}
}

func TestValidateStructMultipleErrors(t *testing.T) {
	req := sampleRequest{Limit: 0, Choice: "sideways"}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	if len(err.Errors()) != 3 {
		t.Errorf("expected 3 field errors, got %d", len(err.Errors()))
	}

	apiErr := err.ToAPIError()
	if _, ok := apiErr.Details["fields"]; !ok {
		t.Error("expected fields detail for multiple errors")
	}
}
