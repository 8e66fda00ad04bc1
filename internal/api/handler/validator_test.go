package handler

import (
	"strings"
	"testing"
)

func TestValidator_UsesJSONFieldNames(t *testing.T) {
	v := NewValidator()

	req := createListingRequest{Category: "ponteggi"}
	err := v.Validate(&req)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "contact_email is required") {
		t.Fatalf("expected json field name in message, got: %v", err)
	}
	if strings.Contains(err.Error(), "ContactEmail") {
		t.Fatalf("struct field name leaked into message: %v", err)
	}
}

func TestValidator_OneofMessage(t *testing.T) {
	v := NewValidator()

	req := registerRequest{Name: "Alice", Email: "a@example.com", Password: "supersecret", Role: "guest"}
	err := v.Validate(&req)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "role must be one of") {
		t.Fatalf("unexpected message: %v", err)
	}
}
