package model

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// ============================================================================
// Error() Interface Tests
// ============================================================================

func TestProblemDetails_Error_ReturnsFormattedMessage(t *testing.T) {
	t.Parallel()

	pd := &ProblemDetails{
		Status: http.StatusNotFound,
		Title:  "Not Found",
		Detail: "saxophone not found",
	}

	errMsg := pd.Error()

	if !strings.Contains(errMsg, "404") {
		t.Errorf("error message should contain status code, got: %s", errMsg)
	}
	if !strings.Contains(errMsg, "Not Found") {
		t.Errorf("error message should contain title, got: %s", errMsg)
	}
	if !strings.Contains(errMsg, "saxophone not found") {
		t.Errorf("error message should contain detail, got: %s", errMsg)
	}
}

// ============================================================================
// WriteJSON Tests
// ============================================================================

func TestProblemDetails_WriteJSON_SetsContentTypeAndStatus(t *testing.T) {
	t.Parallel()

	pd := NewForbiddenError("admin role required")
	rr := httptest.NewRecorder()

	pd.WriteJSON(rr)

	if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("expected Content-Type 'application/problem+json', got %q", ct)
	}
	if rr.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, rr.Code)
	}
}

func TestProblemDetails_WriteJSON_EncodesBody(t *testing.T) {
	t.Parallel()

	pd := NewValidationError([]FieldError{{Field: "brand", Message: "is required"}})
	rr := httptest.NewRecorder()

	pd.WriteJSON(rr)

	var decoded ProblemDetails
	if err := json.NewDecoder(rr.Body).Decode(&decoded); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if decoded.Code != ErrCodeValidation {
		t.Errorf("expected code %d, got %d", ErrCodeValidation, decoded.Code)
	}
	if len(decoded.Errors) != 1 || decoded.Errors[0].Field != "brand" {
		t.Errorf("expected field error for brand, got %+v", decoded.Errors)
	}
}

// ============================================================================
// Constructor Tests
// ============================================================================

func TestConstructors_StatusAndType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		pd     *ProblemDetails
		status int
		suffix string
	}{
		{"unauthorized", NewUnauthorizedError("x"), http.StatusUnauthorized, "unauthorized"},
		{"forbidden", NewForbiddenError("x"), http.StatusForbidden, "forbidden"},
		{"not found", NewNotFoundError("invitation"), http.StatusNotFound, "not-found"},
		{"conflict", NewConflictError("x"), http.StatusConflict, "conflict"},
		{"gone", NewGoneError("x"), http.StatusGone, "expired"},
		{"bad request", NewBadRequestError("x"), http.StatusBadRequest, "bad-request"},
		{"internal", NewInternalError(""), http.StatusInternalServerError, "internal"},
		{"rate limited", NewRateLimitError(30), http.StatusTooManyRequests, "rate-limited"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.pd.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, tt.pd.Status)
			}
			if !strings.HasSuffix(tt.pd.Type, tt.suffix) {
				t.Errorf("expected type ending in %q, got %q", tt.suffix, tt.pd.Type)
			}
		})
	}
}

func TestNewNotFoundError_FormatsResourceName(t *testing.T) {
	t.Parallel()

	pd := NewNotFoundError("saxophone")
	if pd.Detail != "saxophone not found" {
		t.Errorf("unexpected detail: %q", pd.Detail)
	}
}

func TestNewValidationError_MultipleFields_SummarizesCount(t *testing.T) {
	t.Parallel()

	pd := NewValidationError([]FieldError{
		{Field: "brand", Message: "is required"},
		{Field: "model", Message: "is required"},
		{Field: "type", Message: "must be one of: Soprano Alto Tenor Baritone"},
	})

	if !strings.Contains(pd.Detail, "and 2 more errors") {
		t.Errorf("expected summary of remaining errors, got %q", pd.Detail)
	}
}

func TestNewInternalError_EmptyDetail_UsesRetryMessage(t *testing.T) {
	t.Parallel()

	pd := NewInternalError("")
	if !strings.Contains(pd.Detail, "try again") {
		t.Errorf("expected retry prompt, got %q", pd.Detail)
	}
}

func TestWithCode_OverridesCode(t *testing.T) {
	t.Parallel()

	pd := NewConflictError("pending").WithCode(ErrCodeDuplicatePending)
	if pd.Code != ErrCodeDuplicatePending || pd.Status != http.StatusConflict {
		t.Errorf("unexpected problem: %+v", pd)
	}
}
