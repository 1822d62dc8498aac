package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeValidation, "invalid input")

	if err.Code != CodeValidation {
		t.Errorf("expected code=%s, got %s", CodeValidation, err.Code)
	}
	if err.Message != "invalid input" {
		t.Errorf("expected message='invalid input', got %s", err.Message)
	}
	if len(err.Stack) == 0 {
		t.Error("expected stack trace to be captured")
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name:     "simple error",
			err:      New(CodeProtocol, "trailing bytes after envelope"),
			contains: []string{"PROTOCOL_ERROR", "trailing bytes"},
		},
		{
			name: "error with op",
			err: &Error{
				Code:    CodeService,
				Message: "unknown entity type",
				Op:      "bridge.call",
			},
			contains: []string{"bridge.call", "SERVICE_ERROR", "unknown entity type"},
		},
		{
			name: "error with underlying",
			err: &Error{
				Code:    CodeInternal,
				Message: "wrapper",
				Err:     fmt.Errorf("underlying error"),
			},
			contains: []string{"wrapper", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			str := tt.err.Error()
			for _, c := range tt.contains {
				if !strings.Contains(str, c) {
					t.Errorf("expected error string to contain %q, got: %s", c, str)
				}
			}
		})
	}
}

func TestWrap(t *testing.T) {
	original := fmt.Errorf("original error")
	wrapped := Wrap(original, "service.call", "service call failed")

	if wrapped == nil {
		t.Fatal("expected wrapped error to be non-nil")
	}
	if wrapped.Code != CodeInternal {
		t.Errorf("expected code=%s, got %s", CodeInternal, wrapped.Code)
	}
	if wrapped.Op != "service.call" {
		t.Errorf("expected op='service.call', got %s", wrapped.Op)
	}
	if errors.Unwrap(wrapped) != original {
		t.Error("Unwrap should return original error")
	}
}

func TestWrapPreservesCode(t *testing.T) {
	inner := Timeout("render")
	wrapped := Wrap(inner, "batch.unit", "unit failed")

	if wrapped.Code != CodeTimeout {
		t.Errorf("expected wrapped error to keep code %s, got %s", CodeTimeout, wrapped.Code)
	}
	if !IsTimeout(wrapped) {
		t.Error("expected IsTimeout to see through the wrap")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "op", "msg") != nil {
		t.Error("wrapping nil should return nil")
	}
	if WrapWithCode(nil, CodeProtocol, "op", "msg") != nil {
		t.Error("wrapping nil with code should return nil")
	}
}

func TestTaxonomyConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		code Code
	}{
		{"endpoint not found", EndpointNotFound("/opt/engine/render-service.mjs"), CodeEndpointNotFound},
		{"unavailable", Unavailable("node runtime"), CodeUnavailable},
		{"input not found", InputNotFound("nonexistent.json"), CodeInputNotFound},
		{"timeout", Timeout("render"), CodeTimeout},
		{"service", Service("unknown entity type: widget"), CodeService},
		{"protocol", Protocol("empty output"), CodeProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("expected code=%s, got %s", tt.code, tt.err.Code)
			}
			if !IsCode(tt.err, tt.code) {
				t.Errorf("IsCode(%s) should be true", tt.code)
			}
		})
	}
}

func TestServicePreservesMessageVerbatim(t *testing.T) {
	msg := "Unknown entity type: widget (available: spell, monster)"
	err := Service(msg)

	if err.Message != msg {
		t.Errorf("worker message must be preserved verbatim, got %q", err.Message)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeValidation, 400},
		{CodeNotFound, 404},
		{CodeInputNotFound, 404},
		{CodeConflict, 409},
		{CodeService, 502},
		{CodeProtocol, 502},
		{CodeUnavailable, 503},
		{CodeEndpointNotFound, 503},
		{CodeTimeout, 504},
		{CodeInternal, 500},
	}

	for _, tt := range tests {
		if got := New(tt.code, "x").HTTPStatus(); got != tt.status {
			t.Errorf("HTTPStatus(%s)=%d, want %d", tt.code, got, tt.status)
		}
	}
}

func TestIsMatchesByCode(t *testing.T) {
	a := Timeout("render")
	b := Timeout("summary")

	if !errors.Is(a, b) {
		t.Error("two errors with the same code should match via errors.Is")
	}
	if errors.Is(a, Protocol("x")) {
		t.Error("errors with different codes should not match")
	}
}

func TestGetCodeFallback(t *testing.T) {
	if GetCode(fmt.Errorf("plain")) != CodeInternal {
		t.Error("plain errors should map to CodeInternal")
	}
	if GetHTTPStatus(fmt.Errorf("plain")) != 500 {
		t.Error("plain errors should map to status 500")
	}
}

func TestWithField(t *testing.T) {
	err := New(CodeValidation, "bad").WithField("field", "type")

	fields := GetFields(err)
	if fields == nil || fields["field"] != "type" {
		t.Errorf("expected fields to carry 'field', got %v", fields)
	}
}
