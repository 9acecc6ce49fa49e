package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected", detailsOK: true},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeGateway, status: http.StatusBadGateway, publicMsg: "remote catalog service unavailable", retryable: true, detailsOK: true},
		{code: CodeStorage, status: http.StatusInternalServerError, publicMsg: "local storage unavailable", retryable: true, detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal error", retryable: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing title")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing title" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}
	if got := base.Error(); got != "VALIDATION_ERROR: missing title" {
		t.Fatalf("unexpected rendered error %q", got)
	}

	withDetails := base.WithDetails(map[string]string{"title": "is required"})
	if withDetails.Details() == nil {
		t.Fatalf("expected details to stick")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("connection refused")
	wrapped := Wrap(CodeGateway, cause, "fetch products")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("expected wrapped error to match cause")
	}
	if wrapped.Code() != CodeGateway {
		t.Fatalf("expected gateway code, got %s", wrapped.Code())
	}

	if got := Wrap(CodeGateway, nil, "no cause"); got.Unwrap() != nil {
		t.Fatalf("wrap without cause should have nil unwrap")
	}
}

func TestAsAndCodeOf(t *testing.T) {
	typed := New(CodeConflict, "username or email already exists")
	if As(typed) == nil {
		t.Fatalf("expected typed extraction to succeed")
	}
	if As(stdErrors.New("plain")) != nil {
		t.Fatalf("plain errors should not extract")
	}
	if As(nil) != nil {
		t.Fatalf("nil should not extract")
	}

	if CodeOf(typed) != CodeConflict {
		t.Fatalf("expected conflict code")
	}
	if CodeOf(stdErrors.New("plain")) != CodeInternal {
		t.Fatalf("plain errors default to internal")
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(CodeUnauthorized, "Invalid username or password")); got != "Invalid username or password" {
		t.Fatalf("expected typed message, got %q", got)
	}
	if got := UserMessage(stdErrors.New("boom")); got != "internal error" {
		t.Fatalf("expected public fallback, got %q", got)
	}
}
