package httputil

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("bad request includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid input"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "bad_request" {
			t.Fatalf("expected error code bad_request, got %q", body["error"])
		}
		if body["error_description"] != "invalid input" {
			t.Fatalf("expected error_description to be returned for bad request")
		}
	})
}

func TestStatusFor(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeValidation:           http.StatusBadRequest,
		dErrors.CodeNotFound:             http.StatusNotFound,
		dErrors.CodeUnauthorized:         http.StatusUnauthorized,
		dErrors.CodeForbidden:            http.StatusForbidden,
		dErrors.CodeConflict:             http.StatusConflict,
		dErrors.CodeUnsupportedMediaType: http.StatusUnsupportedMediaType,
		dErrors.CodePayloadTooLarge:      http.StatusRequestEntityTooLarge,
		dErrors.CodeStorage:              http.StatusServiceUnavailable,
		dErrors.CodeInternal:             http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := StatusFor(code); got != want {
			t.Fatalf("StatusFor(%s) = %d, want %d", code, got, want)
		}
	}
}

type loginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`

	validated bool
}

func (p *loginPayload) Validate() error {
	p.validated = true
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("decodes and runs Validate", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@example.com","password":"x"}`))
		req, ok := DecodeAndPrepare[loginPayload](w, r, logger, r.Context(), "req-1")
		if !ok {
			t.Fatalf("expected decode to succeed, got status %d", w.Code)
		}
		if !req.validated {
			t.Fatalf("expected Validate to be called")
		}
	})

	t.Run("struct tags reject missing fields", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@example.com"}`))
		if _, ok := DecodeAndPrepare[loginPayload](w, r, logger, r.Context(), "req-2"); ok {
			t.Fatalf("expected validation failure")
		}
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("malformed JSON is a bad request", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
		if _, ok := DecodeAndPrepare[loginPayload](w, r, logger, r.Context(), "req-3"); ok {
			t.Fatalf("expected decode failure")
		}
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})
}

func TestPageFromQuery(t *testing.T) {
	tests := []struct {
		query string
		want  id.Page
	}{
		{"", id.Page{Number: 1, Limit: 10}},
		{"?page=3&limit=25", id.Page{Number: 3, Limit: 25}},
		{"?page=-1&limit=1000", id.Page{Number: 1, Limit: 100}},
		{"?page=abc&limit=xyz", id.Page{Number: 1, Limit: 10}},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/api/document/verifications"+tt.query, nil)
		if got := PageFromQuery(r); got != tt.want {
			t.Fatalf("%q: expected %+v, got %+v", tt.query, tt.want, got)
		}
	}
}
