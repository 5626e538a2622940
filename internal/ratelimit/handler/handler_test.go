package handler_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docverify/internal/ratelimit/handler"
	"docverify/internal/ratelimit/models"
	"docverify/pkg/testutil"
)

type recordingResetter struct {
	class models.EndpointClass
	ip    string
	err   error
}

func (r *recordingResetter) Reset(_ context.Context, class models.EndpointClass, ip string) error {
	r.class = class
	r.ip = ip
	return r.err
}

func newRouter(limiter handler.Resetter) *chi.Mux {
	h := handler.New(limiter, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	r := chi.NewRouter()
	h.RegisterAdmin(r)
	return r
}

func TestHandleReset(t *testing.T) {
	t.Run("resets the client window", func(t *testing.T) {
		limiter := &recordingResetter{}
		rr := testutil.DoRequest(newRouter(limiter), testutil.NewJSONRequest(t, http.MethodPost,
			"/api/admin/rate-limit/reset", map[string]string{"class": "auth", "ip": " 192.0.2.1 "}))
		testutil.AssertStatusOK(t, rr)
		assert.Equal(t, models.ClassAuth, limiter.class)
		assert.Equal(t, "192.0.2.1", limiter.ip)
		testutil.AssertJSONContains(t, rr, "class", "auth")
	})

	tests := []struct {
		name   string
		body   map[string]string
		status int
		code   string
	}{
		{"unknown class", map[string]string{"class": "global", "ip": "192.0.2.1"}, http.StatusBadRequest, "invalid_input"},
		{"malformed ip", map[string]string{"class": "lookup", "ip": "not-an-ip"}, http.StatusBadRequest, "validation_error"},
		{"missing ip", map[string]string{"class": "lookup"}, http.StatusBadRequest, "validation_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := &recordingResetter{}
			rr := testutil.DoRequest(newRouter(limiter), testutil.NewJSONRequest(t, http.MethodPost,
				"/api/admin/rate-limit/reset", tt.body))
			testutil.AssertStatusAndError(t, rr, tt.status, tt.code)
			assert.Empty(t, limiter.ip)
		})
	}

	t.Run("store failure", func(t *testing.T) {
		limiter := &recordingResetter{err: errors.New("redis down")}
		rr := testutil.DoRequest(newRouter(limiter), testutil.NewJSONRequest(t, http.MethodPost,
			"/api/admin/rate-limit/reset", map[string]string{"class": "upload", "ip": "2001:db8::1"}))
		require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}
