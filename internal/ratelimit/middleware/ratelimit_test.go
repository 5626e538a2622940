package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docverify/internal/platform/metrics"
	"docverify/internal/ratelimit/models"
	"docverify/internal/ratelimit/store/bucket"
	"docverify/pkg/platform/circuit"
	"docverify/pkg/platform/middleware/metadata"
)

type failingStore struct {
	calls int
	err   error
}

func (f *failingStore) Allow(context.Context, string, int, time.Duration) (*models.RateLimitResult, error) {
	f.calls++
	return nil, f.err
}

func (f *failingStore) Reset(context.Context, string) error {
	return f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/verify/ABC", nil)
	req.RemoteAddr = ip + ":1234"
	rr := httptest.NewRecorder()
	metadata.ClientMetadata(h).ServeHTTP(rr, req)
	return rr
}

func TestRateLimit(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg, reg)
	mw := New(bucket.NewInMemoryBucketStore(), discardLogger(),
		WithMetrics(m),
		WithPolicies(map[models.EndpointClass]models.Policy{
			models.ClassLookup: {Limit: 2, Window: time.Minute},
		}),
	)
	h := mw.RateLimit(models.ClassLookup)(okHandler())

	rr := serve(h, "192.0.2.10")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "2", rr.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rr.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rr.Header().Get("X-RateLimit-Reset"))

	assert.Equal(t, http.StatusOK, serve(h, "192.0.2.10").Code)

	rr = serve(h, "192.0.2.10")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Contains(t, rr.Body.String(), `"error":"rate_limit_exceeded"`)
	assert.Contains(t, rr.Body.String(), models.ExceededMessages[models.ClassLookup])
	assert.Equal(t, 1.0, promtest.ToFloat64(m.RateLimited.WithLabelValues("lookup")))

	// another client keeps its own budget
	assert.Equal(t, http.StatusOK, serve(h, "192.0.2.11").Code)
}

func TestRateLimitClassesAreIndependent(t *testing.T) {
	mw := New(bucket.NewInMemoryBucketStore(), discardLogger(),
		WithPolicies(map[models.EndpointClass]models.Policy{
			models.ClassUpload: {Limit: 1, Window: time.Hour},
		}),
	)
	upload := mw.RateLimit(models.ClassUpload)(okHandler())
	lookup := mw.RateLimit(models.ClassLookup)(okHandler())

	assert.Equal(t, http.StatusOK, serve(upload, "192.0.2.20").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(upload, "192.0.2.20").Code)
	assert.Equal(t, http.StatusOK, serve(lookup, "192.0.2.20").Code)
	assert.Equal(t, models.Policy{Limit: 60, Window: time.Minute}, mw.Policy(models.ClassLookup))
}

func TestRateLimitDisabled(t *testing.T) {
	store := &failingStore{err: errors.New("unused")}
	mw := New(store, discardLogger(), WithDisabled(true))
	rr := serve(mw.RateLimit(models.ClassAuth)(okHandler()), "192.0.2.30")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Zero(t, store.calls)
}

func TestRateLimitFailsOpen(t *testing.T) {
	mw := New(&failingStore{err: errors.New("redis down")}, discardLogger())
	rr := serve(mw.RateLimit(models.ClassAuth)(okHandler()), "192.0.2.40")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimitFallback(t *testing.T) {
	primary := &failingStore{err: errors.New("redis down")}
	breaker := circuit.New("ratelimit", circuit.WithFailureThreshold(2))
	mw := New(primary, discardLogger(),
		WithFallback(bucket.NewInMemoryBucketStore(), breaker),
		WithPolicies(map[models.EndpointClass]models.Policy{
			models.ClassAuth: {Limit: 2, Window: time.Minute},
		}),
	)
	h := mw.RateLimit(models.ClassAuth)(okHandler())

	// below the threshold the primary error fails open
	rr := serve(h, "192.0.2.50")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("X-RateLimit-Status"))
	assert.False(t, breaker.IsOpen())

	// the breaker opens and the in-memory store takes over
	rr = serve(h, "192.0.2.50")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, breaker.IsOpen())
	assert.Equal(t, "degraded", rr.Header().Get("X-RateLimit-Status"))
	assert.Equal(t, "1", rr.Header().Get("X-RateLimit-Remaining"))

	serve(h, "192.0.2.50")
	rr = serve(h, "192.0.2.50")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, 4, primary.calls)
}

func TestReset(t *testing.T) {
	mw := New(bucket.NewInMemoryBucketStore(), discardLogger(),
		WithPolicies(map[models.EndpointClass]models.Policy{
			models.ClassAuth: {Limit: 1, Window: time.Hour},
		}),
	)
	h := mw.RateLimit(models.ClassAuth)(okHandler())
	serve(h, "192.0.2.60")
	require.Equal(t, http.StatusTooManyRequests, serve(h, "192.0.2.60").Code)

	require.NoError(t, mw.Reset(context.Background(), models.ClassAuth, "192.0.2.60"))
	assert.Equal(t, http.StatusOK, serve(h, "192.0.2.60").Code)
}
