package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process-level HTTP metrics and the domain counters
// services increment.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	LoginAttempts          *prometheus.CounterVec
	VerificationsSubmitted prometheus.Counter
	ReviewDecisions        *prometheus.CounterVec
	PublicLookups          *prometheus.CounterVec
	RateLimited            *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers HTTP metrics against the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewWithRegistry registers HTTP metrics against reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration panics.
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_http_requests_total",
			Help: "Total HTTP requests by route pattern, method and status",
		}, []string{"route", "method", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docverify_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"route", "method"}),
		LoginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_login_attempts_total",
			Help: "Admin login attempts by outcome",
		}, []string{"outcome"}),
		VerificationsSubmitted: f.NewCounter(prometheus.CounterOpts{
			Name: "docverify_verifications_submitted_total",
			Help: "Verification records created",
		}),
		ReviewDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_review_decisions_total",
			Help: "Review decisions by resulting status",
		}, []string{"status"}),
		PublicLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_public_lookups_total",
			Help: "Public lookups by kind and outcome",
		}, []string{"kind", "outcome"}),
		RateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_rate_limited_total",
			Help: "Requests rejected by the rate limiter, by endpoint class",
		}, []string{"class"}),
		gatherer: gatherer,
	}
}

// Middleware records a counter and latency sample per request. The chi route
// pattern is used as the label so ids in the path do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
