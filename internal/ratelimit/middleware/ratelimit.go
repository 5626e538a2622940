// Package middleware enforces per-IP sliding-window budgets on the public
// endpoint classes. A Redis-backed primary store can be paired with an
// in-memory fallback that takes over while a circuit breaker is open.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"docverify/internal/platform/metrics"
	"docverify/internal/ratelimit/models"
	"docverify/pkg/platform/circuit"
	"docverify/pkg/platform/httputil"
	"docverify/pkg/requestcontext"
)

// BucketStore counts requests per key within a sliding window.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
	Reset(ctx context.Context, key string) error
}

const degradedStatus = "degraded"

type Middleware struct {
	store    BucketStore
	fallback BucketStore
	breaker  *circuit.Breaker
	policies map[models.EndpointClass]models.Policy
	logger   *slog.Logger
	metrics  *metrics.Metrics
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (for testing/demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithPolicies overrides the budget for the given classes.
func WithPolicies(policies map[models.EndpointClass]models.Policy) Option {
	return func(m *Middleware) {
		for class, p := range policies {
			if p.Limit > 0 && p.Window > 0 {
				m.policies[class] = p
			}
		}
	}
}

func WithMetrics(metrics *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = metrics
	}
}

// WithFallback serves checks from fallback while breaker is open.
func WithFallback(fallback BucketStore, breaker *circuit.Breaker) Option {
	return func(m *Middleware) {
		m.fallback = fallback
		m.breaker = breaker
	}
}

func New(store BucketStore, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		store:    store,
		logger:   logger,
		policies: make(map[models.EndpointClass]models.Policy, len(models.DefaultPolicies)),
	}
	for class, p := range models.DefaultPolicies {
		m.policies[class] = p
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.fallback != nil && m.breaker == nil {
		m.breaker = circuit.New("ratelimit")
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// Policy returns the budget applied to class.
func (m *Middleware) Policy(class models.EndpointClass) models.Policy {
	return m.policies[class]
}

// RateLimit admits at most the class budget per client IP. Store errors
// fail open.
func (m *Middleware) RateLimit(class models.EndpointClass) func(http.Handler) http.Handler {
	policy := m.policies[class]
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)
			key := models.BucketKey(class, ip)

			result, degraded, err := m.check(ctx, key, policy)
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check rate limit",
					"error", err,
					"class", string(class),
					"request_id", requestcontext.RequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)
			if degraded {
				w.Header().Set("X-RateLimit-Status", degradedStatus)
			}

			if !result.Allowed {
				if m.metrics != nil {
					m.metrics.RateLimited.WithLabelValues(string(class)).Inc()
				}
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"class", string(class),
					"retry_after", result.RetryAfter,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeRateLimitExceeded(w, class, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// check consults the primary store and, when a fallback is configured,
// switches to it while the breaker is open. The primary is still probed so
// the breaker can close once it recovers.
func (m *Middleware) check(ctx context.Context, key string, policy models.Policy) (*models.RateLimitResult, bool, error) {
	result, err := m.store.Allow(ctx, key, policy.Limit, policy.Window)
	if m.fallback == nil {
		return result, false, err
	}

	if err != nil {
		useFallback, change := m.breaker.RecordFailure()
		if change.Opened {
			m.logger.WarnContext(ctx, "rate limit store unavailable, using in-memory fallback",
				"breaker", m.breaker.Name(), "error", err)
		}
		if !useFallback {
			return nil, false, err
		}
		fb, fbErr := m.fallback.Allow(ctx, key, policy.Limit, policy.Window)
		return fb, true, fbErr
	}

	usePrimary, change := m.breaker.RecordSuccess()
	if change.Closed {
		m.logger.InfoContext(ctx, "rate limit store recovered", "breaker", m.breaker.Name())
	}
	if usePrimary {
		return result, false, nil
	}
	fb, fbErr := m.fallback.Allow(ctx, key, policy.Limit, policy.Window)
	return fb, true, fbErr
}

// Reset clears the window for ip in class on every configured store.
func (m *Middleware) Reset(ctx context.Context, class models.EndpointClass, ip string) error {
	key := models.BucketKey(class, ip)
	if err := m.store.Reset(ctx, key); err != nil {
		return err
	}
	if m.fallback != nil {
		return m.fallback.Reset(ctx, key)
	}
	return nil
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, class models.EndpointClass, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:            "rate_limit_exceeded",
		ErrorDescription: models.ExceededMessages[class],
		RetryAfter:       result.RetryAfter,
	})
}
