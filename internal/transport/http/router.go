// Package httptransport assembles the chi router: global middleware, the
// public and authenticated route groups and the operational endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	adminhandler "docverify/internal/admin/handler"
	"docverify/internal/certificate"
	"docverify/internal/lookup"
	"docverify/internal/platform/metrics"
	ratelimithandler "docverify/internal/ratelimit/handler"
	ratelimit "docverify/internal/ratelimit/middleware"
	"docverify/internal/ratelimit/models"
	"docverify/internal/storage"
	verificationhandler "docverify/internal/verification/handler"
	id "docverify/pkg/domain"
	"docverify/pkg/platform/httputil"
	adminmw "docverify/pkg/platform/middleware/admin"
	authmw "docverify/pkg/platform/middleware/auth"
	"docverify/pkg/platform/middleware/metadata"
	"docverify/pkg/platform/middleware/request"
	"docverify/pkg/platform/middleware/requesttime"
)

// Handlers groups the feature handlers mounted by NewRouter.
type Handlers struct {
	Admin        *adminhandler.Handler
	Verification *verificationhandler.Handler
	Lookup       *lookup.Handler
	Certificate  *certificate.Handler
	RateLimit    *ratelimithandler.Handler
}

// Config carries the cross-cutting collaborators.
type Config struct {
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	Limiter     *ratelimit.Middleware
	Tokens      authmw.JWTValidator
	Revocations authmw.TokenRevocationChecker
	Admins      authmw.AdminStatusChecker
	OpsToken    string
	// IntakeOwner owns public self-service uploads. The zero actor leaves
	// the route unmounted.
	IntakeOwner id.Actor
	// UploadDir is served under /uploads/ when documents live on local disk.
	UploadDir string
	// Health reports dependency readiness for GET /health. Nil means always healthy.
	Health func(ctx context.Context) error
}

func NewRouter(cfg Config, h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(chimw.Recoverer)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	r.Get("/health", healthHandler(cfg))
	if cfg.Metrics != nil {
		r.With(adminmw.RequireOpsToken(cfg.OpsToken, cfg.Logger)).Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}
	if cfg.UploadDir != "" {
		fs := http.StripPrefix(storage.UploadsPath, http.FileServer(http.Dir(cfg.UploadDir)))
		r.Handle(storage.UploadsPath+"*", fs)
	}

	// Public routes.
	r.Group(func(r chi.Router) {
		r.Use(cfg.Limiter.RateLimit(models.ClassAuth))
		h.Admin.RegisterPublic(r)
	})
	r.Group(func(r chi.Router) {
		r.Use(cfg.Limiter.RateLimit(models.ClassLookup))
		h.Lookup.Register(r)
		h.Certificate.RegisterPublic(r)
	})
	if !cfg.IntakeOwner.IsZero() {
		r.Group(func(r chi.Router) {
			r.Use(cfg.Limiter.RateLimit(models.ClassUpload))
			h.Verification.RegisterIntake(r, cfg.IntakeOwner)
		})
	}

	// Authenticated routes.
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(cfg.Tokens, cfg.Revocations, cfg.Admins, cfg.Logger))
		h.Admin.RegisterAuthenticated(r)
		h.Verification.RegisterAuthenticated(r)
		h.Certificate.RegisterAuthenticated(r)

		r.Group(func(r chi.Router) {
			r.Use(adminmw.RequireRole(cfg.Logger, id.RoleSuperadmin))
			h.Admin.RegisterSuperadmin(r)
			if h.RateLimit != nil {
				h.RateLimit.RegisterAdmin(r)
			}
		})
	})

	return r
}

type healthResponse struct {
	Status string `json:"status"`
}

func healthHandler(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health(r.Context()); err != nil {
				cfg.Logger.WarnContext(r.Context(), "health check failed",
					"error", err,
					"request_id", request.GetRequestID(r.Context()),
				)
				httputil.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}
