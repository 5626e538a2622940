package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	adminhandler "docverify/internal/admin/handler"
	"docverify/internal/admin/password"
	adminservice "docverify/internal/admin/service"
	"docverify/internal/auth/revocation"
	"docverify/internal/certificate"
	jwttoken "docverify/internal/jwt_token"
	"docverify/internal/lookup"
	"docverify/internal/platform/config"
	"docverify/internal/platform/httpserver"
	"docverify/internal/platform/logger"
	"docverify/internal/platform/metrics"
	ratelimithandler "docverify/internal/ratelimit/handler"
	httptransport "docverify/internal/transport/http"
	verificationhandler "docverify/internal/verification/handler"
	verificationservice "docverify/internal/verification/service"
)

const shutdownTimeout = 10 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.LogLevel, cfg.Server.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if cfg.UsesDefaultSigningKey() {
		log.Warn("using the development JWT signing key; set JWT_SIGNING_KEY in production")
	}

	infra, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close()

	m := metrics.New()
	stores := newStores(infra)

	docs, uploadDir, err := newDocumentStorage(ctx, cfg.Storage, cfg.Server.BaseURL)
	if err != nil {
		return err
	}

	auditing, err := newAuditing(ctx, cfg, stores.audit, log)
	if err != nil {
		return err
	}
	defer auditing.Close()

	tokens := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.TokenTTL)
	admins := adminservice.New(stores.admins, password.NewHasher(cfg.Auth.BcryptCost), tokens, stores.revocations,
		adminservice.WithLogger(log),
		adminservice.WithAuditPublisher(auditing.publisher),
		adminservice.WithAuditReader(auditing.publisher),
		adminservice.WithMetrics(m),
		adminservice.WithLockout(cfg.Auth.LockoutThreshold, cfg.Auth.LockoutDuration),
	)
	verifications := verificationservice.New(stores.verifications, docs,
		verificationservice.WithLogger(log),
		verificationservice.WithAuditPublisher(auditing.publisher),
		verificationservice.WithMetrics(m),
		verificationservice.WithMaxDocumentBytes(cfg.Storage.MaxUploadBytes),
	)
	lookups := lookup.NewService(stores.verifications,
		lookup.WithLogger(log),
		lookup.WithMetrics(m),
	)
	certificates := certificate.NewService(stores.certificates,
		certificate.WithLogger(log),
		certificate.WithAuditPublisher(auditing.publisher),
		certificate.WithMetrics(m),
		certificate.WithStorage(docs),
		certificate.WithMaxFileBytes(cfg.Storage.MaxUploadBytes),
	)

	intakeOwner, err := resolveIntakeOwner(ctx, cfg.Server.PublicIntakeOwner, stores.admins, log)
	if err != nil {
		return err
	}

	limiter, buckets := newRateLimiter(cfg.RateLimit, infra, m, log)

	router := httptransport.NewRouter(httptransport.Config{
		Logger:      log,
		Metrics:     m,
		Limiter:     limiter,
		Tokens:      jwttoken.NewJWTServiceAdapter(tokens),
		Revocations: revocation.NewChecker(stores.revocations),
		Admins:      admins,
		OpsToken:    cfg.Server.OpsToken,
		IntakeOwner: intakeOwner,
		UploadDir:   uploadDir,
		Health:      infra.Health,
	}, httptransport.Handlers{
		Admin:        adminhandler.New(admins, log),
		Verification: verificationhandler.New(verifications, log),
		Lookup:       lookup.NewHandler(lookups, log),
		Certificate:  certificate.NewHandler(certificates, log),
		RateLimit:    ratelimithandler.New(limiter, log),
	})

	srv := httpserver.New(cfg.Server.Addr, otelhttp.NewHandler(router, "docverify"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting docverify", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	if auditing.worker != nil {
		g.Go(func() error {
			return auditing.worker.Run(gctx)
		})
	}
	g.Go(func() error {
		sweepBuckets(gctx, buckets, log)
		return nil
	})
	return g.Wait()
}
