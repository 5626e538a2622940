// Command seed creates the bootstrap superadmin from SUPERADMIN_* settings.
// It is a no-op when a superadmin already exists.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"docverify/internal/admin/models"
	"docverify/internal/admin/password"
	adminservice "docverify/internal/admin/service"
	adminstore "docverify/internal/admin/store"
	"docverify/internal/auth/revocation"
	jwttoken "docverify/internal/jwt_token"
	"docverify/internal/platform/config"
	"docverify/internal/platform/logger"
	"docverify/internal/platform/postgres"
	"docverify/pkg/platform/audit/publisher"
	auditpostgres "docverify/pkg/platform/audit/store/postgres"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.LogLevel, cfg.Server.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if cfg.Postgres.DSN == "" {
		return errors.New("DATABASE_URL is required to seed")
	}
	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(db, log); err != nil {
		return err
	}

	tokens := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.TokenTTL)
	svc := adminservice.New(adminstore.NewPostgres(db), password.NewHasher(cfg.Auth.BcryptCost), tokens, revocation.NewInMemoryTRL(),
		adminservice.WithLogger(log),
		adminservice.WithAuditPublisher(publisher.NewPublisher(auditpostgres.New(db), publisher.WithLogger(log))),
	)

	admin, created, err := svc.Bootstrap(ctx, models.Seed{
		Email:    cfg.Seed.Email,
		Password: cfg.Seed.Password,
		Name:     cfg.Seed.Name,
		Phone:    cfg.Seed.Phone,
	})
	if err != nil {
		return err
	}
	if !created {
		log.Info("superadmin already exists, nothing to do")
		return nil
	}
	log.Info("superadmin created", "admin_id", admin.ID.String(), "email", admin.Email)
	return nil
}
