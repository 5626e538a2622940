package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"docverify/internal/admin/models"
	"docverify/internal/admin/password"
	jwttoken "docverify/internal/jwt_token"
	"docverify/internal/platform/metrics"
	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
	audit "docverify/pkg/platform/audit"
	"docverify/pkg/platform/sentinel"
	"docverify/pkg/requestcontext"
)

type AdminStore interface {
	Create(ctx context.Context, admin *models.Admin) error
	FindByID(ctx context.Context, adminID id.AdminID) (*models.Admin, error)
	FindByEmail(ctx context.Context, email string) (*models.Admin, error)
	FindMany(ctx context.Context, filter models.Filter, page id.Page) ([]*models.Admin, int, error)
	CountByRole(ctx context.Context, role id.Role) (int, error)
	Execute(ctx context.Context, adminID id.AdminID, validate func(*models.Admin) error, mutate func(*models.Admin)) (*models.Admin, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) error
}

type TokenIssuer interface {
	IssueAccessToken(actor id.Actor) (*jwttoken.IssuedToken, error)
}

type TokenRevoker interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, entry audit.Entry) error
}

type AuditReader interface {
	List(ctx context.Context, q audit.Query) ([]audit.Entry, error)
}

const (
	DefaultLockoutThreshold = 5
	DefaultLockoutDuration  = 15 * time.Minute
)

var errInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")

var tracer = otel.Tracer("docverify/admin")

// Service owns admin accounts, login and logout.
type Service struct {
	admins           AdminStore
	hasher           PasswordHasher
	tokens           TokenIssuer
	revoker          TokenRevoker
	logger           *slog.Logger
	auditPublisher   AuditPublisher
	auditReader      AuditReader
	metrics          *metrics.Metrics
	lockoutThreshold int
	lockoutDuration  time.Duration

	dummyOnce sync.Once
	dummyHash string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithAuditReader enables the superadmin activity listing.
func WithAuditReader(reader AuditReader) Option {
	return func(s *Service) {
		s.auditReader = reader
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLockout overrides the failed-login threshold and lock duration.
func WithLockout(threshold int, duration time.Duration) Option {
	return func(s *Service) {
		if threshold > 0 {
			s.lockoutThreshold = threshold
		}
		if duration > 0 {
			s.lockoutDuration = duration
		}
	}
}

func New(admins AdminStore, hasher PasswordHasher, tokens TokenIssuer, revoker TokenRevoker, opts ...Option) *Service {
	s := &Service{
		admins:           admins,
		hasher:           hasher,
		tokens:           tokens,
		revoker:          revoker,
		logger:           slog.Default(),
		lockoutThreshold: DefaultLockoutThreshold,
		lockoutDuration:  DefaultLockoutDuration,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authenticate checks credentials and records the outcome on the account.
// Every failure reaches the caller as the same "invalid credentials" error.
func (s *Service) Authenticate(ctx context.Context, email, plain string) (*models.Admin, error) {
	ctx, span := tracer.Start(ctx, "admin.Authenticate")
	defer span.End()

	now := requestcontext.Now(ctx)
	email = id.NormalizeEmail(email)

	admin, err := s.admins.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// equalize timing with the wrong-password path
			_ = s.hasher.Verify(plain, s.dummy())
			s.loginFailed(ctx, "unknown_email", "email", email)
			return nil, errInvalidCredentials
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load admin")
	}
	span.SetAttributes(attribute.String("admin.id", admin.ID.String()))

	if err := admin.CanAuthenticate(now); err != nil {
		s.loginFailed(ctx, "blocked", "admin_id", admin.ID, "cause", err.Error())
		return nil, errInvalidCredentials
	}

	if err := s.hasher.Verify(plain, admin.PasswordHash); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify password")
		}
		s.recordFailedLogin(ctx, admin.ID, now)
		return nil, errInvalidCredentials
	}

	updated, err := s.admins.Execute(ctx, admin.ID,
		func(a *models.Admin) error { return a.CanAuthenticate(now) },
		func(a *models.Admin) { a.ApplySuccessfulLogin(now) },
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			s.loginFailed(ctx, "blocked", "admin_id", admin.ID, "cause", err.Error())
			return nil, errInvalidCredentials
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record login")
	}

	s.incrementLogin("success")
	s.logAudit(ctx, audit.Entry{
		AdminID:    updated.ID,
		Action:     audit.ActionLogin,
		TargetType: audit.TargetAdmin,
		TargetID:   updated.ID.String(),
		Details:    audit.Details{"email": updated.Email},
	})
	return updated, nil
}

func (s *Service) recordFailedLogin(ctx context.Context, adminID id.AdminID, now time.Time) {
	var locked bool
	_, err := s.admins.Execute(ctx, adminID, nil, func(a *models.Admin) {
		locked = a.ApplyFailedLogin(now, s.lockoutThreshold, s.lockoutDuration)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to record failed login",
			"admin_id", adminID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	s.loginFailed(ctx, "wrong_password", "admin_id", adminID)
	if locked {
		s.logger.WarnContext(ctx, "account locked after repeated failed logins",
			"admin_id", adminID,
			"locked_for", s.lockoutDuration.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

// Login authenticates and issues an access token.
func (s *Service) Login(ctx context.Context, email, plain string) (*models.LoginResult, error) {
	admin, err := s.Authenticate(ctx, email, plain)
	if err != nil {
		return nil, err
	}
	issued, err := s.tokens.IssueAccessToken(admin.Actor())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	return &models.LoginResult{
		Token:     issued.Token,
		JTI:       issued.JTI,
		ExpiresAt: issued.ExpiresAt,
		Admin:     admin,
	}, nil
}

// Logout revokes the presented token until it would have expired anyway.
func (s *Service) Logout(ctx context.Context, actor id.Actor, jti string, expiresAt time.Time) error {
	if actor.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if ttl := expiresAt.Sub(requestcontext.Now(ctx)); jti != "" && ttl > 0 && s.revoker != nil {
		if err := s.revoker.RevokeToken(ctx, jti, ttl); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
		}
	}
	s.logAudit(ctx, audit.Entry{
		AdminID:    actor.ID,
		Action:     audit.ActionLogout,
		TargetType: audit.TargetAdmin,
		TargetID:   actor.ID.String(),
		Details:    audit.Details{"email": actor.Email},
	})
	return nil
}

// Profile returns the caller's own account.
func (s *Service) Profile(ctx context.Context, actor id.Actor) (*models.Admin, error) {
	if actor.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return s.load(ctx, actor.ID)
}

// EnsureCanAct rejects tokens whose admin has since been deactivated or locked.
func (s *Service) EnsureCanAct(ctx context.Context, adminID id.AdminID) error {
	admin, err := s.admins.FindByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeUnauthorized, "admin not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load admin")
	}
	return admin.CanAuthenticate(requestcontext.Now(ctx))
}

func (s *Service) load(ctx context.Context, adminID id.AdminID) (*models.Admin, error) {
	admin, err := s.admins.FindByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "admin not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load admin")
	}
	return admin, nil
}

// dummy returns a valid hash used to burn the same bcrypt time for unknown emails.
func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("docverify-timing-equalizer-1A")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

func (s *Service) loginFailed(ctx context.Context, reason string, attrs ...any) {
	s.incrementLogin(reason)
	args := append([]any{"reason", reason, "request_id", requestcontext.RequestID(ctx)}, attrs...)
	s.logger.WarnContext(ctx, "login failed", args...)
}

func (s *Service) incrementLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.LoginAttempts.WithLabelValues(outcome).Inc()
	}
}

// logAudit writes the structured audit log line and emits the entry.
// Emit failures are logged and never fail the operation.
func (s *Service) logAudit(ctx context.Context, entry audit.Entry) {
	s.logger.InfoContext(ctx, string(entry.Action),
		"admin_id", entry.AdminID,
		"target_type", entry.TargetType,
		"target_id", entry.TargetID,
		"request_id", requestcontext.RequestID(ctx),
		"log_type", "audit",
	)
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit entry",
			"action", entry.Action,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

func spanFor(ctx context.Context, name string, actor id.Actor) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("actor.id", actor.ID.String()),
		attribute.String("actor.role", actor.Role.String()),
	))
}

func toValidation(err error) error {
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		var de *dErrors.Error
		if errors.As(err, &de) {
			return dErrors.New(dErrors.CodeValidation, de.Message)
		}
	}
	return err
}
