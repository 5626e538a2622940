// Package service implements the verification record lifecycle: submission,
// review, employment status changes, deletion and the scoped read views.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"docverify/internal/platform/metrics"
	"docverify/internal/verification/models"
	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
	audit "docverify/pkg/platform/audit"
	"docverify/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, v *models.Verification) error
	FindOne(ctx context.Context, filter models.Filter) (*models.Verification, error)
	FindMany(ctx context.Context, filter models.Filter, page id.Page) ([]*models.Verification, int, error)
	Execute(ctx context.Context, filter models.Filter, validate func(*models.Verification) error, mutate func(*models.Verification)) (*models.Verification, error)
	Delete(ctx context.Context, filter models.Filter) (*models.Verification, error)
	AggregateByStatus(ctx context.Context, filter models.Filter) (models.StatusCounts, error)
	Recent(ctx context.Context, filter models.Filter, n int) ([]*models.Verification, error)
}

// DocumentStorage keeps the uploaded files.
type DocumentStorage interface {
	Put(ctx context.Context, data []byte, mimeType, folder string) (string, error)
	Delete(ctx context.Context, url string) (bool, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, entry audit.Entry) error
}

const documentsFolder = "documents"

const notFoundMessage = "verification not found or you do not have permission"

var tracer = otel.Tracer("docverify/verification")

// Service owns verification records. Every read and write is narrowed by
// scope.Verifications before it reaches the store.
type Service struct {
	store          Store
	storage        DocumentStorage
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	maxDocBytes    int64
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

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithMaxDocumentBytes overrides the upload size limit.
func WithMaxDocumentBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxDocBytes = n
		}
	}
}

func New(store Store, storage DocumentStorage, opts ...Option) *Service {
	s := &Service{
		store:       store,
		storage:     storage,
		logger:      slog.Default(),
		maxDocBytes: models.DefaultMaxDocumentBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxDocumentBytes is the configured upload limit, used by the handler to
// bound multipart parsing.
func (s *Service) MaxDocumentBytes() int64 {
	return s.maxDocBytes
}

// logAudit writes the structured audit log line and emits the entry.
// Emit failures are logged and never undo the state change.
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

func requireActor(actor id.Actor) error {
	if actor.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return nil
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
