package certificate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"docverify/internal/platform/metrics"
	vmodels "docverify/internal/verification/models"
	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
	audit "docverify/pkg/platform/audit"
	"docverify/pkg/platform/sentinel"
	"docverify/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, c *Certificate) error
	FindOne(ctx context.Context, filter Filter) (*Certificate, error)
	FindMany(ctx context.Context, filter Filter, page id.Page) ([]*Certificate, int, error)
	Execute(ctx context.Context, filter Filter, validate func(*Certificate) error, mutate func(*Certificate)) (*Certificate, error)
}

// FileStorage stores uploaded certificate files.
type FileStorage interface {
	Put(ctx context.Context, data []byte, mimeType, folder string) (string, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, entry audit.Entry) error
}

const (
	certificatesFolder = "certificates"
	notFoundMessage    = "Certificate not found"
)

var tracer = otel.Tracer("docverify/certificate")

// Service manages the certificate registry. Every authenticated admin may
// manage certificates; the public side only sees live ones.
type Service struct {
	store          Store
	storage        FileStorage
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	maxFileBytes   int64
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

func WithStorage(storage FileStorage) Option {
	return func(s *Service) {
		s.storage = storage
	}
}

func WithMaxFileBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxFileBytes = n
		}
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:        store,
		logger:       slog.Default(),
		maxFileBytes: vmodels.DefaultMaxDocumentBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) MaxFileBytes() int64 {
	return s.maxFileBytes
}

// Create registers a new certificate. CertificateID must be unique across
// live and deleted certificates.
func (s *Service) Create(ctx context.Context, actor id.Actor, req CreateRequest) (*Certificate, error) {
	ctx, span := spanFor(ctx, "certificate.Create", actor)
	defer span.End()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	c, err := NewCertificate(id.NewCertificateID(), req, actor.ID, requestcontext.Now(ctx))
	if err != nil {
		return nil, toValidation(err)
	}
	if err := s.store.Create(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "Certificate ID already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save certificate")
	}
	span.SetAttributes(attribute.String("certificate.id", c.ID.String()))

	s.logAudit(ctx, audit.Entry{
		AdminID:    actor.ID,
		Action:     audit.ActionCreate,
		TargetType: audit.TargetCertificate,
		TargetID:   c.ID.String(),
		Details: audit.Details{
			"certificateId": c.CertificateID,
			"name":          c.Name,
			"createdBy":     actor.Email,
		},
	})
	return c, nil
}

func (s *Service) Get(ctx context.Context, actor id.Actor, cid id.CertificateID, includeDeleted bool) (*Certificate, error) {
	ctx, span := spanFor(ctx, "certificate.Get", actor)
	defer span.End()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	c, err := s.store.FindOne(ctx, Filter{ID: cid, IncludeDeleted: includeDeleted})
	if err != nil {
		return nil, translate(err, "failed to fetch certificate")
	}
	return c, nil
}

// List pages through certificates newest first. search matches the
// certificate id, name, email and company case-insensitively.
func (s *Service) List(ctx context.Context, actor id.Actor, search string, includeDeleted bool, page id.Page) ([]*Certificate, id.Pagination, error) {
	ctx, span := spanFor(ctx, "certificate.List", actor)
	defer span.End()

	if err := requireActor(actor); err != nil {
		return nil, id.Pagination{}, err
	}
	search = strings.TrimSpace(search)
	if len([]rune(search)) > vmodels.MaxSearchLength {
		return nil, id.Pagination{}, dErrors.New(dErrors.CodeValidation, "search query cannot exceed 100 characters")
	}
	page = id.NewPage(page.Number, page.Limit)
	certs, total, err := s.store.FindMany(ctx, Filter{Search: search, IncludeDeleted: includeDeleted}, page)
	if err != nil {
		return nil, id.Pagination{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to fetch certificates")
	}
	return certs, id.NewPagination(page, total), nil
}

// SoftDelete hides a live certificate. Deleting an already deleted one is
// reported as not found.
func (s *Service) SoftDelete(ctx context.Context, actor id.Actor, cid id.CertificateID) (*Certificate, error) {
	ctx, span := spanFor(ctx, "certificate.SoftDelete", actor)
	defer span.End()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	c, err := s.store.Execute(ctx, Filter{ID: cid}, nil, func(c *Certificate) {
		c.SoftDelete(actor.ID, now)
	})
	if err != nil {
		return nil, translate(err, "failed to delete certificate")
	}
	s.logAudit(ctx, audit.Entry{
		AdminID:    actor.ID,
		Action:     audit.ActionDelete,
		TargetType: audit.TargetCertificate,
		TargetID:   c.ID.String(),
		Details: audit.Details{
			"certificateId": c.CertificateID,
			"name":          c.Name,
			"deletedBy":     actor.Email,
		},
	})
	return c, nil
}

// Restore brings back a soft-deleted certificate.
func (s *Service) Restore(ctx context.Context, actor id.Actor, cid id.CertificateID) (*Certificate, error) {
	ctx, span := spanFor(ctx, "certificate.Restore", actor)
	defer span.End()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	c, err := s.store.Execute(ctx, Filter{ID: cid, IncludeDeleted: true},
		func(c *Certificate) error {
			if !c.IsDeleted() {
				return dErrors.New(dErrors.CodeBadRequest, "Certificate is not deleted")
			}
			return nil
		},
		func(c *Certificate) { c.Restore(actor.ID, now) },
	)
	if err != nil {
		return nil, translate(err, "failed to restore certificate")
	}
	s.logAudit(ctx, audit.Entry{
		AdminID:    actor.ID,
		Action:     audit.ActionRestore,
		TargetType: audit.TargetCertificate,
		TargetID:   c.ID.String(),
		Details: audit.Details{
			"certificateId": c.CertificateID,
			"restoredBy":    actor.Email,
		},
	})
	return c, nil
}

// Verify is the public check. Deleted certificates are never returned.
func (s *Service) Verify(ctx context.Context, certificateID string) (*Certificate, error) {
	ctx, span := tracer.Start(ctx, "certificate.Verify")
	defer span.End()

	certificateID = strings.TrimSpace(certificateID)
	if certificateID == "" || !certificateIDPattern.MatchString(certificateID) {
		s.countLookup("miss")
		return nil, dErrors.New(dErrors.CodeNotFound, notFoundMessage)
	}
	c, err := s.store.FindOne(ctx, Filter{CertificateID: certificateID})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.countLookup("miss")
			s.logger.InfoContext(ctx, "certificate verification miss",
				"certificate_id", certificateID,
				"client_ip", requestcontext.ClientIP(ctx),
				"request_id", requestcontext.RequestID(ctx),
			)
			return nil, dErrors.New(dErrors.CodeNotFound, notFoundMessage)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify certificate")
	}
	s.countLookup("hit")
	return c, nil
}

// Upload stores a certificate file and returns its URL for use as
// CertificateURL.
func (s *Service) Upload(ctx context.Context, actor id.Actor, upload vmodels.Upload) (string, error) {
	ctx, span := spanFor(ctx, "certificate.Upload", actor)
	defer span.End()

	if err := requireActor(actor); err != nil {
		return "", err
	}
	if s.storage == nil {
		return "", dErrors.New(dErrors.CodeStorage, "file storage is not configured")
	}
	if len(upload.Data) == 0 {
		return "", dErrors.New(dErrors.CodeBadRequest, "No file uploaded")
	}
	if !vmodels.IsAllowedMimeType(upload.MimeType) {
		return "", dErrors.New(dErrors.CodeUnsupportedMediaType,
			fmt.Sprintf("File type %s is not allowed. Allowed types: JPG, PNG, PDF", upload.MimeType))
	}
	if upload.Size() > s.maxFileBytes {
		return "", dErrors.New(dErrors.CodePayloadTooLarge,
			fmt.Sprintf("File too large. Maximum size is %dMB", s.maxFileBytes/(1024*1024)))
	}
	url, err := s.storage.Put(ctx, upload.Data, upload.MimeType, certificatesFolder)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to store certificate file",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return "", dErrors.Wrap(err, dErrors.CodeStorage, "failed to store file")
	}
	s.logAudit(ctx, audit.Entry{
		AdminID:    actor.ID,
		Action:     audit.ActionUpload,
		TargetType: audit.TargetCertificate,
		Details: audit.Details{
			"filename": upload.Filename,
			"size":     upload.Size(),
			"mimeType": upload.MimeType,
			"url":      url,
		},
	})
	return url, nil
}

func (s *Service) countLookup(outcome string) {
	if s.metrics != nil {
		s.metrics.PublicLookups.WithLabelValues("certificate", outcome).Inc()
	}
}

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
	var de *dErrors.Error
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) && errors.As(err, &de) {
		return dErrors.New(dErrors.CodeValidation, de.Message)
	}
	return err
}

func translate(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFoundMessage)
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
