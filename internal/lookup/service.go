// Package lookup answers unauthenticated questions about verification
// records: by record id, by ID number, and the applicant status check.
package lookup

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"

	"docverify/internal/platform/metrics"
	"docverify/internal/verification/models"
	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/platform/sentinel"
	"docverify/pkg/requestcontext"
)

type Store interface {
	FindOne(ctx context.Context, filter models.Filter) (*models.Verification, error)
	LatestApprovedByIDNumber(ctx context.Context, idNumber string) (*models.Verification, error)
	LatestByIDNumber(ctx context.Context, idNumber string) (*models.Verification, error)
}

var tracer = otel.Tracer("docverify/lookup")

type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ByRecordID returns a record by its id, with origin metadata stripped.
func (s *Service) ByRecordID(ctx context.Context, vid id.VerificationID) (*models.Verification, error) {
	ctx, span := tracer.Start(ctx, "lookup.ByRecordID")
	defer span.End()

	v, err := s.store.FindOne(ctx, models.Filter{ID: vid})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.observe("record", "miss")
			return nil, dErrors.New(dErrors.CodeNotFound, recordNotFound)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to fetch verification")
	}
	s.observe("record", "hit")
	v.IPAddress = ""
	v.UserAgent = ""
	return v, nil
}

// ByIDNumber reports whether idNumber has an approved record. It never
// returns not found; an unknown number is simply unverified.
func (s *Service) ByIDNumber(ctx context.Context, idNumber string) (*VerifiedView, error) {
	ctx, span := tracer.Start(ctx, "lookup.ByIDNumber")
	defer span.End()

	idNumber = strings.TrimSpace(idNumber)
	s.logAttempt(ctx, "ID document verification attempt", idNumber)

	v, err := s.store.LatestApprovedByIDNumber(ctx, idNumber)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.observe("id_number", "unverified")
			return &VerifiedView{Verified: false, Message: notVerifiedMessage}, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Server error during verification")
	}
	s.observe("id_number", "verified")
	return &VerifiedView{Verified: true, Data: toVerifiedRecord(v)}, nil
}

// StatusByIDNumber reports the review state of the latest submission for
// idNumber.
func (s *Service) StatusByIDNumber(ctx context.Context, idNumber string) (*StatusView, error) {
	ctx, span := tracer.Start(ctx, "lookup.StatusByIDNumber")
	defer span.End()

	idNumber = strings.TrimSpace(idNumber)
	v, err := s.store.LatestByIDNumber(ctx, idNumber)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.observe("status", "miss")
			return nil, dErrors.New(dErrors.CodeNotFound, noRecordMessage)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Server error while checking status")
	}
	s.observe("status", string(v.Status))
	return toStatusView(v), nil
}

func (s *Service) logAttempt(ctx context.Context, msg, idNumber string) {
	s.logger.InfoContext(ctx, msg,
		"id_number", idNumber,
		"ip", requestcontext.ClientIP(ctx),
		"user_agent", requestcontext.UserAgent(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
}

func (s *Service) observe(kind, outcome string) {
	if s.metrics != nil {
		s.metrics.PublicLookups.WithLabelValues(kind, outcome).Inc()
	}
}
