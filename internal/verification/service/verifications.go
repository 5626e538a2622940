package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"docverify/internal/scope"
	"docverify/internal/verification/models"
	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
	audit "docverify/pkg/platform/audit"
	"docverify/pkg/platform/sentinel"
	"docverify/pkg/requestcontext"
)

// Submit validates the applicant fields and the document, stores the file
// and persists a pending record owned by actor.
func (s *Service) Submit(ctx context.Context, actor id.Actor, req models.SubmitRequest, upload models.Upload) (*models.Verification, error) {
	ctx, span := spanFor(ctx, "verification.Submit", actor)
	defer span.End()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	sub, err := req.Submission()
	if err != nil {
		return nil, err
	}
	if err := s.checkDocument(upload); err != nil {
		return nil, err
	}

	url, err := s.storage.Put(ctx, upload.Data, upload.MimeType, documentsFolder)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to store document",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to store document")
	}

	now := requestcontext.Now(ctx)
	v, err := models.NewVerification(id.NewVerificationID(), sub,
		models.Document{
			URL:      url,
			Type:     models.DetectDocumentType(upload.Filename),
			Size:     upload.Size(),
			MimeType: strings.ToLower(upload.MimeType),
		},
		models.Origin{
			CreatedBy: actor.ID,
			IPAddress: requestcontext.ClientIP(ctx),
			UserAgent: requestcontext.UserAgent(ctx),
		},
		now,
	)
	if err != nil {
		s.discardDocument(ctx, url)
		return nil, toValidation(err)
	}
	if err := s.store.Create(ctx, v); err != nil {
		s.discardDocument(ctx, url)
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "verification already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save verification")
	}
	span.SetAttributes(attribute.String("verification.id", v.ID.String()))

	if s.metrics != nil {
		s.metrics.VerificationsSubmitted.Inc()
	}
	s.logAudit(ctx, audit.Entry{
		AdminID:    actor.ID,
		Action:     audit.ActionUpload,
		TargetType: audit.TargetUser,
		TargetID:   v.ID.String(),
		Details: audit.Details{
			"name":         v.Name,
			"email":        v.Email,
			"idNumber":     v.IDNumber,
			"documentType": v.DocumentType,
			"documentSize": v.DocumentSize,
		},
	})
	return v, nil
}

func (s *Service) checkDocument(upload models.Upload) error {
	if len(upload.Data) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "No document provided")
	}
	if !models.IsAllowedMimeType(upload.MimeType) {
		return dErrors.New(dErrors.CodeUnsupportedMediaType,
			fmt.Sprintf("File type %s is not allowed. Allowed types: JPG, PNG, PDF", upload.MimeType))
	}
	if upload.Size() > s.maxDocBytes {
		return dErrors.New(dErrors.CodePayloadTooLarge,
			fmt.Sprintf("File too large. Maximum size is %dMB", s.maxDocBytes/(1024*1024)))
	}
	return nil
}

// discardDocument removes a file whose record was never persisted.
func (s *Service) discardDocument(ctx context.Context, url string) {
	if _, err := s.storage.Delete(ctx, url); err != nil {
		s.logger.WarnContext(ctx, "failed to delete orphaned document",
			"url", url,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

// Review sets the review status of a visible record. Re-applying the same
// status is allowed and restamps the reviewer.
func (s *Service) Review(ctx context.Context, actor id.Actor, vid id.VerificationID, status, notes string) (*models.Verification, error) {
	ctx, span := spanFor(ctx, "verification.Review", actor)
	defer span.End()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	next, err := models.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	notes = strings.TrimSpace(notes)
	if err := models.ValidateNotes(notes); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var previous models.Status
	updated, err := s.store.Execute(ctx, scope.Verifications(actor, models.Filter{ID: vid}), nil,
		func(v *models.Verification) {
			previous = v.Status
			v.ApplyReview(next, notes, actor.ID, now)
		},
	)
	if err != nil {
		return nil, s.translate(err, "failed to update verification")
	}

	if s.metrics != nil {
		s.metrics.ReviewDecisions.WithLabelValues(string(next)).Inc()
	}
	s.logAudit(ctx, audit.Entry{
		AdminID:    actor.ID,
		Action:     audit.ActionUpdate,
		TargetType: audit.TargetUser,
		TargetID:   updated.ID.String(),
		Details: audit.Details{
			"email":      updated.Email,
			"oldStatus":  previous,
			"newStatus":  next,
			"notes":      notes,
			"reviewedBy": actor.Email,
		},
	})
	return updated, nil
}

// SetEmploymentStatus switches a visible record between active and former.
func (s *Service) SetEmploymentStatus(ctx context.Context, actor id.Actor, vid id.VerificationID, status string, endDate *time.Time) (*models.Verification, error) {
	ctx, span := spanFor(ctx, "verification.SetEmploymentStatus", actor)
	defer span.End()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	next, err := models.ParseEmploymentStatus(status)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var previous models.EmploymentStatus
	updated, err := s.store.Execute(ctx, scope.Verifications(actor, models.Filter{ID: vid}), nil,
		func(v *models.Verification) {
			previous = v.EmploymentStatus
			v.ApplyEmploymentStatus(next, endDate, now)
		},
	)
	if err != nil {
		return nil, s.translate(err, "failed to update employment status")
	}

	s.logAudit(ctx, audit.Entry{
		AdminID:    actor.ID,
		Action:     audit.ActionUpdate,
		TargetType: audit.TargetUser,
		TargetID:   updated.ID.String(),
		Details: audit.Details{
			"employmentStatusChange": map[string]any{
				"from":    previous,
				"to":      next,
				"endDate": updated.EndDate,
			},
			"updatedBy": actor.Email,
		},
	})
	return updated, nil
}

// Delete removes a visible record and then its document. A failed file
// delete is logged and does not fail the call.
func (s *Service) Delete(ctx context.Context, actor id.Actor, vid id.VerificationID) error {
	ctx, span := spanFor(ctx, "verification.Delete", actor)
	defer span.End()

	if err := requireActor(actor); err != nil {
		return err
	}
	deleted, err := s.store.Delete(ctx, scope.Verifications(actor, models.Filter{ID: vid}))
	if err != nil {
		return s.translate(err, "failed to delete verification")
	}

	if _, err := s.storage.Delete(ctx, deleted.DocumentURL); err != nil {
		s.logger.WarnContext(ctx, "failed to delete document file",
			"verification_id", deleted.ID,
			"url", deleted.DocumentURL,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}

	s.logAudit(ctx, audit.Entry{
		AdminID:    actor.ID,
		Action:     audit.ActionDelete,
		TargetType: audit.TargetUser,
		TargetID:   deleted.ID.String(),
		Details: audit.Details{
			"email":     deleted.Email,
			"name":      deleted.Name,
			"deletedBy": actor.Email,
		},
	})
	return nil
}

// List returns one page of visible records, newest first. An unknown status
// filter is ignored rather than rejected.
func (s *Service) List(ctx context.Context, actor id.Actor, q models.ListQuery) ([]*models.Verification, id.Pagination, error) {
	ctx, span := spanFor(ctx, "verification.List", actor)
	defer span.End()

	if err := requireActor(actor); err != nil {
		return nil, id.Pagination{}, err
	}
	search := strings.TrimSpace(q.Search)
	if utf8.RuneCountInString(search) > models.MaxSearchLength {
		return nil, id.Pagination{}, dErrors.New(dErrors.CodeValidation, "search query cannot exceed 100 characters")
	}
	filter := models.Filter{Search: search}
	if st := models.Status(strings.TrimSpace(q.Status)); st.IsValid() {
		filter.Status = st
	}
	page := id.NewPage(q.Page.Number, q.Page.Limit)

	records, total, err := s.store.FindMany(ctx, scope.Verifications(actor, filter), page)
	if err != nil {
		return nil, id.Pagination{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to fetch verifications")
	}
	return records, id.NewPagination(page, total), nil
}

// Get returns one visible record.
func (s *Service) Get(ctx context.Context, actor id.Actor, vid id.VerificationID) (*models.Verification, error) {
	ctx, span := spanFor(ctx, "verification.Get", actor)
	defer span.End()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	v, err := s.store.FindOne(ctx, scope.Verifications(actor, models.Filter{ID: vid}))
	if err != nil {
		return nil, s.translate(err, "failed to fetch verification")
	}
	return v, nil
}

// Stats aggregates the visible records by status and lists the newest few.
func (s *Service) Stats(ctx context.Context, actor id.Actor) (*models.Stats, error) {
	ctx, span := spanFor(ctx, "verification.Stats", actor)
	defer span.End()

	if err := requireActor(actor); err != nil {
		return nil, err
	}
	filter := scope.Verifications(actor, models.Filter{})

	var (
		counts models.StatusCounts
		recent []*models.Verification
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = s.store.AggregateByStatus(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.store.Recent(gctx, filter, models.RecentLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to fetch verification statistics")
	}
	if recent == nil {
		recent = []*models.Verification{}
	}
	return &models.Stats{Counts: counts, Recent: recent}, nil
}

// translate maps store errors. A record outside the caller's scope is
// indistinguishable from a missing one.
func (s *Service) translate(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFoundMessage)
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
