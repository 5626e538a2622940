package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"docverify/internal/verification/models"
	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/platform/httputil"
	"docverify/pkg/requestcontext"
)

// Service is the verification lifecycle surface the handler needs.
type Service interface {
	Submit(ctx context.Context, actor id.Actor, req models.SubmitRequest, upload models.Upload) (*models.Verification, error)
	Review(ctx context.Context, actor id.Actor, vid id.VerificationID, status, notes string) (*models.Verification, error)
	SetEmploymentStatus(ctx context.Context, actor id.Actor, vid id.VerificationID, status string, endDate *time.Time) (*models.Verification, error)
	Delete(ctx context.Context, actor id.Actor, vid id.VerificationID) error
	List(ctx context.Context, actor id.Actor, q models.ListQuery) ([]*models.Verification, id.Pagination, error)
	Get(ctx context.Context, actor id.Actor, vid id.VerificationID) (*models.Verification, error)
	Stats(ctx context.Context, actor id.Actor) (*models.Stats, error)
	MaxDocumentBytes() int64
}

const (
	documentField = "document"
	// multipartOverhead is slack for form fields and part headers on top of
	// the document size limit.
	multipartOverhead  = 1 << 20
	multipartMemory    = 32 << 20
	defaultContentType = "application/octet-stream"
)

// Handler serves document submission, review and the admin record views.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterAuthenticated mounts the admin document routes.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Post("/api/document/upload", h.HandleSubmit)
	r.Get("/api/document/verifications", h.HandleList)
	r.Get("/api/document/stats", h.HandleStats)
	r.Get("/api/document/{id}", h.HandleGet)
	r.Put("/api/document/verify/{id}", h.HandleReview)
	r.Patch("/api/document/{id}/employment-status", h.HandleEmploymentStatus)
	r.Delete("/api/document/verify/{id}", h.HandleDelete)
}

// RegisterIntake mounts the public self-service upload. Submissions are
// owned by the given intake admin.
func (h *Handler) RegisterIntake(r chi.Router, owner id.Actor) {
	r.Post("/api/upload/document", func(w http.ResponseWriter, r *http.Request) {
		h.submit(w, r, owner)
	})
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, requestcontext.Actor(r.Context()))
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, actor id.Actor) {
	ctx := r.Context()

	req, upload, err := h.readSubmission(w, r)
	if err != nil {
		h.logError(ctx, "failed to read upload", err)
		httputil.WriteError(w, err)
		return
	}

	v, err := h.service.Submit(ctx, actor, req, upload)
	if err != nil {
		h.logError(ctx, "failed to submit document", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, submitResponse{
		Message:        "Document uploaded successfully for verification",
		VerificationID: v.ID,
		Data: submitSummary{
			ID:          v.ID,
			Name:        v.Name,
			Email:       v.Email,
			Status:      v.Status,
			SubmittedAt: v.SubmittedAt,
		},
	})
}

// readSubmission parses the multipart body. The body is capped slightly
// above the document limit so oversized uploads fail before buffering.
func (h *Handler) readSubmission(w http.ResponseWriter, r *http.Request) (models.SubmitRequest, models.Upload, error) {
	limit := h.service.MaxDocumentBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return models.SubmitRequest{}, models.Upload{}, dErrors.New(dErrors.CodePayloadTooLarge, "File too large")
		}
		return models.SubmitRequest{}, models.Upload{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid multipart form")
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	req := models.SubmitRequest{
		Name:       r.FormValue("name"),
		Email:      r.FormValue("email"),
		Phone:      r.FormValue("phone"),
		IDNumber:   r.FormValue("idNumber"),
		JobTitle:   r.FormValue("jobTitle"),
		Department: r.FormValue("department"),
		StartDate:  r.FormValue("startDate"),
	}

	file, header, err := r.FormFile(documentField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return req, models.Upload{}, dErrors.New(dErrors.CodeBadRequest, "No document provided")
		}
		return req, models.Upload{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid document part")
	}
	defer file.Close()

	upload, err := readUpload(file, header, limit)
	if err != nil {
		return req, models.Upload{}, err
	}
	if err := httputil.ValidateStruct(&req); err != nil {
		return req, models.Upload{}, dErrors.New(dErrors.CodeValidation,
			"Name, email, ID number, job title, department, and start date are required")
	}
	return req, upload, nil
}

func readUpload(file multipart.File, header *multipart.FileHeader, limit int64) (models.Upload, error) {
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return models.Upload{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read document")
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}
	return models.Upload{
		Filename: header.Filename,
		MimeType: strings.ToLower(contentType),
		Data:     data,
	}, nil
}

// HandleList reads page, limit, status and q from the query string.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	records, pagination, err := h.service.List(ctx, requestcontext.Actor(ctx), models.ListQuery{
		Page:   httputil.PageFromQuery(r),
		Status: q.Get("status"),
		Search: q.Get("q"),
	})
	if err != nil {
		h.logError(ctx, "failed to list verifications", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Data: records, Pagination: pagination})
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.service.Stats(ctx, requestcontext.Actor(ctx))
	if err != nil {
		h.logError(ctx, "failed to load verification stats", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, statsResponse{Data: stats})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vid, err := id.ParseVerificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	v, err := h.service.Get(ctx, requestcontext.Actor(ctx), vid)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, recordResponse{Data: v})
}

func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	vid, err := id.ParseVerificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.ReviewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	v, err := h.service.Review(ctx, requestcontext.Actor(ctx), vid, req.Status, req.Notes)
	if err != nil {
		h.logError(ctx, "failed to review verification", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, recordResponse{
		Message: "Verification status updated successfully",
		Data:    v,
	})
}

func (h *Handler) HandleEmploymentStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	vid, err := id.ParseVerificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.EmploymentStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	endDate, err := req.ParsedEndDate()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	v, err := h.service.SetEmploymentStatus(ctx, requestcontext.Actor(ctx), vid, req.EmploymentStatus, endDate)
	if err != nil {
		h.logError(ctx, "failed to update employment status", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, recordResponse{
		Message: "Employment status updated to " + string(v.EmploymentStatus),
		Data:    v,
	})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vid, err := id.ParseVerificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(ctx, requestcontext.Actor(ctx), vid); err != nil {
		h.logError(ctx, "failed to delete verification", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "Verification deleted successfully"})
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}
