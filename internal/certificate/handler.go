package certificate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	vmodels "docverify/internal/verification/models"
	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/platform/httputil"
	"docverify/pkg/requestcontext"
)

// CertificateService is the surface the handler drives.
type CertificateService interface {
	Create(ctx context.Context, actor id.Actor, req CreateRequest) (*Certificate, error)
	Get(ctx context.Context, actor id.Actor, cid id.CertificateID, includeDeleted bool) (*Certificate, error)
	List(ctx context.Context, actor id.Actor, search string, includeDeleted bool, page id.Page) ([]*Certificate, id.Pagination, error)
	SoftDelete(ctx context.Context, actor id.Actor, cid id.CertificateID) (*Certificate, error)
	Restore(ctx context.Context, actor id.Actor, cid id.CertificateID) (*Certificate, error)
	Verify(ctx context.Context, certificateID string) (*Certificate, error)
	Upload(ctx context.Context, actor id.Actor, upload vmodels.Upload) (string, error)
	MaxFileBytes() int64
}

const (
	uploadField        = "document"
	multipartOverhead  = 1 << 20
	multipartMemory    = 32 << 20
	defaultContentType = "application/octet-stream"
)

type Handler struct {
	service CertificateService
	logger  *slog.Logger
}

func NewHandler(service CertificateService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterAuthenticated mounts the admin certificate routes.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Get("/api/certificates", h.HandleList)
	r.Post("/api/certificates", h.HandleCreate)
	r.Get("/api/certificates/{id}", h.HandleGet)
	r.Delete("/api/certificates/{id}", h.HandleDelete)
	r.Post("/api/certificates/{id}/restore", h.HandleRestore)
	r.Post("/api/upload/certificate", h.HandleUpload)
}

// RegisterPublic mounts the unauthenticated verify route.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/api/verify/certificate/{certificateId}", h.HandleVerify)
}

type certificateResponse struct {
	Message string       `json:"message,omitempty"`
	Data    *Certificate `json:"data"`
}

type listResponse struct {
	Data       []*Certificate `json:"data"`
	Pagination id.Pagination  `json:"pagination"`
}

type verifyResponse struct {
	Verified bool        `json:"verified"`
	Message  string      `json:"message,omitempty"`
	Data     *PublicView `json:"data,omitempty"`
}

type uploadResponse struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

func includeDeleted(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("includeDeleted"))
	return v
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	certs, pagination, err := h.service.List(ctx, requestcontext.Actor(ctx),
		r.URL.Query().Get("q"), includeDeleted(r), httputil.PageFromQuery(r))
	if err != nil {
		h.logError(ctx, "failed to list certificates", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Data: certs, Pagination: pagination})
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	c, err := h.service.Create(ctx, requestcontext.Actor(ctx), *req)
	if err != nil {
		h.logError(ctx, "failed to create certificate", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, certificateResponse{Message: "Certificate created successfully", Data: c})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cid, err := id.ParseCertificateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.Get(ctx, requestcontext.Actor(ctx), cid, includeDeleted(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, certificateResponse{Data: c})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cid, err := id.ParseCertificateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.SoftDelete(ctx, requestcontext.Actor(ctx), cid)
	if err != nil {
		h.logError(ctx, "failed to delete certificate", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, certificateResponse{Message: "Certificate deleted successfully", Data: c})
}

func (h *Handler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cid, err := id.ParseCertificateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.Restore(ctx, requestcontext.Actor(ctx), cid)
	if err != nil {
		h.logError(ctx, "failed to restore certificate", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, certificateResponse{Message: "Certificate restored successfully", Data: c})
}

// HandleVerify answers 200 with verified=false for unknown and deleted
// certificates.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := h.service.Verify(ctx, chi.URLParam(r, "certificateId"))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			httputil.WriteJSON(w, http.StatusOK, verifyResponse{Verified: false, Message: notFoundMessage})
			return
		}
		h.logError(ctx, "certificate verification failed", err)
		httputil.WriteError(w, err)
		return
	}
	view := c.Public()
	httputil.WriteJSON(w, http.StatusOK, verifyResponse{Verified: true, Data: &view})
}

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	upload, err := h.readUpload(w, r)
	if err != nil {
		h.logError(ctx, "failed to read certificate upload", err)
		httputil.WriteError(w, err)
		return
	}
	url, err := h.service.Upload(ctx, requestcontext.Actor(ctx), upload)
	if err != nil {
		h.logError(ctx, "failed to upload certificate", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, uploadResponse{Message: "File uploaded successfully", URL: url})
}

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (vmodels.Upload, error) {
	limit := h.service.MaxFileBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return vmodels.Upload{}, dErrors.New(dErrors.CodePayloadTooLarge, "File too large")
		}
		return vmodels.Upload{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid multipart form")
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return vmodels.Upload{}, dErrors.New(dErrors.CodeBadRequest, "No file uploaded")
		}
		return vmodels.Upload{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid file part")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return vmodels.Upload{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read file")
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}
	return vmodels.Upload{
		Filename: header.Filename,
		MimeType: strings.ToLower(contentType),
		Data:     data,
	}, nil
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}
