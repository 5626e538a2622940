package lookup

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"docverify/internal/verification/models"
	id "docverify/pkg/domain"
	"docverify/pkg/platform/httputil"
	"docverify/pkg/requestcontext"
)

// LookupService is the public read surface.
type LookupService interface {
	ByRecordID(ctx context.Context, vid id.VerificationID) (*models.Verification, error)
	ByIDNumber(ctx context.Context, idNumber string) (*VerifiedView, error)
	StatusByIDNumber(ctx context.Context, idNumber string) (*StatusView, error)
}

type Handler struct {
	service LookupService
	logger  *slog.Logger
}

func NewHandler(service LookupService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public lookup routes. Callers wrap r in the lookup
// rate limit.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/verify/id/{idNumber}", h.HandleByIDNumber)
	r.Get("/api/verify/status/{idNumber}", h.HandleStatus)
	r.Get("/api/verify/{id}", h.HandleByRecordID)
}

type recordResponse struct {
	Data *models.Verification `json:"data"`
}

type statusResponse struct {
	Data *StatusView `json:"data"`
}

func (h *Handler) HandleByRecordID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vid, err := id.ParseVerificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	v, err := h.service.ByRecordID(ctx, vid)
	if err != nil {
		h.logError(ctx, "record lookup failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, recordResponse{Data: v})
}

func (h *Handler) HandleByIDNumber(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.service.ByIDNumber(ctx, chi.URLParam(r, "idNumber"))
	if err != nil {
		h.logError(ctx, "id number lookup failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.service.StatusByIDNumber(ctx, chi.URLParam(r, "idNumber"))
	if err != nil {
		h.logError(ctx, "status lookup failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, statusResponse{Data: view})
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.InfoContext(ctx, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}
