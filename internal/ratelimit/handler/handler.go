// Package handler exposes superadmin controls over the rate limiter.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"docverify/internal/ratelimit/models"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/platform/httputil"
	"docverify/pkg/requestcontext"
)

// Resetter clears a client's sliding window.
type Resetter interface {
	Reset(ctx context.Context, class models.EndpointClass, ip string) error
}

type Handler struct {
	limiter Resetter
	logger  *slog.Logger
}

func New(limiter Resetter, logger *slog.Logger) *Handler {
	return &Handler{limiter: limiter, logger: logger}
}

// RegisterAdmin mounts the superadmin routes. Callers apply the role gate.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/api/admin/rate-limit/reset", h.HandleReset)
}

type resetResponse struct {
	Message string `json:"message"`
	Class   string `json:"class"`
	IP      string `json:"ip"`
}

func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.ResetRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	class := req.EndpointClass()
	if err := h.limiter.Reset(ctx, class, req.IP); err != nil {
		h.logger.ErrorContext(ctx, "failed to reset rate limit",
			"error", err,
			"class", string(class),
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeStorage, "failed to reset rate limit"))
		return
	}

	h.logger.InfoContext(ctx, "rate limit reset",
		"log_type", "audit",
		"class", string(class),
		"actor_id", requestcontext.Actor(ctx).ID.String(),
		"request_id", requestID,
	)
	httputil.WriteJSON(w, http.StatusOK, resetResponse{
		Message: "Rate limit reset",
		Class:   string(class),
		IP:      req.IP,
	})
}
