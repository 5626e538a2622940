package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"docverify/internal/admin/models"
	id "docverify/pkg/domain"
	audit "docverify/pkg/platform/audit"
	"docverify/pkg/platform/httputil"
	"docverify/pkg/requestcontext"
)

// Service is the admin account surface the handler needs.
type Service interface {
	Login(ctx context.Context, email, password string) (*models.LoginResult, error)
	Logout(ctx context.Context, actor id.Actor, jti string, expiresAt time.Time) error
	Profile(ctx context.Context, actor id.Actor) (*models.Admin, error)
	ListAdmins(ctx context.Context, actor id.Actor, page id.Page) ([]*models.Admin, id.Pagination, error)
	CreateAdmin(ctx context.Context, actor id.Actor, req *models.CreateAdminRequest) (*models.Admin, error)
	GetAdmin(ctx context.Context, actor id.Actor, adminID id.AdminID) (*models.Admin, error)
	UpdateAdmin(ctx context.Context, actor id.Actor, adminID id.AdminID, req *models.UpdateAdminRequest) (*models.Admin, error)
	DeactivateAdmin(ctx context.Context, actor id.Actor, adminID id.AdminID) error
	Activity(ctx context.Context, actor id.Actor, q audit.Query) ([]audit.Entry, error)
}

// Handler serves login, logout, profile and superadmin account management.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the unauthenticated login route.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/api/auth/login", h.HandleLogin)
}

// RegisterAuthenticated mounts routes for any signed-in admin.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Post("/api/auth/logout", h.HandleLogout)
	r.Get("/api/auth/profile", h.HandleProfile)
}

// RegisterSuperadmin mounts account management. The caller is expected to
// gate the router on the superadmin role; the service checks again.
func (h *Handler) RegisterSuperadmin(r chi.Router) {
	r.Get("/api/admins", h.HandleListAdmins)
	r.Post("/api/admins", h.HandleCreateAdmin)
	r.Get("/api/admins/{id}", h.HandleGetAdmin)
	r.Put("/api/admins/{id}", h.HandleUpdateAdmin)
	r.Delete("/api/admins/{id}", h.HandleDeactivateAdmin)
	r.Get("/api/audit", h.HandleActivity)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLoginResponse(res))
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := requestcontext.Actor(ctx)
	if err := h.service.Logout(ctx, actor, requestcontext.TokenID(ctx), requestcontext.TokenExpiry(ctx)); err != nil {
		h.logger.ErrorContext(ctx, "logout failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	admin, err := h.service.Profile(ctx, requestcontext.Actor(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, adminResponse{Admin: admin})
}

func (h *Handler) HandleListAdmins(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	admins, pagination, err := h.service.ListAdmins(ctx, requestcontext.Actor(ctx), httputil.PageFromQuery(r))
	if err != nil {
		h.logError(ctx, "failed to list admins", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Admins: admins, Pagination: pagination})
}

func (h *Handler) HandleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.CreateAdminRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	admin, err := h.service.CreateAdmin(ctx, requestcontext.Actor(ctx), req)
	if err != nil {
		h.logError(ctx, "failed to create admin", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, adminResponse{Admin: admin})
}

func (h *Handler) HandleGetAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	adminID, err := id.ParseAdminID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	admin, err := h.service.GetAdmin(ctx, requestcontext.Actor(ctx), adminID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, adminResponse{Admin: admin})
}

func (h *Handler) HandleUpdateAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	adminID, err := id.ParseAdminID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.UpdateAdminRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	admin, err := h.service.UpdateAdmin(ctx, requestcontext.Actor(ctx), adminID, req)
	if err != nil {
		h.logError(ctx, "failed to update admin", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, adminResponse{Admin: admin})
}

func (h *Handler) HandleDeactivateAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	adminID, err := id.ParseAdminID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeactivateAdmin(ctx, requestcontext.Actor(ctx), adminID); err != nil {
		h.logError(ctx, "failed to deactivate admin", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "Admin deactivated successfully"})
}

// HandleActivity lists audit entries. Query parameters: adminId, targetType,
// targetId, action (comma separated) and limit.
func (h *Handler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	query := audit.Query{
		TargetType: audit.TargetType(q.Get("targetType")),
		TargetID:   q.Get("targetId"),
	}
	if raw := q.Get("adminId"); raw != "" {
		adminID, err := id.ParseAdminID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		query.AdminID = adminID
	}
	if raw := q.Get("action"); raw != "" {
		for _, a := range strings.Split(raw, ",") {
			if action := audit.Action(strings.TrimSpace(a)); action.IsValid() {
				query.Actions = append(query.Actions, action)
			}
		}
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		query.Limit = min(limit, id.MaxPageLimit)
	}

	entries, err := h.service.Activity(ctx, requestcontext.Actor(ctx), query)
	if err != nil {
		h.logError(ctx, "failed to list audit entries", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, activityResponse{Entries: entries})
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}
