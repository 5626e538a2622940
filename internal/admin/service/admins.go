package service

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/codes"

	"docverify/internal/admin/models"
	"docverify/internal/scope"
	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/email"
	audit "docverify/pkg/platform/audit"
	"docverify/pkg/platform/sentinel"
	"docverify/pkg/requestcontext"
)

// ListAdmins returns active admins newest first.
func (s *Service) ListAdmins(ctx context.Context, actor id.Actor, page id.Page) ([]*models.Admin, id.Pagination, error) {
	ctx, span := spanFor(ctx, "admin.ListAdmins", actor)
	defer span.End()

	if err := scope.RequireSuperadmin(actor); err != nil {
		return nil, id.Pagination{}, err
	}
	filter := scope.Admins(actor, models.Filter{ActiveOnly: true})
	admins, total, err := s.admins.FindMany(ctx, filter, page)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, id.Pagination{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list admins")
	}
	return admins, id.NewPagination(page, total), nil
}

func (s *Service) CreateAdmin(ctx context.Context, actor id.Actor, req *models.CreateAdminRequest) (*models.Admin, error) {
	ctx, span := spanFor(ctx, "admin.CreateAdmin", actor)
	defer span.End()

	if err := scope.RequireSuperadmin(actor); err != nil {
		return nil, err
	}
	if err := id.ValidatePassword(req.Password); err != nil {
		return nil, err
	}
	role := id.RoleAdmin
	if req.Role != "" {
		parsed, err := id.ParseRole(req.Role)
		if err != nil {
			return nil, err
		}
		role = parsed
	}
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, toValidation(err)
	}

	createdBy := actor.ID
	admin, err := models.NewAdmin(id.NewAdminID(), req.Name, req.Email, hash, req.Phone, role, &createdBy, requestcontext.Now(ctx))
	if err != nil {
		return nil, toValidation(err)
	}
	admin.Department = req.Department
	admin.Designation = req.Designation

	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "admin with this email already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create admin")
	}

	s.logAudit(ctx, audit.Entry{
		AdminID:    actor.ID,
		Action:     audit.ActionCreate,
		TargetType: audit.TargetAdmin,
		TargetID:   admin.ID.String(),
		Details:    audit.Details{"email": admin.Email, "role": admin.Role},
	})
	return admin, nil
}

func (s *Service) GetAdmin(ctx context.Context, actor id.Actor, adminID id.AdminID) (*models.Admin, error) {
	if err := scope.RequireSuperadmin(actor); err != nil {
		return nil, err
	}
	return s.load(ctx, adminID)
}

// UpdateAdmin applies a partial update. The whole update is validated before
// anything is written.
func (s *Service) UpdateAdmin(ctx context.Context, actor id.Actor, adminID id.AdminID, req *models.UpdateAdminRequest) (*models.Admin, error) {
	ctx, span := spanFor(ctx, "admin.UpdateAdmin", actor)
	defer span.End()

	if err := scope.RequireSuperadmin(actor); err != nil {
		return nil, err
	}

	update := models.Update{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Department:  req.Department,
		Designation: req.Designation,
		IsActive:    req.IsActive,
	}
	if req.Role != nil {
		role, err := id.ParseRole(*req.Role)
		if err != nil {
			return nil, err
		}
		update.Role = &role
	}
	if req.Password != nil {
		if err := id.ValidatePassword(*req.Password); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, toValidation(err)
		}
		update.PasswordHash = &hash
	}
	changed := changedFields(req)

	now := requestcontext.Now(ctx)
	updated, err := s.admins.Execute(ctx, adminID,
		func(a *models.Admin) error {
			if update.IsActive != nil && !*update.IsActive {
				if err := a.CanDeactivate(actor.ID); err != nil {
					return err
				}
			}
			probe := *a
			return probe.ApplyUpdate(update, now)
		},
		func(a *models.Admin) {
			_ = a.ApplyUpdate(update, now)
		},
	)
	if err != nil {
		return nil, s.translateExecute(err)
	}

	s.logAudit(ctx, audit.Entry{
		AdminID:    actor.ID,
		Action:     audit.ActionUpdate,
		TargetType: audit.TargetAdmin,
		TargetID:   updated.ID.String(),
		Details:    audit.Details{"email": updated.Email, "changes": changed},
	})
	return updated, nil
}

// DeactivateAdmin soft-deletes an admin. Self-deactivation is refused before
// any state changes.
func (s *Service) DeactivateAdmin(ctx context.Context, actor id.Actor, adminID id.AdminID) error {
	ctx, span := spanFor(ctx, "admin.DeactivateAdmin", actor)
	defer span.End()

	if err := scope.RequireSuperadmin(actor); err != nil {
		return err
	}
	now := requestcontext.Now(ctx)
	updated, err := s.admins.Execute(ctx, adminID,
		func(a *models.Admin) error { return a.CanDeactivate(actor.ID) },
		func(a *models.Admin) { a.ApplyDeactivation(now) },
	)
	if err != nil {
		return s.translateExecute(err)
	}

	s.logAudit(ctx, audit.Entry{
		AdminID:    actor.ID,
		Action:     audit.ActionDelete,
		TargetType: audit.TargetAdmin,
		TargetID:   updated.ID.String(),
		Details:    audit.Details{"email": updated.Email, "deletedBy": actor.ID.String()},
	})
	return nil
}

// Bootstrap creates the first superadmin when none exists. It reports whether
// an account was created.
func (s *Service) Bootstrap(ctx context.Context, seed models.Seed) (*models.Admin, bool, error) {
	count, err := s.admins.CountByRole(ctx, id.RoleSuperadmin)
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count superadmins")
	}
	if count > 0 {
		return nil, false, nil
	}
	if seed.Email == "" || seed.Password == "" {
		return nil, false, dErrors.New(dErrors.CodeValidation, "superadmin email and password are required")
	}
	if err := id.ValidatePassword(seed.Password); err != nil {
		return nil, false, err
	}
	hash, err := s.hasher.Hash(seed.Password)
	if err != nil {
		return nil, false, toValidation(err)
	}
	name := strings.TrimSpace(seed.Name)
	if name == "" {
		name = email.DisplayName(seed.Email)
	}
	admin, err := models.NewAdmin(id.NewAdminID(), name, seed.Email, hash, seed.Phone, id.RoleSuperadmin, nil, requestcontext.Now(ctx))
	if err != nil {
		return nil, false, toValidation(err)
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, false, dErrors.New(dErrors.CodeConflict, "admin with this email already exists")
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create superadmin")
	}

	s.logAudit(ctx, audit.Entry{
		Action:     audit.ActionCreate,
		TargetType: audit.TargetAdmin,
		TargetID:   admin.ID.String(),
		Details:    audit.Details{"email": admin.Email, "role": admin.Role, "seeded": true},
	})
	return admin, true, nil
}

// Activity lists audit entries for superadmins.
func (s *Service) Activity(ctx context.Context, actor id.Actor, q audit.Query) ([]audit.Entry, error) {
	if err := scope.RequireSuperadmin(actor); err != nil {
		return nil, err
	}
	if s.auditReader == nil {
		return []audit.Entry{}, nil
	}
	entries, err := s.auditReader.List(ctx, q)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit entries")
	}
	return entries, nil
}

func (s *Service) translateExecute(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "admin not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "admin with this email already exists")
	case dErrors.HasCode(err, dErrors.CodeInvariantViolation):
		return toValidation(err)
	case dErrors.HasCode(err, dErrors.CodeBadRequest):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update admin")
	}
}

func changedFields(req *models.UpdateAdminRequest) []string {
	var fields []string
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(req.Name != nil, "name")
	add(req.Email != nil, "email")
	add(req.Password != nil, "password")
	add(req.Phone != nil, "phone")
	add(req.Department != nil, "department")
	add(req.Designation != nil, "designation")
	add(req.Role != nil, "role")
	add(req.IsActive != nil, "isActive")
	return fields
}
