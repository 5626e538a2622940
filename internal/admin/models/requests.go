package models

import (
	"strings"
	"time"

	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	r.Email = id.NormalizeEmail(r.Email)
	return nil
}

// LoginResult is a successful login: the signed token and the account it
// was issued for.
type LoginResult struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
	Admin     *Admin
}

type CreateAdminRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	Phone       string `json:"phone" validate:"required"`
	Department  string `json:"department" validate:"max=100"`
	Designation string `json:"designation" validate:"max=100"`
	Role        string `json:"role" validate:"omitempty,oneof=admin superadmin"`
}

func (r *CreateAdminRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = id.NormalizeEmail(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Department = strings.TrimSpace(r.Department)
	r.Designation = strings.TrimSpace(r.Designation)
	if err := id.ValidatePhone(r.Phone); err != nil {
		return err
	}
	return id.ValidatePassword(r.Password)
}

// UpdateAdminRequest is a partial update; absent fields are left unchanged.
type UpdateAdminRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Password    *string `json:"password,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Department  *string `json:"department,omitempty" validate:"omitempty,max=100"`
	Designation *string `json:"designation,omitempty" validate:"omitempty,max=100"`
	Role        *string `json:"role,omitempty" validate:"omitempty,oneof=admin superadmin"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

func (r *UpdateAdminRequest) Validate() error {
	if r.Name != nil {
		trimmed := strings.TrimSpace(*r.Name)
		r.Name = &trimmed
	}
	if r.Email != nil {
		normalized := id.NormalizeEmail(*r.Email)
		r.Email = &normalized
	}
	if r.Phone != nil {
		if err := id.ValidatePhone(*r.Phone); err != nil {
			return err
		}
	}
	if r.Password != nil {
		if err := id.ValidatePassword(*r.Password); err != nil {
			return err
		}
	}
	if r.Name == nil && r.Email == nil && r.Password == nil && r.Phone == nil &&
		r.Department == nil && r.Designation == nil && r.Role == nil && r.IsActive == nil {
		return dErrors.New(dErrors.CodeValidation, "no fields to update")
	}
	return nil
}

// Seed describes the bootstrap superadmin.
type Seed struct {
	Email    string
	Password string
	Name     string
	Phone    string
}
