package models

import (
	"time"

	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
)

// Admin is an operator account.
//
// Invariants:
//   - Email is lowercased and unique across all admins
//   - Admins are never hard-deleted; deactivation clears IsActive
//   - A locked (LockUntil in the future) or inactive admin cannot authenticate
//   - CreatedBy is nil only for the bootstrap superadmin
type Admin struct {
	ID                  id.AdminID  `json:"id"`
	Name                string      `json:"name"`
	Email               string      `json:"email"`
	PasswordHash        string      `json:"-"`
	Phone               string      `json:"phone"`
	Department          string      `json:"department"`
	Designation         string      `json:"designation"`
	Role                id.Role     `json:"role"`
	IsActive            bool        `json:"isActive"`
	FailedLoginAttempts int         `json:"-"`
	LockUntil           *time.Time  `json:"-"`
	LastLogin           *time.Time  `json:"lastLogin,omitempty"`
	CreatedBy           *id.AdminID `json:"createdBy,omitempty"`
	CreatedAt           time.Time   `json:"createdAt"`
	UpdatedAt           time.Time   `json:"updatedAt"`
}

// NewAdmin validates and builds an active admin. passwordHash must already be hashed.
func NewAdmin(adminID id.AdminID, name, email, passwordHash, phone string, role id.Role, createdBy *id.AdminID, now time.Time) (*Admin, error) {
	if err := id.ValidatePersonName(name); err != nil {
		return nil, invariant(err)
	}
	email = id.NormalizeEmail(email)
	if err := id.ValidateEmail(email); err != nil {
		return nil, invariant(err)
	}
	if err := id.ValidatePhone(phone); err != nil {
		return nil, invariant(err)
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "password hash is required")
	}
	if role == "" {
		role = id.RoleAdmin
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid role")
	}
	return &Admin{
		ID:           adminID,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Phone:        phone,
		Role:         role,
		IsActive:     true,
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func invariant(err error) error {
	return dErrors.New(dErrors.CodeInvariantViolation, err.Error())
}

// Actor is the identity this admin acts with.
func (a *Admin) Actor() id.Actor {
	return id.Actor{ID: a.ID, Email: a.Email, Role: a.Role}
}

// IsLocked reports whether a lockout is in effect at now.
func (a *Admin) IsLocked(now time.Time) bool {
	return a.LockUntil != nil && a.LockUntil.After(now)
}

// CanAuthenticate reports why the account may not log in, if anything.
// The returned error is for logs; callers show a generic message.
func (a *Admin) CanAuthenticate(now time.Time) error {
	if !a.IsActive {
		return dErrors.New(dErrors.CodeUnauthorized, "account inactive")
	}
	if a.IsLocked(now) {
		return dErrors.New(dErrors.CodeUnauthorized, "account locked")
	}
	return nil
}

// ApplyFailedLogin counts a wrong password. Reaching threshold locks the
// account for lockFor and resets the counter. Returns true when this call
// triggered the lock.
func (a *Admin) ApplyFailedLogin(now time.Time, threshold int, lockFor time.Duration) bool {
	if a.LockUntil != nil && !a.LockUntil.After(now) {
		a.LockUntil = nil
	}
	a.FailedLoginAttempts++
	a.UpdatedAt = now
	if a.FailedLoginAttempts >= threshold {
		until := now.Add(lockFor)
		a.LockUntil = &until
		a.FailedLoginAttempts = 0
		return true
	}
	return false
}

// ApplySuccessfulLogin clears lockout state and stamps LastLogin.
func (a *Admin) ApplySuccessfulLogin(now time.Time) {
	a.FailedLoginAttempts = 0
	a.LockUntil = nil
	a.LastLogin = &now
	a.UpdatedAt = now
}

// CanDeactivate rejects self-deactivation.
func (a *Admin) CanDeactivate(actor id.AdminID) error {
	if a.ID == actor {
		return dErrors.New(dErrors.CodeBadRequest, "cannot deactivate your own account")
	}
	return nil
}

func (a *Admin) ApplyDeactivation(now time.Time) {
	a.IsActive = false
	a.UpdatedAt = now
}

// Update carries optional changes; nil fields are left untouched.
type Update struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Phone        *string
	Department   *string
	Designation  *string
	Role         *id.Role
	IsActive     *bool
}

// ApplyUpdate validates and applies u. Errors are invariant violations.
func (a *Admin) ApplyUpdate(u Update, now time.Time) error {
	next := *a
	if u.Name != nil {
		if err := id.ValidatePersonName(*u.Name); err != nil {
			return invariant(err)
		}
		next.Name = *u.Name
	}
	if u.Email != nil {
		email := id.NormalizeEmail(*u.Email)
		if err := id.ValidateEmail(email); err != nil {
			return invariant(err)
		}
		next.Email = email
	}
	if u.Phone != nil {
		if err := id.ValidatePhone(*u.Phone); err != nil {
			return invariant(err)
		}
		next.Phone = *u.Phone
	}
	if u.Role != nil {
		if !u.Role.IsValid() {
			return dErrors.New(dErrors.CodeInvariantViolation, "invalid role")
		}
		next.Role = *u.Role
	}
	if u.PasswordHash != nil {
		next.PasswordHash = *u.PasswordHash
	}
	if u.Department != nil {
		next.Department = *u.Department
	}
	if u.Designation != nil {
		next.Designation = *u.Designation
	}
	if u.IsActive != nil {
		next.IsActive = *u.IsActive
	}
	next.UpdatedAt = now
	*a = next
	return nil
}

// Filter selects admins. ID restricts to one account; ActiveOnly hides
// deactivated ones.
type Filter struct {
	ID         id.AdminID
	ActiveOnly bool
}
