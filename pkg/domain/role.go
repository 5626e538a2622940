package domain

import (
	dErrors "docverify/pkg/domain-errors"
)

// Role is the privilege level of an admin account.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role must be 'admin' or 'superadmin'")
	}
	return r, nil
}

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleSuperadmin
}

func (r Role) String() string {
	return string(r)
}

// Actor is the authenticated admin performing an operation. It is all the
// verification core needs to know about the caller.
type Actor struct {
	ID    AdminID
	Email string
	Role  Role
}

// IsSuperadmin reports whether the actor has unrestricted visibility.
func (a Actor) IsSuperadmin() bool {
	return a.Role == RoleSuperadmin
}

// IsZero reports whether no actor was resolved.
func (a Actor) IsZero() bool {
	return a.ID.IsNil()
}
