// Package scope is the single place that decides which records an actor may
// touch. Every read, update, delete and aggregate over verification records,
// and every admin listing, narrows its filter here before reaching a store.
package scope

import (
	adminModels "docverify/internal/admin/models"
	"docverify/internal/verification/models"
	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
)

// Verifications returns base unchanged for a superadmin. For anyone else it
// pins CreatedBy to the actor, overwriting whatever the caller supplied.
func Verifications(actor id.Actor, base models.Filter) models.Filter {
	if actor.IsSuperadmin() {
		return base
	}
	base.CreatedBy = actor.ID
	return base
}

// Admins applies the same rule to admin listings: a non-superadmin only ever
// sees its own account.
func Admins(actor id.Actor, base adminModels.Filter) adminModels.Filter {
	if actor.IsSuperadmin() {
		return base
	}
	base.ID = actor.ID
	return base
}

// RequireSuperadmin guards operations reserved for superadmins.
func RequireSuperadmin(actor id.Actor) error {
	if actor.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !actor.IsSuperadmin() {
		return dErrors.New(dErrors.CodeForbidden, "superadmin role required")
	}
	return nil
}
