package testutil

import (
	"net/http"
	"time"

	id "docverify/pkg/domain"
	"docverify/pkg/requestcontext"
)

// WithActor adds an authenticated admin to the request context.
// This simulates what the auth middleware would do for authenticated requests.
func WithActor(req *http.Request, actor id.Actor) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}

// WithAuth adds the actor plus the jti and expiry of the token it used.
func WithAuth(req *http.Request, actor id.Actor, jti string, expiresAt time.Time) *http.Request {
	ctx := requestcontext.WithActor(req.Context(), actor)
	ctx = requestcontext.WithToken(ctx, jti, expiresAt)
	return req.WithContext(ctx)
}

// Superadmin returns a fresh superadmin actor.
func Superadmin() id.Actor {
	return id.Actor{ID: id.NewAdminID(), Email: "root@example.com", Role: id.RoleSuperadmin}
}

// Admin returns a fresh admin actor.
func Admin() id.Actor {
	return id.Actor{ID: id.NewAdminID(), Email: "admin@example.com", Role: id.RoleAdmin}
}
