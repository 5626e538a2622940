package models

import (
	"net/netip"
	"strings"
	"time"

	dErrors "docverify/pkg/domain-errors"
)

// EndpointClass groups routes that share a per-IP budget.
type EndpointClass string

const (
	// ClassAuth covers POST /api/auth/login.
	ClassAuth EndpointClass = "auth"
	// ClassLookup covers the public /api/verify/* reads.
	ClassLookup EndpointClass = "lookup"
	// ClassUpload covers the public self-service upload.
	ClassUpload EndpointClass = "upload"
)

func (c EndpointClass) IsValid() bool {
	switch c {
	case ClassAuth, ClassLookup, ClassUpload:
		return true
	}
	return false
}

func ParseEndpointClass(s string) (EndpointClass, error) {
	c := EndpointClass(s)
	if !c.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid endpoint class: must be auth, lookup or upload")
	}
	return c, nil
}

// Policy is a sliding-window budget: at most Limit requests per Window.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Default budgets per client IP.
var DefaultPolicies = map[EndpointClass]Policy{
	ClassAuth:   {Limit: 5, Window: 15 * time.Minute},
	ClassLookup: {Limit: 60, Window: time.Minute},
	ClassUpload: {Limit: 3, Window: time.Hour},
}

// ExceededMessages is the client-facing text for a 429 per class.
var ExceededMessages = map[EndpointClass]string{
	ClassAuth:   "Too many login attempts. Please try again later.",
	ClassLookup: "Too many verification requests. Please try again later.",
	ClassUpload: "Too many upload attempts. Please try again later.",
}

// RateLimitResult represents the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// RateLimitExceededResponse is the 429 body.
type RateLimitExceededResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	RetryAfter       int    `json:"retry_after"`
}

// ResetRequest clears one client's window for a class.
type ResetRequest struct {
	Class string `json:"class" validate:"required"`
	IP    string `json:"ip" validate:"required"`

	class EndpointClass
}

func (r *ResetRequest) Validate() error {
	class, err := ParseEndpointClass(strings.TrimSpace(r.Class))
	if err != nil {
		return err
	}
	r.IP = strings.TrimSpace(r.IP)
	if _, err := netip.ParseAddr(r.IP); err != nil {
		return dErrors.New(dErrors.CodeValidation, "ip must be a valid IPv4 or IPv6 address")
	}
	r.class = class
	return nil
}

// EndpointClass returns the class parsed by Validate.
func (r *ResetRequest) EndpointClass() EndpointClass {
	return r.class
}
