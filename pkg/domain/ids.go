package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "docverify/pkg/domain-errors"
)

// Typed identifiers. Distinct named types stop an AdminID from being passed
// where a VerificationID is expected.
type (
	AdminID        uuid.UUID
	VerificationID uuid.UUID
	CertificateID  uuid.UUID
)

func NewAdminID() AdminID               { return AdminID(uuid.New()) }
func NewVerificationID() VerificationID { return VerificationID(uuid.New()) }
func NewCertificateID() CertificateID   { return CertificateID(uuid.New()) }

func (id AdminID) String() string        { return uuid.UUID(id).String() }
func (id VerificationID) String() string { return uuid.UUID(id).String() }
func (id CertificateID) String() string  { return uuid.UUID(id).String() }

// Text marshaling renders ids as canonical UUID strings in JSON and logs.
func (id AdminID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id VerificationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id CertificateID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }

func (id *AdminID) UnmarshalText(b []byte) error        { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *VerificationID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *CertificateID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }

func (id AdminID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id VerificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id CertificateID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// ParseAdminID parses a non-nil admin id.
func ParseAdminID(s string) (AdminID, error) {
	u, err := parseUUID(s, "admin ID")
	return AdminID(u), err
}

// ParseVerificationID parses a non-nil verification record id.
func ParseVerificationID(s string) (VerificationID, error) {
	u, err := parseUUID(s, "verification ID")
	return VerificationID(u), err
}

// ParseCertificateID parses a non-nil certificate record id.
func ParseCertificateID(s string) (CertificateID, error) {
	u, err := parseUUID(s, "certificate ID")
	return CertificateID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	return u, nil
}
