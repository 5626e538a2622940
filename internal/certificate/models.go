// Package certificate keeps the legacy registry of issued employment
// certificates: admin CRUD with soft delete and a public verify endpoint.
package certificate

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	vmodels "docverify/internal/verification/models"
	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
)

const (
	MaxFieldLength         = 100
	MaxCertificateIDLength = 100
)

var certificateIDPattern = regexp.MustCompile(`^[a-zA-Z0-9\-_]+$`)

// Certificate is one issued certificate. A non-nil DeletedAt hides it from
// default reads and from public verification.
type Certificate struct {
	ID             id.CertificateID `json:"id"`
	CertificateID  string           `json:"certificateId"`
	Name           string           `json:"name"`
	Email          string           `json:"email,omitempty"`
	Company        string           `json:"company,omitempty"`
	Position       string           `json:"position,omitempty"`
	FromDate       *time.Time       `json:"fromDate"`
	ToDate         *time.Time       `json:"toDate"`
	CertificateURL string           `json:"certificateUrl,omitempty"`
	Extra          map[string]any   `json:"extra"`
	CreatedBy      id.AdminID       `json:"createdBy"`
	UpdatedBy      *id.AdminID      `json:"updatedBy,omitempty"`
	DeletedAt      *time.Time       `json:"deletedAt,omitempty"`
	DeletedBy      *id.AdminID      `json:"deletedBy,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

func (c *Certificate) IsDeleted() bool {
	return c.DeletedAt != nil
}

func (c *Certificate) SoftDelete(by id.AdminID, now time.Time) {
	c.DeletedAt = &now
	c.DeletedBy = &by
	c.UpdatedBy = &by
	c.UpdatedAt = now
}

func (c *Certificate) Restore(by id.AdminID, now time.Time) {
	c.DeletedAt = nil
	c.DeletedBy = nil
	c.UpdatedBy = &by
	c.UpdatedAt = now
}

// Filter narrows store reads. Deleted certificates match only when
// IncludeDeleted is set.
type Filter struct {
	ID             id.CertificateID
	CertificateID  string
	Search         string
	IncludeDeleted bool
}

func (f Filter) Matches(c *Certificate) bool {
	if !f.ID.IsNil() && c.ID != f.ID {
		return false
	}
	if f.CertificateID != "" && c.CertificateID != f.CertificateID {
		return false
	}
	if !f.IncludeDeleted && c.IsDeleted() {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		for _, field := range []string{c.CertificateID, c.Name, c.Email, c.Company} {
			if strings.Contains(strings.ToLower(field), q) {
				return true
			}
		}
		return false
	}
	return true
}

// CreateRequest is the JSON body of POST /api/certificates.
type CreateRequest struct {
	CertificateID  string         `json:"certificateId" validate:"required"`
	Name           string         `json:"name" validate:"required"`
	Email          string         `json:"email"`
	Company        string         `json:"company"`
	Position       string         `json:"position"`
	FromDate       string         `json:"fromDate"`
	ToDate         string         `json:"toDate"`
	CertificateURL string         `json:"certificateUrl"`
	Extra          map[string]any `json:"extra"`

	fromDate *time.Time
	toDate   *time.Time
}

// Validate trims the fields, parses the dates and enforces the limits.
func (r *CreateRequest) Validate() error {
	r.CertificateID = strings.TrimSpace(r.CertificateID)
	r.Name = strings.TrimSpace(r.Name)
	r.Email = id.NormalizeEmail(r.Email)
	r.Company = strings.TrimSpace(r.Company)
	r.Position = strings.TrimSpace(r.Position)
	r.CertificateURL = strings.TrimSpace(r.CertificateURL)

	if r.CertificateID == "" {
		return dErrors.New(dErrors.CodeValidation, "Certificate ID is required")
	}
	if utf8.RuneCountInString(r.CertificateID) > MaxCertificateIDLength {
		return dErrors.New(dErrors.CodeValidation, "Certificate ID cannot exceed 100 characters")
	}
	if !certificateIDPattern.MatchString(r.CertificateID) {
		return dErrors.New(dErrors.CodeValidation,
			"Certificate ID can only contain alphanumeric characters, hyphens, and underscores")
	}
	if err := id.ValidatePersonName(r.Name); err != nil {
		return err
	}
	if r.Email != "" {
		if err := id.ValidateEmail(r.Email); err != nil {
			return err
		}
	}
	if utf8.RuneCountInString(r.Company) > MaxFieldLength {
		return dErrors.New(dErrors.CodeValidation, "Company name cannot exceed 100 characters")
	}
	if utf8.RuneCountInString(r.Position) > MaxFieldLength {
		return dErrors.New(dErrors.CodeValidation, "Position cannot exceed 100 characters")
	}

	var err error
	if r.fromDate, err = optionalDate(r.FromDate, "Invalid from date format"); err != nil {
		return err
	}
	if r.toDate, err = optionalDate(r.ToDate, "Invalid to date format"); err != nil {
		return err
	}
	if r.fromDate != nil && r.toDate != nil && r.fromDate.After(*r.toDate) {
		return dErrors.New(dErrors.CodeValidation, "From date must be before or equal to to date")
	}
	return nil
}

func optionalDate(raw, msg string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := vmodels.ParseDate(raw)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, msg)
	}
	return &t, nil
}

// NewCertificate validates req and builds a live certificate owned by createdBy.
func NewCertificate(cid id.CertificateID, req CreateRequest, createdBy id.AdminID, now time.Time) (*Certificate, error) {
	if err := req.Validate(); err != nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, err.Error())
	}
	if createdBy.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "createdBy is required")
	}
	extra := req.Extra
	if extra == nil {
		extra = map[string]any{}
	}
	return &Certificate{
		ID:             cid,
		CertificateID:  req.CertificateID,
		Name:           req.Name,
		Email:          req.Email,
		Company:        req.Company,
		Position:       req.Position,
		FromDate:       req.fromDate,
		ToDate:         req.toDate,
		CertificateURL: req.CertificateURL,
		Extra:          extra,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// PublicView is what the unauthenticated verify endpoint reveals.
type PublicView struct {
	CertificateID  string         `json:"certificateId"`
	Name           string         `json:"name"`
	Company        string         `json:"company,omitempty"`
	Position       string         `json:"position,omitempty"`
	FromDate       *time.Time     `json:"fromDate"`
	ToDate         *time.Time     `json:"toDate"`
	CertificateURL string         `json:"certificateUrl,omitempty"`
	Extra          map[string]any `json:"extra,omitempty"`
}

func (c *Certificate) Public() PublicView {
	return PublicView{
		CertificateID:  c.CertificateID,
		Name:           c.Name,
		Company:        c.Company,
		Position:       c.Position,
		FromDate:       c.FromDate,
		ToDate:         c.ToDate,
		CertificateURL: c.CertificateURL,
		Extra:          c.Extra,
	}
}
