package models

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
)

const (
	MaxIDNumberLength             = 50
	MaxNotesLength                = 500
	MinWorkFieldLen               = 2
	MaxWorkFieldLen               = 100
	DefaultMaxDocumentBytes int64 = 10 * 1024 * 1024
)

var idNumberPattern = regexp.MustCompile(`^[a-zA-Z0-9\-_/\s]+$`)

// Verification is one submitted identity document and its review state.
//
// Invariants:
//   - Status is pending right after submission
//   - ReviewedBy and ReviewedAt are both set unless Status is pending
//   - EndDate is set if and only if EmploymentStatus is former
//   - CreatedBy never changes after creation
type Verification struct {
	ID               id.VerificationID `json:"id"`
	Name             string            `json:"name"`
	Email            string            `json:"email"`
	Phone            string            `json:"phone,omitempty"`
	IDNumber         string            `json:"idNumber"`
	DocumentURL      string            `json:"documentUrl"`
	DocumentType     DocumentType      `json:"documentType"`
	DocumentSize     int64             `json:"documentSize"`
	DocumentMimeType string            `json:"documentMimeType"`
	JobTitle         string            `json:"jobTitle"`
	Department       string            `json:"department"`
	StartDate        time.Time         `json:"startDate"`
	EndDate          *time.Time        `json:"endDate"`
	EmploymentStatus EmploymentStatus  `json:"employmentStatus"`
	Status           Status            `json:"status"`
	ReviewedBy       *id.AdminID       `json:"reviewedBy"`
	ReviewedAt       *time.Time        `json:"reviewedAt"`
	Notes            string            `json:"notes,omitempty"`
	CreatedBy        id.AdminID        `json:"createdBy"`
	IPAddress        string            `json:"-"`
	UserAgent        string            `json:"-"`
	SubmittedAt      time.Time         `json:"submittedAt"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// Submission holds the applicant fields of a new record, already trimmed.
type Submission struct {
	Name       string
	Email      string
	Phone      string
	IDNumber   string
	JobTitle   string
	Department string
	StartDate  time.Time
}

// Validate checks field presence and limits. Errors are validation errors.
func (s *Submission) Validate() error {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = id.NormalizeEmail(s.Email)
	s.Phone = strings.TrimSpace(s.Phone)
	s.IDNumber = strings.TrimSpace(s.IDNumber)
	s.JobTitle = strings.TrimSpace(s.JobTitle)
	s.Department = strings.TrimSpace(s.Department)

	if s.Name == "" || s.Email == "" || s.IDNumber == "" || s.JobTitle == "" || s.Department == "" || s.StartDate.IsZero() {
		return dErrors.New(dErrors.CodeValidation,
			"name, email, ID number, job title, department, and start date are required")
	}
	if err := id.ValidatePersonName(s.Name); err != nil {
		return err
	}
	if err := id.ValidateEmail(s.Email); err != nil {
		return err
	}
	if s.Phone != "" {
		if err := id.ValidatePhone(s.Phone); err != nil {
			return err
		}
	}
	if utf8.RuneCountInString(s.IDNumber) > MaxIDNumberLength {
		return dErrors.New(dErrors.CodeValidation, "ID number cannot exceed 50 characters")
	}
	if !idNumberPattern.MatchString(s.IDNumber) {
		return dErrors.New(dErrors.CodeValidation, "ID number contains invalid characters")
	}
	if n := utf8.RuneCountInString(s.JobTitle); n < MinWorkFieldLen || n > MaxWorkFieldLen {
		return dErrors.New(dErrors.CodeValidation, "job title must be between 2 and 100 characters")
	}
	if n := utf8.RuneCountInString(s.Department); n < MinWorkFieldLen || n > MaxWorkFieldLen {
		return dErrors.New(dErrors.CodeValidation, "department must be between 2 and 100 characters")
	}
	return nil
}

// Document describes the stored file attached to a record.
type Document struct {
	URL      string
	Type     DocumentType
	Size     int64
	MimeType string
}

// Origin records who submitted and from where.
type Origin struct {
	CreatedBy id.AdminID
	IPAddress string
	UserAgent string
}

// NewVerification builds a pending record with active employment.
func NewVerification(vid id.VerificationID, sub Submission, doc Document, origin Origin, now time.Time) (*Verification, error) {
	if err := sub.Validate(); err != nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, err.Error())
	}
	if doc.URL == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "document URL is required")
	}
	if origin.CreatedBy.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "createdBy is required")
	}
	return &Verification{
		ID:               vid,
		Name:             sub.Name,
		Email:            sub.Email,
		Phone:            sub.Phone,
		IDNumber:         sub.IDNumber,
		DocumentURL:      doc.URL,
		DocumentType:     doc.Type,
		DocumentSize:     doc.Size,
		DocumentMimeType: doc.MimeType,
		JobTitle:         sub.JobTitle,
		Department:       sub.Department,
		StartDate:        sub.StartDate,
		EmploymentStatus: EmploymentActive,
		Status:           StatusPending,
		CreatedBy:        origin.CreatedBy,
		IPAddress:        origin.IPAddress,
		UserAgent:        origin.UserAgent,
		SubmittedAt:      now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// ValidateNotes checks reviewer notes length.
func ValidateNotes(notes string) error {
	if utf8.RuneCountInString(notes) > MaxNotesLength {
		return dErrors.New(dErrors.CodeValidation, "notes cannot exceed 500 characters")
	}
	return nil
}

// ApplyReview moves the record to status. Any status may follow any other.
// Moving into pending clears the reviewer, review time and notes; any other
// target stamps reviewer and time, and replaces notes only when given.
func (v *Verification) ApplyReview(status Status, notes string, reviewer id.AdminID, now time.Time) {
	v.Status = status
	v.UpdatedAt = now
	if status == StatusPending {
		v.ReviewedBy = nil
		v.ReviewedAt = nil
		v.Notes = notes
		return
	}
	r := reviewer
	t := now
	v.ReviewedBy = &r
	v.ReviewedAt = &t
	if notes != "" {
		v.Notes = notes
	}
}

// ApplyEmploymentStatus switches the employment axis. Going former uses
// endDate when given, keeps an existing end date otherwise, and falls back to
// now. Going active clears the end date.
func (v *Verification) ApplyEmploymentStatus(status EmploymentStatus, endDate *time.Time, now time.Time) {
	v.EmploymentStatus = status
	v.UpdatedAt = now
	switch status {
	case EmploymentFormer:
		switch {
		case endDate != nil:
			d := *endDate
			v.EndDate = &d
		case v.EndDate == nil:
			d := now
			v.EndDate = &d
		}
	case EmploymentActive:
		v.EndDate = nil
	}
}

// Filter selects verification records. Zero fields are ignored.
type Filter struct {
	ID        id.VerificationID
	CreatedBy id.AdminID
	Status    Status
	IDNumber  string
	// Search is a case-insensitive substring matched against name, email,
	// ID number, job title and department.
	Search string
}

// Matches evaluates the filter in memory.
func (f Filter) Matches(v *Verification) bool {
	if !f.ID.IsNil() && v.ID != f.ID {
		return false
	}
	if !f.CreatedBy.IsNil() && v.CreatedBy != f.CreatedBy {
		return false
	}
	if f.Status != "" && v.Status != f.Status {
		return false
	}
	if f.IDNumber != "" && v.IDNumber != f.IDNumber {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		for _, field := range []string{v.Name, v.Email, v.IDNumber, v.JobTitle, v.Department} {
			if strings.Contains(strings.ToLower(field), q) {
				return true
			}
		}
		return false
	}
	return true
}

// StatusCounts is the per-status aggregate of a filtered set.
type StatusCounts struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// Add folds n records of status s into the counts.
func (c *StatusCounts) Add(s Status, n int) {
	switch s {
	case StatusPending:
		c.Pending += n
	case StatusApproved:
		c.Approved += n
	case StatusRejected:
		c.Rejected += n
	default:
		return
	}
	c.Total += n
}
