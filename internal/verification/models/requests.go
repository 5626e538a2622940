package models

import (
	"strings"
	"time"

	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
)

// SubmitRequest carries the multipart form fields of an upload.
type SubmitRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required"`
	Phone      string `json:"phone"`
	IDNumber   string `json:"idNumber" validate:"required"`
	JobTitle   string `json:"jobTitle" validate:"required"`
	Department string `json:"department" validate:"required"`
	StartDate  string `json:"startDate" validate:"required"`
}

// Submission parses the start date and returns the validated applicant fields.
func (r SubmitRequest) Submission() (Submission, error) {
	start, err := ParseDate(r.StartDate)
	if err != nil {
		return Submission{}, dErrors.New(dErrors.CodeValidation, "Invalid start date format")
	}
	sub := Submission{
		Name:       r.Name,
		Email:      r.Email,
		Phone:      r.Phone,
		IDNumber:   r.IDNumber,
		JobTitle:   r.JobTitle,
		Department: r.Department,
		StartDate:  start,
	}
	if err := sub.Validate(); err != nil {
		return Submission{}, err
	}
	return sub, nil
}

// Upload is the raw file part of a submission.
type Upload struct {
	Filename string
	MimeType string
	Data     []byte
}

func (u Upload) Size() int64 { return int64(len(u.Data)) }

type ReviewRequest struct {
	Status string `json:"status" validate:"required"`
	Notes  string `json:"notes"`
}

func (r *ReviewRequest) Validate() error {
	r.Status = strings.TrimSpace(r.Status)
	r.Notes = strings.TrimSpace(r.Notes)
	return ValidateNotes(r.Notes)
}

type EmploymentStatusRequest struct {
	EmploymentStatus string  `json:"employmentStatus"`
	EndDate          *string `json:"endDate,omitempty"`
}

func (r *EmploymentStatusRequest) Validate() error {
	if _, err := ParseEmploymentStatus(r.EmploymentStatus); err != nil {
		return dErrors.New(dErrors.CodeValidation, "Valid employment status (active/former) is required")
	}
	if r.EndDate != nil && strings.TrimSpace(*r.EndDate) == "" {
		r.EndDate = nil
	}
	return nil
}

// ParsedEndDate returns the optional end date, nil when absent.
func (r EmploymentStatusRequest) ParsedEndDate() (*time.Time, error) {
	if r.EndDate == nil {
		return nil, nil
	}
	t, err := ParseDate(*r.EndDate)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "Invalid end date format")
	}
	return &t, nil
}

// ListQuery selects one page of the caller's visible records.
type ListQuery struct {
	Page   id.Page
	Status string
	Search string
}

const MaxSearchLength = 100

// Stats is the dashboard summary: per-status counts plus the newest records.
type Stats struct {
	Counts StatusCounts    `json:"stats"`
	Recent []*Verification `json:"recent"`
}

const RecentLimit = 5

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// ParseDate accepts a calendar date or an RFC 3339 timestamp and returns UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
