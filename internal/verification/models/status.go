package models

import (
	"path/filepath"
	"strings"

	dErrors "docverify/pkg/domain-errors"
)

// Status is the review state of a verification record.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func ParseStatus(s string) (Status, error) {
	st := Status(strings.TrimSpace(s))
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid status. Must be: approved, rejected, or pending")
	}
	return st, nil
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// EmploymentStatus is the independent employment axis of a record.
type EmploymentStatus string

const (
	EmploymentActive EmploymentStatus = "active"
	EmploymentFormer EmploymentStatus = "former"
)

func ParseEmploymentStatus(s string) (EmploymentStatus, error) {
	es := EmploymentStatus(strings.TrimSpace(s))
	if es != EmploymentActive && es != EmploymentFormer {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid employment status. Must be: active or former")
	}
	return es, nil
}

// DocumentType is a coarse label guessed from the uploaded filename.
type DocumentType string

const (
	DocumentPassport      DocumentType = "passport"
	DocumentDriverLicense DocumentType = "driver_license"
	DocumentNationalID    DocumentType = "national_id"
	DocumentOther         DocumentType = "other"
)

// DetectDocumentType classifies by substring of the lowercased base filename.
func DetectDocumentType(filename string) DocumentType {
	name := strings.ToLower(filepath.Base(filename))
	switch {
	case strings.Contains(name, "passport"):
		return DocumentPassport
	case strings.Contains(name, "license"), strings.Contains(name, "driving"):
		return DocumentDriverLicense
	case strings.Contains(name, "national"), strings.Contains(name, "id"):
		return DocumentNationalID
	default:
		return DocumentOther
	}
}

// Allowed upload mime types.
var allowedMimeTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"application/pdf": {},
}

func IsAllowedMimeType(mime string) bool {
	_, ok := allowedMimeTypes[strings.ToLower(strings.TrimSpace(mime))]
	return ok
}
