package lookup

import (
	"time"

	"docverify/internal/verification/models"
)

const (
	notVerifiedMessage = "ID number not found or verification pending"
	noRecordMessage    = "No verification record found for this ID number"
	recordNotFound     = "Verification not found"
)

var statusMessages = map[models.Status]string{
	models.StatusPending:  "Your verification is under review. Please check back later.",
	models.StatusApproved: "Your ID has been successfully verified.",
	models.StatusRejected: "Your verification was not approved. Please contact support if you have questions.",
}

// VerifiedRecord is what a third party learns about an approved ID number.
type VerifiedRecord struct {
	IDNumber     string              `json:"idNumber"`
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	Phone        string              `json:"phone,omitempty"`
	DocumentType models.DocumentType `json:"documentType"`
	VerifiedAt   *time.Time          `json:"verifiedAt"`
	SubmittedAt  time.Time           `json:"submittedAt"`
	Status       models.Status       `json:"status"`
}

// VerifiedView answers "is this ID number verified". A miss and a pending
// record look the same.
type VerifiedView struct {
	Verified bool            `json:"verified"`
	Message  string          `json:"message,omitempty"`
	Data     *VerifiedRecord `json:"data,omitempty"`
}

// StatusView is the applicant-facing progress of the latest submission.
// Notes appear only on rejection.
type StatusView struct {
	IDNumber    string        `json:"idNumber"`
	Name        string        `json:"name"`
	Status      models.Status `json:"status"`
	SubmittedAt time.Time     `json:"submittedAt"`
	ReviewedAt  *time.Time    `json:"reviewedAt"`
	Message     string        `json:"message"`
	Notes       string        `json:"notes,omitempty"`
}

func toVerifiedRecord(v *models.Verification) *VerifiedRecord {
	return &VerifiedRecord{
		IDNumber:     v.IDNumber,
		Name:         v.Name,
		Email:        v.Email,
		Phone:        v.Phone,
		DocumentType: v.DocumentType,
		VerifiedAt:   v.ReviewedAt,
		SubmittedAt:  v.SubmittedAt,
		Status:       v.Status,
	}
}

func toStatusView(v *models.Verification) *StatusView {
	view := &StatusView{
		IDNumber:    v.IDNumber,
		Name:        v.Name,
		Status:      v.Status,
		SubmittedAt: v.SubmittedAt,
		ReviewedAt:  v.ReviewedAt,
		Message:     statusMessages[v.Status],
	}
	if v.Status == models.StatusRejected {
		view.Notes = v.Notes
	}
	return view
}
