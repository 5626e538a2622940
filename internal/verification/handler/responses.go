package handler

import (
	"time"

	"docverify/internal/verification/models"
	id "docverify/pkg/domain"
)

type submitSummary struct {
	ID          id.VerificationID `json:"id"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Status      models.Status     `json:"status"`
	SubmittedAt time.Time         `json:"submittedAt"`
}

type submitResponse struct {
	Message        string            `json:"message"`
	VerificationID id.VerificationID `json:"verificationId"`
	Data           submitSummary     `json:"data"`
}

type recordResponse struct {
	Message string               `json:"message,omitempty"`
	Data    *models.Verification `json:"data"`
}

type listResponse struct {
	Data       []*models.Verification `json:"data"`
	Pagination id.Pagination          `json:"pagination"`
}

type statsResponse struct {
	Data *models.Stats `json:"data"`
}

type messageResponse struct {
	Message string `json:"message"`
}
