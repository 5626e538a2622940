package handler

import (
	"time"

	"docverify/internal/admin/models"
	id "docverify/pkg/domain"
	audit "docverify/pkg/platform/audit"
)

type loginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	Admin     *models.Admin `json:"admin"`
}

func toLoginResponse(res *models.LoginResult) loginResponse {
	return loginResponse{Token: res.Token, ExpiresAt: res.ExpiresAt, Admin: res.Admin}
}

type adminResponse struct {
	Admin *models.Admin `json:"admin"`
}

type listResponse struct {
	Admins     []*models.Admin `json:"admins"`
	Pagination id.Pagination   `json:"pagination"`
}

type activityResponse struct {
	Entries []audit.Entry `json:"entries"`
}

type messageResponse struct {
	Message string `json:"message"`
}
