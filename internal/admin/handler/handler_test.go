package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"docverify/internal/admin/handler/mocks"
	"docverify/internal/admin/models"
	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
	audit "docverify/pkg/platform/audit"
	"docverify/pkg/testutil"
)

type AdminHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  *chi.Mux
	actor   id.Actor
}

func TestAdminHandlerSuite(t *testing.T) {
	suite.Run(t, new(AdminHandlerSuite))
}

func (s *AdminHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.actor = testutil.Superadmin()

	h := New(s.service, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	s.router = chi.NewRouter()
	h.RegisterPublic(s.router)
	h.RegisterAuthenticated(s.router)
	h.RegisterSuperadmin(s.router)
}

func (s *AdminHandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, testutil.WithAuth(req, s.actor, "jti-1", time.Now().Add(time.Minute)))
}

func (s *AdminHandlerSuite) TestLogin() {
	s.Run("success", func() {
		admin := &models.Admin{ID: s.actor.ID, Email: "root@example.com", Role: id.RoleSuperadmin, PasswordHash: "secret-hash"}
		s.service.EXPECT().Login(gomock.Any(), "root@example.com", "Secret123").
			Return(&models.LoginResult{Token: "tok", JTI: "jti", ExpiresAt: time.Now().Add(time.Minute), Admin: admin}, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/auth/login", map[string]string{
			"email": " Root@Example.com ", "password": "Secret123",
		})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		body := rr.Body.String()
		s.Contains(body, `"token":"tok"`)
		s.NotContains(body, "secret-hash")
	})

	s.Run("missing password is a validation error", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/auth/login", map[string]string{"email": "root@example.com"})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("bad credentials", func() {
		s.service.EXPECT().Login(gomock.Any(), "root@example.com", "nope").
			Return(nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials"))
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/auth/login", map[string]string{
			"email": "root@example.com", "password": "nope",
		})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})
}

func (s *AdminHandlerSuite) TestLogoutPassesTokenFromContext() {
	s.service.EXPECT().Logout(gomock.Any(), s.actor, "jti-1", gomock.Any()).Return(nil)
	rr := s.do(testutil.NewRequest(s.T(), http.MethodPost, "/api/auth/logout"))
	testutil.AssertStatusOK(s.T(), rr)
}

func (s *AdminHandlerSuite) TestCreateAdmin() {
	s.Run("created", func() {
		s.service.EXPECT().CreateAdmin(gomock.Any(), s.actor, gomock.Any()).
			DoAndReturn(func(_ any, _ id.Actor, req *models.CreateAdminRequest) (*models.Admin, error) {
				s.Equal("new@example.com", req.Email)
				return &models.Admin{ID: id.NewAdminID(), Email: req.Email, Role: id.RoleAdmin}, nil
			})
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/admins", map[string]string{
			"name": "New", "email": "NEW@example.com", "password": "Secret123", "phone": "+15551234567",
		})
		rr := s.do(req)
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	})

	s.Run("weak password rejected before the service", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/admins", map[string]string{
			"name": "New", "email": "new@example.com", "password": "weak", "phone": "+15551234567",
		})
		rr := s.do(req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("conflict", func() {
		s.service.EXPECT().CreateAdmin(gomock.Any(), s.actor, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "admin with this email already exists"))
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/admins", map[string]string{
			"name": "New", "email": "new@example.com", "password": "Secret123", "phone": "+15551234567",
		})
		rr := s.do(req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})
}

func (s *AdminHandlerSuite) TestDeactivateSelf() {
	s.service.EXPECT().DeactivateAdmin(gomock.Any(), s.actor, s.actor.ID).
		Return(dErrors.New(dErrors.CodeBadRequest, "cannot deactivate your own account"))
	rr := s.do(testutil.NewRequest(s.T(), http.MethodDelete, "/api/admins/"+s.actor.ID.String()))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
}

func (s *AdminHandlerSuite) TestGetAdminRejectsMalformedID() {
	rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/api/admins/not-a-uuid"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
}

func (s *AdminHandlerSuite) TestListAdminsPaginates() {
	s.service.EXPECT().ListAdmins(gomock.Any(), s.actor, id.Page{Number: 2, Limit: 5}).
		Return([]*models.Admin{}, id.Pagination{Page: 2, Limit: 5, Total: 6, Pages: 2}, nil)
	rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/api/admins?page=2&limit=5"))
	testutil.AssertStatusOK(s.T(), rr)
	s.Contains(rr.Body.String(), `"pages":2`)
}

func (s *AdminHandlerSuite) TestActivityParsesFilters() {
	s.service.EXPECT().Activity(gomock.Any(), s.actor, audit.Query{
		TargetType: audit.TargetUser,
		Actions:    []audit.Action{audit.ActionUpdate, audit.ActionDelete},
		Limit:      20,
	}).Return([]audit.Entry{{Action: audit.ActionUpdate}}, nil)

	rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/api/audit?targetType=User&action=update,delete,bogus&limit=20"))
	testutil.AssertStatusOK(s.T(), rr)
}
