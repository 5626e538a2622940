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

	"docverify/internal/verification/handler/mocks"
	"docverify/internal/verification/models"
	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/testutil"
)

type VerificationHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  *chi.Mux
	actor   id.Actor
	owner   id.Actor
}

func TestVerificationHandlerSuite(t *testing.T) {
	suite.Run(t, new(VerificationHandlerSuite))
}

func (s *VerificationHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.actor = testutil.Admin()
	s.owner = id.Actor{ID: id.NewAdminID(), Email: "intake@example.com", Role: id.RoleAdmin}

	h := New(s.service, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	s.router = chi.NewRouter()
	h.RegisterAuthenticated(s.router)
	h.RegisterIntake(s.router, s.owner)
}

func (s *VerificationHandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, testutil.WithActor(req, s.actor))
}

func formFields() map[string]string {
	return map[string]string{
		"name":       "Jane Doe",
		"email":      "jane@example.com",
		"idNumber":   "AB-123",
		"jobTitle":   "Engineer",
		"department": "Platform",
		"startDate":  "2024-01-15",
	}
}

func (s *VerificationHandlerSuite) record() *models.Verification {
	return &models.Verification{
		ID:          id.NewVerificationID(),
		Name:        "Jane Doe",
		Email:       "jane@example.com",
		Status:      models.StatusPending,
		IPAddress:   "10.0.0.1",
		SubmittedAt: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC),
	}
}

func (s *VerificationHandlerSuite) TestSubmit() {
	s.Run("success", func() {
		v := s.record()
		s.service.EXPECT().MaxDocumentBytes().Return(models.DefaultMaxDocumentBytes)
		s.service.EXPECT().Submit(gomock.Any(), s.actor, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, _ id.Actor, req models.SubmitRequest, upload models.Upload) (*models.Verification, error) {
				s.Equal("AB-123", req.IDNumber)
				s.Equal("2024-01-15", req.StartDate)
				s.Equal("passport.pdf", upload.Filename)
				s.Equal("application/pdf", upload.MimeType)
				s.Equal([]byte("%PDF-1.7"), upload.Data)
				return v, nil
			})

		req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/api/document/upload", formFields(),
			"document", "passport.pdf", "application/pdf", []byte("%PDF-1.7"))
		rr := s.do(req)
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		s.Contains(rr.Body.String(), `"verificationId":"`+v.ID.String()+`"`)
		s.NotContains(rr.Body.String(), "10.0.0.1")
	})

	s.Run("missing file", func() {
		s.service.EXPECT().MaxDocumentBytes().Return(models.DefaultMaxDocumentBytes)
		req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/api/document/upload", formFields(), "", "", "", nil)
		rr := s.do(req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("missing fields", func() {
		s.service.EXPECT().MaxDocumentBytes().Return(models.DefaultMaxDocumentBytes)
		req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/api/document/upload",
			map[string]string{"name": "Jane"}, "document", "a.pdf", "application/pdf", []byte("%PDF"))
		rr := s.do(req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("service rejects mime type", func() {
		s.service.EXPECT().MaxDocumentBytes().Return(models.DefaultMaxDocumentBytes)
		s.service.EXPECT().Submit(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeUnsupportedMediaType, "File type image/gif is not allowed"))
		req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/api/document/upload", formFields(),
			"document", "a.gif", "image/gif", []byte("GIF89a"))
		rr := s.do(req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnsupportedMediaType, "unsupported_media_type")
	})

	s.Run("storage outage", func() {
		s.service.EXPECT().MaxDocumentBytes().Return(models.DefaultMaxDocumentBytes)
		s.service.EXPECT().Submit(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeStorage, "failed to store document"))
		req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/api/document/upload", formFields(),
			"document", "a.pdf", "application/pdf", []byte("%PDF"))
		rr := s.do(req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusServiceUnavailable, "storage_error")
	})
}

func (s *VerificationHandlerSuite) TestIntakeSubmitsAsOwner() {
	s.service.EXPECT().MaxDocumentBytes().Return(models.DefaultMaxDocumentBytes)
	s.service.EXPECT().Submit(gomock.Any(), s.owner, gomock.Any(), gomock.Any()).Return(s.record(), nil)

	req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/api/upload/document", formFields(),
		"document", "id-card.png", "image/png", []byte{0x89, 'P', 'N', 'G'})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
}

func (s *VerificationHandlerSuite) TestList() {
	s.service.EXPECT().List(gomock.Any(), s.actor, models.ListQuery{
		Page:   id.NewPage(2, 5),
		Status: "approved",
		Search: "jane",
	}).Return([]*models.Verification{s.record()}, id.Pagination{Page: 2, Limit: 5, Total: 6, Pages: 2}, nil)

	rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/api/document/verifications?page=2&limit=5&status=approved&q=jane"))
	testutil.AssertStatusOK(s.T(), rr)
	s.Contains(rr.Body.String(), `"pages":2`)
}

func (s *VerificationHandlerSuite) TestStats() {
	s.service.EXPECT().Stats(gomock.Any(), s.actor).Return(&models.Stats{
		Counts: models.StatusCounts{Total: 1, Pending: 1},
		Recent: []*models.Verification{s.record()},
	}, nil)

	rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/api/document/stats"))
	testutil.AssertStatusOK(s.T(), rr)
	s.Contains(rr.Body.String(), `"stats":{"total":1,"pending":1,"approved":0,"rejected":0}`)
}

func (s *VerificationHandlerSuite) TestGet() {
	s.Run("malformed id", func() {
		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/api/document/not-a-uuid"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})

	s.Run("out of scope reads as not found", func() {
		vid := id.NewVerificationID()
		s.service.EXPECT().Get(gomock.Any(), s.actor, vid).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "verification not found or you do not have permission"))
		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/api/document/"+vid.String()))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}

func (s *VerificationHandlerSuite) TestReview() {
	v := s.record()

	s.Run("success", func() {
		s.service.EXPECT().Review(gomock.Any(), s.actor, v.ID, "approved", "fine").Return(v, nil)
		req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/api/document/verify/"+v.ID.String(),
			map[string]string{"status": "approved", "notes": " fine "})
		rr := s.do(req)
		testutil.AssertStatusOK(s.T(), rr)
		s.Contains(rr.Body.String(), "Verification status updated successfully")
	})

	s.Run("missing status", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/api/document/verify/"+v.ID.String(), map[string]string{})
		rr := s.do(req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})
}

func (s *VerificationHandlerSuite) TestEmploymentStatus() {
	v := s.record()

	s.Run("former with end date", func() {
		end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
		v.EmploymentStatus = models.EmploymentFormer
		s.service.EXPECT().SetEmploymentStatus(gomock.Any(), s.actor, v.ID, "former", &end).Return(v, nil)
		req := testutil.NewJSONRequest(s.T(), http.MethodPatch, "/api/document/"+v.ID.String()+"/employment-status",
			map[string]string{"employmentStatus": "former", "endDate": "2026-03-31"})
		rr := s.do(req)
		testutil.AssertStatusOK(s.T(), rr)
		s.Contains(rr.Body.String(), "Employment status updated to former")
	})

	s.Run("invalid status", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPatch, "/api/document/"+v.ID.String()+"/employment-status",
			map[string]string{"employmentStatus": "retired"})
		rr := s.do(req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("bad end date", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPatch, "/api/document/"+v.ID.String()+"/employment-status",
			map[string]string{"employmentStatus": "former", "endDate": "soon"})
		rr := s.do(req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})
}

func (s *VerificationHandlerSuite) TestDelete() {
	vid := id.NewVerificationID()
	s.service.EXPECT().Delete(gomock.Any(), s.actor, vid).Return(nil)
	rr := s.do(testutil.NewRequest(s.T(), http.MethodDelete, "/api/document/verify/"+vid.String()))
	testutil.AssertStatusOK(s.T(), rr)
	s.Contains(rr.Body.String(), "Verification deleted successfully")
}
