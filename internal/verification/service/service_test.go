package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,DocumentStorage,AuditPublisher

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"docverify/internal/storage"
	"docverify/internal/verification/models"
	"docverify/internal/verification/service/mocks"
	"docverify/internal/verification/store"
	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
	audit "docverify/pkg/platform/audit"
	"docverify/pkg/platform/audit/publisher"
	auditmemory "docverify/pkg/platform/audit/store/memory"
	"docverify/pkg/requestcontext"
)

type VerificationServiceSuite struct {
	suite.Suite
	store    *store.InMemory
	files    *storage.InMemory
	auditLog *auditmemory.InMemoryStore
	service  *Service
	now      time.Time
	ctx      context.Context
	alice    id.Actor
	bob      id.Actor
	root     id.Actor
}

func TestVerificationServiceSuite(t *testing.T) {
	suite.Run(t, new(VerificationServiceSuite))
}

func (s *VerificationServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.files = storage.NewInMemory()
	s.auditLog = auditmemory.NewInMemoryStore()
	s.service = New(s.store, s.files, WithAuditPublisher(publisher.NewPublisher(s.auditLog)))
	s.now = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithClientMetadata(requestcontext.WithTime(context.Background(), s.now), "10.1.2.3", "curl/8.0")
	s.alice = id.Actor{ID: id.NewAdminID(), Email: "alice@example.com", Role: id.RoleAdmin}
	s.bob = id.Actor{ID: id.NewAdminID(), Email: "bob@example.com", Role: id.RoleAdmin}
	s.root = id.Actor{ID: id.NewAdminID(), Email: "root@example.com", Role: id.RoleSuperadmin}
}

func submitRequest(idNumber string) models.SubmitRequest {
	return models.SubmitRequest{
		Name:       "Jane Doe",
		Email:      "Jane@Example.com",
		IDNumber:   idNumber,
		JobTitle:   "Engineer",
		Department: "Platform",
		StartDate:  "2024-01-15",
	}
}

func pdf() models.Upload {
	return models.Upload{Filename: "passport-scan.pdf", MimeType: "application/pdf", Data: []byte("%PDF-1.7")}
}

func (s *VerificationServiceSuite) submit(actor id.Actor, idNumber string) *models.Verification {
	v, err := s.service.Submit(s.ctx, actor, submitRequest(idNumber), pdf())
	s.Require().NoError(err)
	return v
}

func (s *VerificationServiceSuite) lastEntry() audit.Entry {
	all := s.auditLog.All()
	s.Require().NotEmpty(all)
	return all[len(all)-1]
}

func (s *VerificationServiceSuite) TestSubmit() {
	v := s.submit(s.alice, "AB-123")

	s.Equal(models.StatusPending, v.Status)
	s.Equal(models.EmploymentActive, v.EmploymentStatus)
	s.Equal(s.alice.ID, v.CreatedBy)
	s.Equal("jane@example.com", v.Email)
	s.Equal(models.DocumentPassport, v.DocumentType)
	s.Equal(int64(8), v.DocumentSize)
	s.Equal("10.1.2.3", v.IPAddress)
	s.Equal("curl/8.0", v.UserAgent)
	s.Equal(s.now, v.SubmittedAt)

	data, mimeType, ok := s.files.Get(v.DocumentURL)
	s.Require().True(ok)
	s.Equal("application/pdf", mimeType)
	s.Equal([]byte("%PDF-1.7"), data)

	entry := s.lastEntry()
	s.Equal(audit.ActionUpload, entry.Action)
	s.Equal(audit.TargetUser, entry.TargetType)
	s.Equal(v.ID.String(), entry.TargetID)
	s.Equal(s.alice.ID, entry.AdminID)
}

func (s *VerificationServiceSuite) TestSubmitRejections() {
	cases := []struct {
		name   string
		req    models.SubmitRequest
		upload models.Upload
		code   dErrors.Code
	}{
		{"missing fields", models.SubmitRequest{Name: "Jane"}, pdf(), dErrors.CodeValidation},
		{"bad start date", func() models.SubmitRequest { r := submitRequest("AB-1"); r.StartDate = "yesterday"; return r }(), pdf(), dErrors.CodeValidation},
		{"bad id number", submitRequest("AB#1"), pdf(), dErrors.CodeValidation},
		{"no file", submitRequest("AB-1"), models.Upload{Filename: "x.pdf", MimeType: "application/pdf"}, dErrors.CodeBadRequest},
		{"wrong mime", submitRequest("AB-1"), models.Upload{Filename: "x.gif", MimeType: "image/gif", Data: []byte("GIF89a")}, dErrors.CodeUnsupportedMediaType},
		{"too large", submitRequest("AB-1"), models.Upload{Filename: "x.pdf", MimeType: "application/pdf", Data: make([]byte, models.DefaultMaxDocumentBytes+1)}, dErrors.CodePayloadTooLarge},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.service.Submit(s.ctx, s.alice, tc.req, tc.upload)
			s.Require().Error(err)
			s.Equal(tc.code, dErrors.CodeOf(err))
		})
	}
	s.Equal(0, s.files.Len(), "nothing stored for rejected uploads")
	n, _ := s.store.Count(s.ctx, models.Filter{})
	s.Equal(0, n)
}

func (s *VerificationServiceSuite) TestIsolation() {
	mine := s.submit(s.alice, "AB-1")
	theirs := s.submit(s.bob, "CD-2")

	s.Run("admin cannot see another admin's record", func() {
		_, err := s.service.Get(s.ctx, s.alice, theirs.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		_, err = s.service.Review(s.ctx, s.alice, theirs.ID, "approved", "")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		_, err = s.service.SetEmploymentStatus(s.ctx, s.alice, theirs.ID, "former", nil)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		err = s.service.Delete(s.ctx, s.alice, theirs.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("listing and stats only cover own records", func() {
		records, p, err := s.service.List(s.ctx, s.alice, models.ListQuery{})
		s.Require().NoError(err)
		s.Equal(1, p.Total)
		s.Require().Len(records, 1)
		s.Equal(mine.ID, records[0].ID)

		stats, err := s.service.Stats(s.ctx, s.alice)
		s.Require().NoError(err)
		s.Equal(1, stats.Counts.Total)
	})

	s.Run("superadmin sees everything", func() {
		_, p, err := s.service.List(s.ctx, s.root, models.ListQuery{})
		s.Require().NoError(err)
		s.Equal(2, p.Total)

		got, err := s.service.Get(s.ctx, s.root, theirs.ID)
		s.Require().NoError(err)
		s.Equal(s.bob.ID, got.CreatedBy)
	})

	s.Run("rejected delete leaves the record untouched", func() {
		before, err := s.service.Get(s.ctx, s.bob, theirs.ID)
		s.Require().NoError(err)

		err = s.service.Delete(s.ctx, s.alice, theirs.ID)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound))

		after, err := s.service.Get(s.ctx, s.bob, theirs.ID)
		s.Require().NoError(err)
		s.Equal(before, after)
		_, _, ok := s.files.Get(theirs.DocumentURL)
		s.True(ok, "document kept")
	})

	s.Run("superadmin deletes another admin's record", func() {
		s.Require().NoError(s.service.Delete(s.ctx, s.root, theirs.ID))

		_, err := s.service.Get(s.ctx, s.bob, theirs.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		_, _, ok := s.files.Get(theirs.DocumentURL)
		s.False(ok, "document removed")

		n, err := s.store.Count(s.ctx, models.Filter{})
		s.Require().NoError(err)
		s.Equal(1, n)
	})
}

func (s *VerificationServiceSuite) TestReview() {
	v := s.submit(s.alice, "AB-1")

	s.Run("approve stamps reviewer", func() {
		got, err := s.service.Review(s.ctx, s.root, v.ID, "approved", "looks good")
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, got.Status)
		s.Require().NotNil(got.ReviewedBy)
		s.Equal(s.root.ID, *got.ReviewedBy)
		s.Require().NotNil(got.ReviewedAt)
		s.Equal(s.now, *got.ReviewedAt)
		s.Equal(s.alice.ID, got.CreatedBy, "ownership never changes")

		entry := s.lastEntry()
		s.Equal(audit.ActionUpdate, entry.Action)
		s.Equal(models.StatusPending, entry.Details["oldStatus"])
		s.Equal(models.StatusApproved, entry.Details["newStatus"])
		s.Equal("root@example.com", entry.Details["reviewedBy"])
	})

	s.Run("re-review is idempotent", func() {
		got, err := s.service.Review(s.ctx, s.root, v.ID, "approved", "")
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, got.Status)
		s.Equal("looks good", got.Notes)
	})

	s.Run("back to pending clears review fields", func() {
		got, err := s.service.Review(s.ctx, s.alice, v.ID, "pending", "")
		s.Require().NoError(err)
		s.Equal(models.StatusPending, got.Status)
		s.Nil(got.ReviewedBy)
		s.Nil(got.ReviewedAt)
	})

	s.Run("invalid status", func() {
		_, err := s.service.Review(s.ctx, s.alice, v.ID, "maybe", "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("notes too long", func() {
		_, err := s.service.Review(s.ctx, s.alice, v.ID, "rejected", strings.Repeat("n", models.MaxNotesLength+1))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *VerificationServiceSuite) TestEmploymentStatus() {
	v := s.submit(s.alice, "AB-1")

	got, err := s.service.SetEmploymentStatus(s.ctx, s.alice, v.ID, "former", nil)
	s.Require().NoError(err)
	s.Equal(models.EmploymentFormer, got.EmploymentStatus)
	s.Require().NotNil(got.EndDate)
	s.Equal(s.now, *got.EndDate)

	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	got, err = s.service.SetEmploymentStatus(s.ctx, s.alice, v.ID, "former", &end)
	s.Require().NoError(err)
	s.Equal(end, *got.EndDate)

	entry := s.lastEntry()
	change, ok := entry.Details["employmentStatusChange"].(map[string]any)
	s.Require().True(ok)
	s.Equal(models.EmploymentFormer, change["from"])
	s.Equal(models.EmploymentFormer, change["to"])

	got, err = s.service.SetEmploymentStatus(s.ctx, s.alice, v.ID, "active", nil)
	s.Require().NoError(err)
	s.Equal(models.EmploymentActive, got.EmploymentStatus)
	s.Nil(got.EndDate)

	_, err = s.service.SetEmploymentStatus(s.ctx, s.alice, v.ID, "retired", nil)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *VerificationServiceSuite) TestDelete() {
	v := s.submit(s.alice, "AB-1")
	s.Require().Equal(1, s.files.Len())

	s.Require().NoError(s.service.Delete(s.ctx, s.alice, v.ID))
	s.Equal(0, s.files.Len())

	_, err := s.service.Get(s.ctx, s.alice, v.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	entry := s.lastEntry()
	s.Equal(audit.ActionDelete, entry.Action)
	s.Equal("alice@example.com", entry.Details["deletedBy"])
}

func (s *VerificationServiceSuite) TestList() {
	for i := range 12 {
		s.ctx = requestcontext.WithTime(s.ctx, s.now.Add(time.Duration(i)*time.Minute))
		s.submit(s.alice, "AB-"+strings.Repeat("1", i+1))
	}

	records, p, err := s.service.List(s.ctx, s.alice, models.ListQuery{Page: id.Page{Number: 2, Limit: 5}})
	s.Require().NoError(err)
	s.Len(records, 5)
	s.Equal(id.Pagination{Page: 2, Limit: 5, Total: 12, Pages: 3}, p)

	s.Run("unknown status is ignored", func() {
		_, p, err := s.service.List(s.ctx, s.alice, models.ListQuery{Status: "bogus"})
		s.Require().NoError(err)
		s.Equal(12, p.Total)
		s.Equal(10, p.Limit)
	})

	s.Run("search", func() {
		_, p, err := s.service.List(s.ctx, s.alice, models.ListQuery{Search: "ab-111111111111"})
		s.Require().NoError(err)
		s.Equal(1, p.Total)
	})

	s.Run("search too long", func() {
		_, _, err := s.service.List(s.ctx, s.alice, models.ListQuery{Search: strings.Repeat("q", 101)})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *VerificationServiceSuite) TestStats() {
	a := s.submit(s.alice, "AB-1")
	s.submit(s.alice, "AB-2")
	s.submit(s.bob, "CD-1")
	_, err := s.service.Review(s.ctx, s.root, a.ID, "rejected", "blurry")
	s.Require().NoError(err)

	stats, err := s.service.Stats(s.ctx, s.root)
	s.Require().NoError(err)
	s.Equal(models.StatusCounts{Total: 3, Pending: 2, Rejected: 1}, stats.Counts)
	s.Len(stats.Recent, 3)
}

func (s *VerificationServiceSuite) TestUnauthenticated() {
	_, err := s.service.Stats(s.ctx, id.Actor{})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestSubmitStorageFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	files := mocks.NewMockDocumentStorage(ctrl)
	st := mocks.NewMockStore(ctrl)
	files.EXPECT().Put(gomock.Any(), gomock.Any(), "application/pdf", "documents").Return("", errors.New("bucket unreachable"))

	svc := New(st, files)
	_, err := svc.Submit(context.Background(), id.Actor{ID: id.NewAdminID(), Role: id.RoleAdmin}, submitRequest("AB-1"), pdf())
	if !dErrors.HasCode(err, dErrors.CodeStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestSubmitRemovesFileWhenSaveFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	files := mocks.NewMockDocumentStorage(ctrl)
	st := mocks.NewMockStore(ctrl)
	files.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), "documents").Return("memory://documents/a.pdf", nil)
	st.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))
	files.EXPECT().Delete(gomock.Any(), "memory://documents/a.pdf").Return(true, nil)

	svc := New(st, files)
	_, err := svc.Submit(context.Background(), id.Actor{ID: id.NewAdminID(), Role: id.RoleAdmin}, submitRequest("AB-1"), pdf())
	if !dErrors.HasCode(err, dErrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestDeleteIgnoresFileFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	files := mocks.NewMockDocumentStorage(ctrl)
	st := mocks.NewMockStore(ctrl)
	auditMock := mocks.NewMockAuditPublisher(ctrl)

	actor := id.Actor{ID: id.NewAdminID(), Role: id.RoleAdmin}
	vid := id.NewVerificationID()
	st.EXPECT().Delete(gomock.Any(), models.Filter{ID: vid, CreatedBy: actor.ID}).
		Return(&models.Verification{ID: vid, DocumentURL: "memory://documents/a.pdf"}, nil)
	files.EXPECT().Delete(gomock.Any(), "memory://documents/a.pdf").Return(false, errors.New("timeout"))
	auditMock.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	svc := New(st, files, WithAuditPublisher(auditMock))
	if err := svc.Delete(context.Background(), actor, vid); err != nil {
		t.Fatalf("delete should succeed, got %v", err)
	}
}

func TestStatsStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	st.EXPECT().AggregateByStatus(gomock.Any(), gomock.Any()).Return(models.StatusCounts{}, errors.New("boom"))
	st.EXPECT().Recent(gomock.Any(), gomock.Any(), models.RecentLimit).Return(nil, nil).AnyTimes()

	svc := New(st, mocks.NewMockDocumentStorage(ctrl))
	_, err := svc.Stats(context.Background(), id.Actor{ID: id.NewAdminID(), Role: id.RoleSuperadmin})
	if !dErrors.HasCode(err, dErrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
