package lookup_test

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks LookupService

import (
	"bytes"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"docverify/internal/lookup"
	"docverify/internal/lookup/mocks"
	"docverify/internal/verification/models"
	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/testutil"
)

func newRouter(t *testing.T) (*chi.Mux, *mocks.MockLookupService) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockLookupService(ctrl)
	r := chi.NewRouter()
	lookup.NewHandler(svc, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))).Register(r)
	return r, svc
}

func TestHandleByIDNumber(t *testing.T) {
	r, svc := newRouter(t)
	svc.EXPECT().ByIDNumber(gomock.Any(), "AB-1").
		Return(&lookup.VerifiedView{Verified: false, Message: "ID number not found or verification pending"}, nil)

	rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/api/verify/id/AB-1"))
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "verified", false)
}

func TestHandleStatus(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		r, svc := newRouter(t)
		svc.EXPECT().StatusByIDNumber(gomock.Any(), "AB-1").
			Return(&lookup.StatusView{IDNumber: "AB-1", Status: models.StatusRejected, Notes: "expired"}, nil)

		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/api/verify/status/AB-1"))
		testutil.AssertStatusOK(t, rr)
		assert.Contains(t, rr.Body.String(), `"notes":"expired"`)
	})

	t.Run("missing", func(t *testing.T) {
		r, svc := newRouter(t)
		svc.EXPECT().StatusByIDNumber(gomock.Any(), "ZZ").
			Return(nil, dErrors.New(dErrors.CodeNotFound, "No verification record found for this ID number"))

		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/api/verify/status/ZZ"))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})
}

func TestHandleByRecordID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		r, svc := newRouter(t)
		vid := id.NewVerificationID()
		svc.EXPECT().ByRecordID(gomock.Any(), vid).Return(&models.Verification{ID: vid, Name: "Jane"}, nil)

		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/api/verify/"+vid.String()))
		testutil.AssertStatusOK(t, rr)
		assert.Contains(t, rr.Body.String(), vid.String())
	})

	t.Run("malformed id", func(t *testing.T) {
		r, _ := newRouter(t)
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/api/verify/abc"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})
}
