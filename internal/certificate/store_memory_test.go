package certificate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/platform/sentinel"
)

type CertificateStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	base  time.Time
	admin id.AdminID
}

func TestCertificateStoreSuite(t *testing.T) {
	suite.Run(t, new(CertificateStoreSuite))
}

func (s *CertificateStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
	s.base = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	s.admin = id.NewAdminID()
}

func (s *CertificateStoreSuite) add(code, name string, offset time.Duration) *Certificate {
	c, err := NewCertificate(id.NewCertificateID(), CreateRequest{
		CertificateID: code,
		Name:          name,
		Extra:         map[string]any{"grade": "A"},
	}, s.admin, s.base.Add(offset))
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, c))
	return c
}

func (s *CertificateStoreSuite) TestCreateRejectsDuplicateCode() {
	s.add("C-1", "Jane", 0)
	c, err := NewCertificate(id.NewCertificateID(), CreateRequest{CertificateID: "C-1", Name: "John"}, s.admin, s.base)
	s.Require().NoError(err)
	s.Require().ErrorIs(s.store.Create(s.ctx, c), sentinel.ErrConflict)
}

func (s *CertificateStoreSuite) TestSoftDeletedHiddenByDefault() {
	c := s.add("C-1", "Jane", 0)
	_, err := s.store.Execute(s.ctx, Filter{ID: c.ID}, nil, func(c *Certificate) {
		c.SoftDelete(s.admin, s.base.Add(time.Hour))
	})
	s.Require().NoError(err)

	_, err = s.store.FindOne(s.ctx, Filter{CertificateID: "C-1"})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	got, err := s.store.FindOne(s.ctx, Filter{ID: c.ID, IncludeDeleted: true})
	s.Require().NoError(err)
	s.True(got.IsDeleted())

	s.Run("code stays reserved", func() {
		dup, err := NewCertificate(id.NewCertificateID(), CreateRequest{CertificateID: "C-1", Name: "John"}, s.admin, s.base)
		s.Require().NoError(err)
		s.Require().ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrConflict)
	})
}

func (s *CertificateStoreSuite) TestFindManyPagingAndSearch() {
	s.add("ACME-1", "Jane", 0)
	s.add("ACME-2", "John", time.Hour)
	s.add("GLOBEX-1", "Mary", 2*time.Hour)

	certs, total, err := s.store.FindMany(s.ctx, Filter{}, id.NewPage(1, 2))
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Require().Len(certs, 2)
	s.Equal("GLOBEX-1", certs[0].CertificateID)

	certs, total, err = s.store.FindMany(s.ctx, Filter{Search: "acme"}, id.NewPage(1, 10))
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Equal("ACME-2", certs[0].CertificateID)

	certs, _, err = s.store.FindMany(s.ctx, Filter{}, id.NewPage(9, 10))
	s.Require().NoError(err)
	s.Empty(certs)
}

func (s *CertificateStoreSuite) TestExecuteValidateAborts() {
	c := s.add("C-1", "Jane", 0)
	_, err := s.store.Execute(s.ctx, Filter{ID: c.ID},
		func(*Certificate) error { return dErrors.New(dErrors.CodeBadRequest, "no") },
		func(c *Certificate) { c.SoftDelete(s.admin, s.base) },
	)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	got, err := s.store.FindOne(s.ctx, Filter{ID: c.ID})
	s.Require().NoError(err)
	s.False(got.IsDeleted())
}

func (s *CertificateStoreSuite) TestReturnedCopiesAreDetached() {
	c := s.add("C-1", "Jane", 0)
	got, err := s.store.FindOne(s.ctx, Filter{ID: c.ID})
	s.Require().NoError(err)
	got.Extra["grade"] = "F"
	again, err := s.store.FindOne(s.ctx, Filter{ID: c.ID})
	s.Require().NoError(err)
	s.Equal("A", again.Extra["grade"])
}
