package certificate

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
)

var certificateColumnNames = []string{
	"id", "certificate_id", "name", "email", "company", "position", "from_date", "to_date",
	"certificate_url", "extra", "created_by", "updated_by", "deleted_at", "deleted_by", "created_at", "updated_at",
}

func TestCertificateWhere(t *testing.T) {
	where, args := certificateWhere(Filter{CertificateID: "C-1", Search: "50%"})
	assert.Equal(t, " WHERE certificate_id = $1 AND deleted_at IS NULL AND "+
		"(certificate_id ILIKE $2 OR name ILIKE $2 OR email ILIKE $2 OR company ILIKE $2)", where)
	assert.Equal(t, []any{"C-1", `%50\%%`}, args)

	where, args = certificateWhere(Filter{IncludeDeleted: true})
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestPostgresCreateConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	c, err := NewCertificate(id.NewCertificateID(), CreateRequest{CertificateID: "C-1", Name: "Jane"}, id.NewAdminID(), now)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO certificates")).
		WithArgs(c.ID.String(), "C-1", "Jane", "", "", "", nil, nil, "", []byte(`{}`),
			c.CreatedBy.String(), nil, nil, nil, now, now).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err = NewPostgresStore(db).Create(context.Background(), c)
	require.ErrorIs(t, err, sentinel.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindOneDecodesExtra(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	certID := id.NewCertificateID()
	creator := id.NewAdminID()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	from := now.AddDate(-1, 0, 0)

	mock.ExpectQuery(regexp.QuoteMeta("FROM certificates WHERE certificate_id = $1 AND deleted_at IS NULL")).
		WithArgs("C-1").
		WillReturnRows(sqlmock.NewRows(certificateColumnNames).AddRow(
			certID.String(), "C-1", "Jane", "jane@example.com", "Acme", "Engineer", from, nil,
			"https://files/c.pdf", []byte(`{"grade":"A"}`), creator.String(), nil, nil, nil, now, now,
		))

	got, err := NewPostgresStore(db).FindOne(context.Background(), Filter{CertificateID: "C-1"})
	require.NoError(t, err)
	assert.Equal(t, certID, got.ID)
	assert.Equal(t, "A", got.Extra["grade"])
	require.NotNil(t, got.FromDate)
	assert.Nil(t, got.ToDate)
	assert.False(t, got.IsDeleted())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindOneNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM certificates WHERE id = $1")).
		WillReturnRows(sqlmock.NewRows(certificateColumnNames))

	_, err = NewPostgresStore(db).FindOne(context.Background(), Filter{ID: id.NewCertificateID()})
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgresExecuteSoftDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	certID := id.NewCertificateID()
	admin := id.NewAdminID()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM certificates WHERE id = $1 AND deleted_at IS NULL LIMIT 1 FOR UPDATE")).
		WithArgs(certID.String()).
		WillReturnRows(sqlmock.NewRows(certificateColumnNames).AddRow(
			certID.String(), "C-1", "Jane", "", "", "", nil, nil, "", []byte(`{}`), admin.String(), nil, nil, nil, now, now,
		))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE certificates SET")).
		WithArgs(certID.String(), admin.String(), later, admin.String(), later).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := NewPostgresStore(db).Execute(context.Background(), Filter{ID: certID}, nil, func(c *Certificate) {
		c.SoftDelete(admin, later)
	})
	require.NoError(t, err)
	assert.True(t, got.IsDeleted())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindManyCountsThenPages(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM certificates WHERE deleted_at IS NULL")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2")).
		WithArgs(10, 10).
		WillReturnRows(sqlmock.NewRows(certificateColumnNames))

	certs, total, err := NewPostgresStore(db).FindMany(context.Background(), Filter{}, id.NewPage(2, 10))
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, certs)
	require.NoError(t, mock.ExpectationsWereMet())
}
