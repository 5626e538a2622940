package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docverify/internal/admin/models"
	id "docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
)

var adminColumnNames = []string{
	"id", "name", "email", "password_hash", "phone", "department", "designation", "role",
	"is_active", "failed_login_attempts", "lock_until", "last_login", "created_by", "created_at", "updated_at",
}

func TestPostgresCreateMapsUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a, err := models.NewAdmin(id.NewAdminID(), "Jane", "jane@example.com", "hash", "+15551234567", id.RoleAdmin, nil, now)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO admins")).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err = NewPostgres(db).Create(context.Background(), a)
	require.ErrorIs(t, err, sentinel.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adminID := id.NewAdminID()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	lock := now.Add(15 * time.Minute)

	mock.ExpectQuery(regexp.QuoteMeta("FROM admins WHERE LOWER(email) = LOWER($1)")).
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows(adminColumnNames).AddRow(
			adminID.String(), "Jane", "jane@example.com", "hash", "+15551234567", "", "",
			"superadmin", true, 0, lock, nil, nil, now, now,
		))

	got, err := NewPostgres(db).FindByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, adminID, got.ID)
	assert.Equal(t, id.RoleSuperadmin, got.Role)
	require.NotNil(t, got.LockUntil)
	assert.True(t, got.IsLocked(now))
	assert.Nil(t, got.CreatedBy)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM admins WHERE id = $1")).
		WillReturnRows(sqlmock.NewRows(adminColumnNames))

	_, err = NewPostgres(db).FindByID(context.Background(), id.NewAdminID())
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgresExecuteLocksRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adminID := id.NewAdminID()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM admins WHERE id = $1 FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows(adminColumnNames).AddRow(
			adminID.String(), "Jane", "jane@example.com", "hash", "+15551234567", "", "",
			"admin", true, 2, nil, nil, nil, now, now,
		))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE admins SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := NewPostgres(db).Execute(context.Background(), adminID, nil, func(a *models.Admin) {
		a.ApplyFailedLogin(now, 5, 15*time.Minute)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, got.FailedLoginAttempts)
	require.NoError(t, mock.ExpectationsWereMet())
}
