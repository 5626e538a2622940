package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"docverify/internal/admin/models"
	"docverify/internal/platform/postgres"
	id "docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
	txcontext "docverify/pkg/platform/tx"
)

// PostgresStore persists admins in the admins table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const adminColumns = `id, name, email, password_hash, phone, department, designation, role,
		is_active, failed_login_attempts, lock_until, last_login, created_by, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, admin *models.Admin) error {
	query := `
		INSERT INTO admins (` + adminColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query, adminArgs(admin)...)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, adminID id.AdminID) (*models.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE id = $1`
	return s.findOne(ctx, query, uuid.UUID(adminID))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE LOWER(email) = LOWER($1)`
	return s.findOne(ctx, query, email)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, args ...any) (*models.Admin, error) {
	admin, err := scanAdmin(s.execer(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find admin: %w", err)
	}
	return admin, nil
}

func (s *PostgresStore) FindMany(ctx context.Context, filter models.Filter, page id.Page) ([]*models.Admin, int, error) {
	where, args := whereClause(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM admins` + where
	if err := s.execer(ctx).QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count admins: %w", err)
	}

	args = append(args, page.Limit, page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM admins%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		adminColumns, where, len(args)-1, len(args))
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	admins := []*models.Admin{}
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan admin: %w", err)
		}
		admins = append(admins, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate admins: %w", err)
	}
	return admins, total, nil
}

func (s *PostgresStore) CountByRole(ctx context.Context, role id.Role) (int, error) {
	var n int
	err := s.execer(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM admins WHERE role = $1`, string(role)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count admins by role: %w", err)
	}
	return n, nil
}

// Execute locks the row with SELECT ... FOR UPDATE inside a transaction,
// runs validate and mutate, and writes the result back.
func (s *PostgresStore) Execute(ctx context.Context, adminID id.AdminID, validate func(*models.Admin) error, mutate func(*models.Admin)) (*models.Admin, error) {
	var result *models.Admin
	err := txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		query := `SELECT ` + adminColumns + ` FROM admins WHERE id = $1 FOR UPDATE`
		admin, err := s.findOne(ctx, query, uuid.UUID(adminID))
		if err != nil {
			return err
		}
		if validate != nil {
			if err := validate(admin); err != nil {
				return err
			}
		}
		mutate(admin)
		if err := s.update(ctx, admin); err != nil {
			return err
		}
		result = admin
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *PostgresStore) update(ctx context.Context, a *models.Admin) error {
	query := `
		UPDATE admins SET
			name = $2, email = $3, password_hash = $4, phone = $5, department = $6,
			designation = $7, role = $8, is_active = $9, failed_login_attempts = $10,
			lock_until = $11, last_login = $12, updated_at = $13
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(a.ID), a.Name, a.Email, a.PasswordHash, a.Phone, a.Department,
		a.Designation, string(a.Role), a.IsActive, a.FailedLoginAttempts,
		a.LockUntil, a.LastLogin, a.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update admin: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func whereClause(f models.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if !f.ID.IsNil() {
		args = append(args, uuid.UUID(f.ID))
		conds = append(conds, fmt.Sprintf("id = $%d", len(args)))
	}
	if f.ActiveOnly {
		conds = append(conds, "is_active = TRUE")
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func adminArgs(a *models.Admin) []any {
	var createdBy *uuid.UUID
	if a.CreatedBy != nil {
		u := uuid.UUID(*a.CreatedBy)
		createdBy = &u
	}
	return []any{
		uuid.UUID(a.ID), a.Name, a.Email, a.PasswordHash, a.Phone, a.Department, a.Designation,
		string(a.Role), a.IsActive, a.FailedLoginAttempts, a.LockUntil, a.LastLogin,
		createdBy, a.CreatedAt, a.UpdatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAdmin(row rowScanner) (*models.Admin, error) {
	var (
		a         models.Admin
		adminID   uuid.UUID
		role      string
		lockUntil sql.NullTime
		lastLogin sql.NullTime
		createdBy uuid.NullUUID
	)
	err := row.Scan(&adminID, &a.Name, &a.Email, &a.PasswordHash, &a.Phone, &a.Department,
		&a.Designation, &role, &a.IsActive, &a.FailedLoginAttempts, &lockUntil, &lastLogin,
		&createdBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.ID = id.AdminID(adminID)
	a.Role = id.Role(role)
	if lockUntil.Valid {
		t := lockUntil.Time
		a.LockUntil = &t
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		a.LastLogin = &t
	}
	if createdBy.Valid {
		cb := id.AdminID(createdBy.UUID)
		a.CreatedBy = &cb
	}
	return &a, nil
}
