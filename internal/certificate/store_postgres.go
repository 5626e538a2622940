package certificate

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"docverify/internal/platform/postgres"
	id "docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
	txcontext "docverify/pkg/platform/tx"
)

// PostgresStore persists certificates in the certificates table. Extra is
// stored as JSONB.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
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

const certificateColumns = `id, certificate_id, name, email, company, position, from_date, to_date,
		certificate_url, extra, created_by, updated_by, deleted_at, deleted_by, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, c *Certificate) error {
	extra, err := marshalExtra(c.Extra)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO certificates (` + certificateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(c.ID), c.CertificateID, c.Name, c.Email, c.Company, c.Position, c.FromDate, c.ToDate,
		c.CertificateURL, extra, uuid.UUID(c.CreatedBy), nullableAdmin(c.UpdatedBy), c.DeletedAt,
		nullableAdmin(c.DeletedBy), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert certificate: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindOne(ctx context.Context, filter Filter) (*Certificate, error) {
	where, args := certificateWhere(filter)
	query := `SELECT ` + certificateColumns + ` FROM certificates` + where + ` ORDER BY created_at DESC LIMIT 1`
	return s.queryOne(ctx, query, args...)
}

func (s *PostgresStore) queryOne(ctx context.Context, query string, args ...any) (*Certificate, error) {
	c, err := scanCertificate(s.execer(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find certificate: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) FindMany(ctx context.Context, filter Filter, page id.Page) ([]*Certificate, int, error) {
	where, args := certificateWhere(filter)

	var total int
	if err := s.execer(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM certificates`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count certificates: %w", err)
	}

	args = append(args, page.Limit, page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM certificates%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		certificateColumns, where, len(args)-1, len(args))
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list certificates: %w", err)
	}
	defer rows.Close()

	certs := []*Certificate{}
	for rows.Next() {
		c, err := scanCertificate(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan certificate: %w", err)
		}
		certs = append(certs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate certificates: %w", err)
	}
	return certs, total, nil
}

// Execute locks the matching row, runs validate and mutate, and writes the
// soft-delete columns back.
func (s *PostgresStore) Execute(ctx context.Context, filter Filter, validate func(*Certificate) error, mutate func(*Certificate)) (*Certificate, error) {
	var result *Certificate
	err := txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		where, args := certificateWhere(filter)
		c, err := s.queryOne(ctx, `SELECT `+certificateColumns+` FROM certificates`+where+` LIMIT 1 FOR UPDATE`, args...)
		if err != nil {
			return err
		}
		if validate != nil {
			if err := validate(c); err != nil {
				return err
			}
		}
		mutate(c)
		res, err := s.execer(ctx).ExecContext(ctx, `
			UPDATE certificates SET
				updated_by = $2, deleted_at = $3, deleted_by = $4, updated_at = $5
			WHERE id = $1
		`, uuid.UUID(c.ID), nullableAdmin(c.UpdatedBy), c.DeletedAt, nullableAdmin(c.DeletedBy), c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update certificate: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sentinel.ErrNotFound
		}
		result = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func certificateWhere(f Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if !f.ID.IsNil() {
		args = append(args, uuid.UUID(f.ID))
		conds = append(conds, fmt.Sprintf("id = $%d", len(args)))
	}
	if f.CertificateID != "" {
		args = append(args, f.CertificateID)
		conds = append(conds, fmt.Sprintf("certificate_id = $%d", len(args)))
	}
	if !f.IncludeDeleted {
		conds = append(conds, "deleted_at IS NULL")
	}
	if f.Search != "" {
		args = append(args, "%"+postgres.EscapeLike(f.Search)+"%")
		conds = append(conds, fmt.Sprintf(
			"(certificate_id ILIKE $%[1]d OR name ILIKE $%[1]d OR email ILIKE $%[1]d OR company ILIKE $%[1]d)", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func marshalExtra(extra map[string]any) ([]byte, error) {
	if extra == nil {
		extra = map[string]any{}
	}
	b, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("marshal certificate extra: %w", err)
	}
	return b, nil
}

func nullableAdmin(a *id.AdminID) *uuid.UUID {
	if a == nil {
		return nil
	}
	u := uuid.UUID(*a)
	return &u
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCertificate(row rowScanner) (*Certificate, error) {
	var (
		c         Certificate
		certID    uuid.UUID
		createdBy uuid.UUID
		updatedBy uuid.NullUUID
		deletedBy uuid.NullUUID
		fromDate  sql.NullTime
		toDate    sql.NullTime
		deletedAt sql.NullTime
		extra     []byte
	)
	err := row.Scan(&certID, &c.CertificateID, &c.Name, &c.Email, &c.Company, &c.Position, &fromDate, &toDate,
		&c.CertificateURL, &extra, &createdBy, &updatedBy, &deletedAt, &deletedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.ID = id.CertificateID(certID)
	c.CreatedBy = id.AdminID(createdBy)
	c.Extra = map[string]any{}
	if len(extra) > 0 {
		if err := json.Unmarshal(extra, &c.Extra); err != nil {
			return nil, fmt.Errorf("decode certificate extra: %w", err)
		}
	}
	if fromDate.Valid {
		t := fromDate.Time
		c.FromDate = &t
	}
	if toDate.Valid {
		t := toDate.Time
		c.ToDate = &t
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		c.DeletedAt = &t
	}
	if updatedBy.Valid {
		a := id.AdminID(updatedBy.UUID)
		c.UpdatedBy = &a
	}
	if deletedBy.Valid {
		a := id.AdminID(deletedBy.UUID)
		c.DeletedBy = &a
	}
	return &c, nil
}
