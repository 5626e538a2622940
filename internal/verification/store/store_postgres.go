package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"docverify/internal/platform/postgres"
	"docverify/internal/verification/models"
	id "docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
	txcontext "docverify/pkg/platform/tx"
)

// PostgresStore persists records in the verifications table.
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

const verificationColumns = `id, name, email, phone, id_number, document_url, document_type,
		document_size, document_mime_type, job_title, department, start_date, end_date,
		employment_status, status, reviewed_by, reviewed_at, notes, created_by, ip_address,
		user_agent, submitted_at, created_at, updated_at`

const newestFirst = ` ORDER BY created_at DESC, id DESC`

func (s *PostgresStore) Create(ctx context.Context, v *models.Verification) error {
	query := `
		INSERT INTO verifications (` + verificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query, verificationArgs(v)...)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert verification: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindOne(ctx context.Context, filter models.Filter) (*models.Verification, error) {
	where, args := whereClause(filter)
	query := `SELECT ` + verificationColumns + ` FROM verifications` + where + newestFirst + ` LIMIT 1`
	return s.queryOne(ctx, query, args...)
}

func (s *PostgresStore) queryOne(ctx context.Context, query string, args ...any) (*models.Verification, error) {
	v, err := scanVerification(s.execer(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find verification: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) FindMany(ctx context.Context, filter models.Filter, page id.Page) ([]*models.Verification, int, error) {
	total, err := s.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	where, args := whereClause(filter)
	args = append(args, page.Limit, page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM verifications%s%s LIMIT $%d OFFSET $%d`,
		verificationColumns, where, newestFirst, len(args)-1, len(args))
	records, err := s.queryMany(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (s *PostgresStore) Count(ctx context.Context, filter models.Filter) (int, error) {
	where, args := whereClause(filter)
	var total int
	if err := s.execer(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM verifications`+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count verifications: %w", err)
	}
	return total, nil
}

// Execute locks the first matching row with SELECT ... FOR UPDATE, runs
// validate and mutate, and writes the mutable columns back.
func (s *PostgresStore) Execute(ctx context.Context, filter models.Filter, validate func(*models.Verification) error, mutate func(*models.Verification)) (*models.Verification, error) {
	var result *models.Verification
	err := txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		where, args := whereClause(filter)
		query := `SELECT ` + verificationColumns + ` FROM verifications` + where + newestFirst + ` LIMIT 1 FOR UPDATE`
		v, err := s.queryOne(ctx, query, args...)
		if err != nil {
			return err
		}
		if validate != nil {
			if err := validate(v); err != nil {
				return err
			}
		}
		mutate(v)
		if err := s.update(ctx, v); err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// update writes review and employment state. Identity, document and
// ownership columns are never rewritten.
func (s *PostgresStore) update(ctx context.Context, v *models.Verification) error {
	query := `
		UPDATE verifications SET
			status = $2, reviewed_by = $3, reviewed_at = $4, notes = $5,
			employment_status = $6, end_date = $7, updated_at = $8
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(v.ID), string(v.Status), nullableAdmin(v.ReviewedBy), v.ReviewedAt, v.Notes,
		string(v.EmploymentStatus), v.EndDate, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update verification: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Delete removes the first matching record and returns it.
func (s *PostgresStore) Delete(ctx context.Context, filter models.Filter) (*models.Verification, error) {
	where, args := whereClause(filter)
	query := `DELETE FROM verifications WHERE id = (SELECT id FROM verifications` + where + newestFirst +
		` LIMIT 1) RETURNING ` + verificationColumns
	return s.queryOne(ctx, query, args...)
}

func (s *PostgresStore) AggregateByStatus(ctx context.Context, filter models.Filter) (models.StatusCounts, error) {
	where, args := whereClause(filter)
	rows, err := s.execer(ctx).QueryContext(ctx, `SELECT status, COUNT(*) FROM verifications`+where+` GROUP BY status`, args...)
	if err != nil {
		return models.StatusCounts{}, fmt.Errorf("aggregate verifications: %w", err)
	}
	defer rows.Close()

	var counts models.StatusCounts
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return models.StatusCounts{}, fmt.Errorf("scan status count: %w", err)
		}
		counts.Add(models.Status(status), n)
	}
	if err := rows.Err(); err != nil {
		return models.StatusCounts{}, fmt.Errorf("iterate status counts: %w", err)
	}
	return counts, nil
}

func (s *PostgresStore) Recent(ctx context.Context, filter models.Filter, n int) ([]*models.Verification, error) {
	where, args := whereClause(filter)
	args = append(args, n)
	query := fmt.Sprintf(`SELECT %s FROM verifications%s%s LIMIT $%d`, verificationColumns, where, newestFirst, len(args))
	return s.queryMany(ctx, query, args...)
}

func (s *PostgresStore) LatestApprovedByIDNumber(ctx context.Context, idNumber string) (*models.Verification, error) {
	query := `SELECT ` + verificationColumns + ` FROM verifications
		WHERE id_number = $1 AND status = 'approved'
		ORDER BY reviewed_at DESC NULLS LAST LIMIT 1`
	return s.queryOne(ctx, query, idNumber)
}

func (s *PostgresStore) LatestByIDNumber(ctx context.Context, idNumber string) (*models.Verification, error) {
	query := `SELECT ` + verificationColumns + ` FROM verifications
		WHERE id_number = $1
		ORDER BY submitted_at DESC LIMIT 1`
	return s.queryOne(ctx, query, idNumber)
}

func (s *PostgresStore) queryMany(ctx context.Context, query string, args ...any) ([]*models.Verification, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list verifications: %w", err)
	}
	defer rows.Close()

	records := []*models.Verification{}
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan verification: %w", err)
		}
		records = append(records, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verifications: %w", err)
	}
	return records, nil
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
	if !f.CreatedBy.IsNil() {
		args = append(args, uuid.UUID(f.CreatedBy))
		conds = append(conds, fmt.Sprintf("created_by = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.IDNumber != "" {
		args = append(args, f.IDNumber)
		conds = append(conds, fmt.Sprintf("id_number = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+postgres.EscapeLike(f.Search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(name ILIKE $%[1]d OR email ILIKE $%[1]d OR id_number ILIKE $%[1]d OR job_title ILIKE $%[1]d OR department ILIKE $%[1]d)", n))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func nullableAdmin(a *id.AdminID) *uuid.UUID {
	if a == nil {
		return nil
	}
	u := uuid.UUID(*a)
	return &u
}

func verificationArgs(v *models.Verification) []any {
	return []any{
		uuid.UUID(v.ID), v.Name, v.Email, v.Phone, v.IDNumber, v.DocumentURL, string(v.DocumentType),
		v.DocumentSize, v.DocumentMimeType, v.JobTitle, v.Department, v.StartDate, v.EndDate,
		string(v.EmploymentStatus), string(v.Status), nullableAdmin(v.ReviewedBy), v.ReviewedAt, v.Notes,
		uuid.UUID(v.CreatedBy), v.IPAddress, v.UserAgent, v.SubmittedAt, v.CreatedAt, v.UpdatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVerification(row rowScanner) (*models.Verification, error) {
	var (
		v                models.Verification
		recordID         uuid.UUID
		createdBy        uuid.UUID
		reviewedBy       uuid.NullUUID
		reviewedAt       sql.NullTime
		endDate          sql.NullTime
		documentType     string
		employmentStatus string
		status           string
	)
	err := row.Scan(&recordID, &v.Name, &v.Email, &v.Phone, &v.IDNumber, &v.DocumentURL, &documentType,
		&v.DocumentSize, &v.DocumentMimeType, &v.JobTitle, &v.Department, &v.StartDate, &endDate,
		&employmentStatus, &status, &reviewedBy, &reviewedAt, &v.Notes, &createdBy, &v.IPAddress,
		&v.UserAgent, &v.SubmittedAt, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	v.ID = id.VerificationID(recordID)
	v.CreatedBy = id.AdminID(createdBy)
	v.DocumentType = models.DocumentType(documentType)
	v.EmploymentStatus = models.EmploymentStatus(employmentStatus)
	v.Status = models.Status(status)
	if reviewedBy.Valid {
		r := id.AdminID(reviewedBy.UUID)
		v.ReviewedBy = &r
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		v.ReviewedAt = &t
	}
	if endDate.Valid {
		t := endDate.Time
		v.EndDate = &t
	}
	return &v, nil
}
