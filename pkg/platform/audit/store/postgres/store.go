package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "docverify/pkg/domain"
	audit "docverify/pkg/platform/audit"
	txcontext "docverify/pkg/platform/tx"
)

// Store persists audit entries in the audit_logs table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append inserts an entry. A missing ID is generated here.
func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	details := entry.Details
	if details == nil {
		details = audit.Details{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	var adminID *uuid.UUID
	if !entry.AdminID.IsNil() {
		u := uuid.UUID(entry.AdminID)
		adminID = &u
	}

	query := `
		INSERT INTO audit_logs (
			id, admin_id, action, target_type, target_id, details,
			ip_address, user_agent, client, request_id, timestamp
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		entry.ID,
		adminID,
		string(entry.Action),
		string(entry.TargetType),
		entry.TargetID,
		detailsJSON,
		entry.IPAddress,
		entry.UserAgent,
		entry.Client,
		entry.RequestID,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List returns matching entries newest first.
func (s *Store) List(ctx context.Context, q audit.Query) ([]audit.Entry, error) {
	var (
		conds []string
		args  []any
	)
	if !q.AdminID.IsNil() {
		args = append(args, uuid.UUID(q.AdminID))
		conds = append(conds, fmt.Sprintf("admin_id = $%d", len(args)))
	}
	if q.TargetType != "" {
		args = append(args, string(q.TargetType))
		conds = append(conds, fmt.Sprintf("target_type = $%d", len(args)))
	}
	if q.TargetID != "" {
		args = append(args, q.TargetID)
		conds = append(conds, fmt.Sprintf("target_id = $%d", len(args)))
	}
	if len(q.Actions) > 0 {
		actions := make([]string, len(q.Actions))
		for i, a := range q.Actions {
			actions[i] = string(a)
		}
		args = append(args, pq.Array(actions))
		conds = append(conds, fmt.Sprintf("action = ANY($%d)", len(args)))
	}
	limit := q.Limit
	if limit <= 0 {
		limit = audit.DefaultListLimit
	}
	args = append(args, limit)

	query := `
		SELECT id, admin_id, action, target_type, target_id, details,
			   ip_address, user_agent, client, request_id, timestamp
		FROM audit_logs`
	if len(conds) > 0 {
		query += "\n\t\tWHERE " + strings.Join(conds, " AND ")
	}
	query += fmt.Sprintf("\n\t\tORDER BY timestamp DESC\n\t\tLIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]audit.Entry, error) {
	var entries []audit.Entry
	for rows.Next() {
		var (
			entry       audit.Entry
			adminID     *uuid.UUID
			action      string
			targetType  string
			detailsJSON []byte
		)
		err := rows.Scan(
			&entry.ID,
			&adminID,
			&action,
			&targetType,
			&entry.TargetID,
			&detailsJSON,
			&entry.IPAddress,
			&entry.UserAgent,
			&entry.Client,
			&entry.RequestID,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if adminID != nil {
			entry.AdminID = id.AdminID(*adminID)
		}
		entry.Action = audit.Action(action)
		entry.TargetType = audit.TargetType(targetType)
		if len(detailsJSON) > 0 {
			if err := json.Unmarshal(detailsJSON, &entry.Details); err != nil {
				return nil, fmt.Errorf("decode audit details: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
