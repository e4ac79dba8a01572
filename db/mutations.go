// ABOUTME: Journal of optimistic list mutations and how they resolved
// ABOUTME: Records pending, confirmed and rolled back states per temporary id
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Mutation states.
const (
	MutationPending    = "pending"
	MutationConfirmed  = "confirmed"
	MutationRolledBack = "rolled_back"
)

// MutationRecord is one journaled optimistic mutation.
type MutationRecord struct {
	TempID       string
	Kind         string
	ListType     string
	InvestorID   string
	CompanyID    string
	State        string
	ServerID     string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MutationLog stores MutationRecords.
type MutationLog struct {
	db *sql.DB
}

func NewMutationLog(db *sql.DB) *MutationLog {
	return &MutationLog{db: db}
}

// Record inserts or updates the record keyed by TempID.
func (l *MutationLog) Record(ctx context.Context, rec MutationRecord) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO mutation_log (temp_id, kind, list_type, investor_id, company_id, state, server_id, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(temp_id) DO UPDATE SET
			state = excluded.state,
			server_id = excluded.server_id,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`, rec.TempID, rec.Kind, rec.ListType, rec.InvestorID, nullString(rec.CompanyID), rec.State,
		nullString(rec.ServerID), nullString(rec.ErrorMessage))
	if err != nil {
		return fmt.Errorf("failed to record mutation %s: %w", rec.TempID, err)
	}
	return nil
}

// Recent returns the newest records first. An empty state matches all.
func (l *MutationLog) Recent(ctx context.Context, state string, limit int) ([]MutationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT temp_id, kind, list_type, investor_id, company_id, state, server_id, error_message, created_at, updated_at
		FROM mutation_log
		WHERE ? = '' OR state = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, state, state, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query mutations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []MutationRecord
	for rows.Next() {
		var rec MutationRecord
		var companyID, serverID, errMsg sql.NullString
		if err := rows.Scan(&rec.TempID, &rec.Kind, &rec.ListType, &rec.InvestorID, &companyID,
			&rec.State, &serverID, &errMsg, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan mutation: %w", err)
		}
		rec.CompanyID = companyID.String
		rec.ServerID = serverID.String
		rec.ErrorMessage = errMsg.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
