package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/pwsafe/internal/domain/model"
	"github.com/ericfisherdev/pwsafe/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CheckoutStore = (*CheckoutRepo)(nil)

// CheckoutRepo is the SQLite implementation of the CheckoutStore port interface.
type CheckoutRepo struct {
	db *DB
}

// NewCheckoutRepo creates a new CheckoutRepo.
func NewCheckoutRepo(db *DB) *CheckoutRepo {
	return &CheckoutRepo{db: db}
}

// Record inserts or replaces the ledger entry for rec.RequestID. A replaced
// entry is reopened.
func (r *CheckoutRepo) Record(ctx context.Context, rec model.CheckoutRecord) error {
	const query = `
		INSERT INTO checkouts (request_id, account_id, system_id, account_name, system_name, checked_out_at, expires_at, checked_in_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULL)
		ON CONFLICT (request_id) DO UPDATE SET
			account_id     = excluded.account_id,
			system_id      = excluded.system_id,
			account_name   = excluded.account_name,
			system_name    = excluded.system_name,
			checked_out_at = excluded.checked_out_at,
			expires_at     = excluded.expires_at,
			checked_in_at  = NULL`

	_, err := r.db.Writer.ExecContext(ctx, query,
		rec.RequestID,
		rec.AccountID,
		rec.SystemID,
		rec.AccountName,
		rec.SystemName,
		formatTime(rec.CheckedOutAt),
		nullableTime(rec.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("record checkout %s: %w", rec.RequestID, err)
	}
	return nil
}

// MarkCheckedIn stamps the check-in time of an open entry.
func (r *CheckoutRepo) MarkCheckedIn(ctx context.Context, requestID string, at time.Time) error {
	const query = `UPDATE checkouts SET checked_in_at = ? WHERE request_id = ? AND checked_in_at IS NULL`
	if _, err := r.db.Writer.ExecContext(ctx, query, formatTime(at), requestID); err != nil {
		return fmt.Errorf("mark checkout %s checked in: %w", requestID, err)
	}
	return nil
}

// GetByRequestID returns (nil, nil) when no entry exists.
func (r *CheckoutRepo) GetByRequestID(ctx context.Context, requestID string) (*model.CheckoutRecord, error) {
	const query = `
		SELECT id, request_id, account_id, system_id, account_name, system_name, checked_out_at, expires_at, checked_in_at
		FROM checkouts WHERE request_id = ?`

	rec, err := scanCheckout(r.db.Reader.QueryRowContext(ctx, query, requestID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get checkout %s: %w", requestID, err)
	}
	return rec, nil
}

// ListOpen returns entries not yet checked in, newest first.
func (r *CheckoutRepo) ListOpen(ctx context.Context) ([]model.CheckoutRecord, error) {
	const query = `
		SELECT id, request_id, account_id, system_id, account_name, system_name, checked_out_at, expires_at, checked_in_at
		FROM checkouts WHERE checked_in_at IS NULL
		ORDER BY checked_out_at DESC, id DESC`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list open checkouts: %w", err)
	}
	defer rows.Close()

	var records []model.CheckoutRecord
	for rows.Next() {
		rec, err := scanCheckout(rows)
		if err != nil {
			return nil, fmt.Errorf("scan checkout: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkouts: %w", err)
	}

	return records, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCheckout(s rowScanner) (*model.CheckoutRecord, error) {
	var rec model.CheckoutRecord
	var checkedOutAt string
	var expiresAt, checkedInAt sql.NullString

	if err := s.Scan(
		&rec.ID,
		&rec.RequestID,
		&rec.AccountID,
		&rec.SystemID,
		&rec.AccountName,
		&rec.SystemName,
		&checkedOutAt,
		&expiresAt,
		&checkedInAt,
	); err != nil {
		return nil, err
	}

	var err error
	rec.CheckedOutAt, err = parseTime(checkedOutAt)
	if err != nil {
		return nil, fmt.Errorf("parse checked_out_at: %w", err)
	}
	if expiresAt.Valid {
		rec.ExpiresAt, err = parseTime(expiresAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse expires_at: %w", err)
		}
	}
	if checkedInAt.Valid {
		t, err := parseTime(checkedInAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse checked_in_at: %w", err)
		}
		rec.CheckedInAt = &t
	}

	return &rec, nil
}
