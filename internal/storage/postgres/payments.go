package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/soultie/soultie-be/internal/models"
	"github.com/soultie/soultie-be/internal/storage"
)

var _ storage.PaymentStore = (*paymentStore)(nil)

// paymentStore provides Postgres-backed persistence for the access-request ledger.
type paymentStore struct {
	db querier
}

const paymentColumns = `id, user_id, biodata_id, transaction_id, amount, status, created_at, updated_at, approved_at, rejected_at`

// Insert creates a new access-request ledger entry. The unique index
// on (user_id, biodata_id) closes the check-then-insert race; a
// concurrent duplicate surfaces as ErrAlreadyExists.
func (s *paymentStore) Insert(ctx context.Context, payment models.Payment) (models.Payment, error) {
	const query = `
	INSERT INTO payments (user_id, biodata_id, transaction_id, amount, status)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING ` + paymentColumns + `;`
	row := s.db.QueryRow(ctx, query, payment.UserID, payment.BiodataID, payment.TransactionID, payment.Amount, payment.Status)
	created, err := scanPayment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Payment{}, storage.ErrAlreadyExists
		}
		return models.Payment{}, fmt.Errorf("insert payment: %w", err)
	}
	return created, nil
}

// FindByID fetches a ledger entry by id.
func (s *paymentStore) FindByID(ctx context.Context, id int64) (models.Payment, error) {
	const query = `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1;`
	return scanPayment(s.db.QueryRow(ctx, query, id))
}

// FindByUserAndBiodata fetches the ledger entry for an
// (account, profile) pair.
func (s *paymentStore) FindByUserAndBiodata(ctx context.Context, userID, biodataID int64) (models.Payment, error) {
	const query = `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = $1 AND biodata_id = $2;`
	return scanPayment(s.db.QueryRow(ctx, query, userID, biodataID))
}

// ListByUser returns every ledger entry owned by the account.
func (s *paymentStore) ListByUser(ctx context.Context, userID int64) ([]models.Payment, error) {
	const query = `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = $1 ORDER BY created_at DESC;`
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list payments by user: %w", err)
	}
	defer rows.Close()
	return collectPayments(rows)
}

// List returns ledger entries for the admin view with a total count.
func (s *paymentStore) List(ctx context.Context, opts storage.ListPaymentsOptions) ([]models.Payment, int64, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	where := ""
	args := []any{}
	if status := strings.TrimSpace(opts.Status); status != "" && status != "all" {
		where = `WHERE status = $1`
		args = append(args, status)
	}

	var total int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM payments `+where+`;`, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM payments %s ORDER BY created_at DESC LIMIT %d OFFSET %d;`,
		paymentColumns, where, limit, offset)
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments, err := collectPayments(rows)
	if err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

// UpdateStatus sets the status, bumps updated_at, and stamps
// approved_at/rejected_at when provided. Existing decision timestamps
// are never cleared.
func (s *paymentStore) UpdateStatus(ctx context.Context, id int64, status string, approvedAt, rejectedAt *time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
	UPDATE payments SET
		status = $2,
		updated_at = NOW(),
		approved_at = COALESCE($3, approved_at),
		rejected_at = COALESCE($4, rejected_at)
	WHERE id = $1;`, id, status, approvedAt, rejectedAt)
	if err != nil {
		return false, fmt.Errorf("update payment status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes a ledger entry.
func (s *paymentStore) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM payments WHERE id = $1;`, id)
	if err != nil {
		return false, fmt.Errorf("delete payment: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// TotalRevenue sums all recorded payment amounts.
func (s *paymentStore) TotalRevenue(ctx context.Context) (float64, error) {
	var revenue float64
	err := s.db.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0)::float8 FROM payments;`).Scan(&revenue)
	return revenue, err
}

func collectPayments(rows pgx.Rows) ([]models.Payment, error) {
	var payments []models.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

func scanPayment(row pgx.Row) (models.Payment, error) {
	var payment models.Payment
	if err := row.Scan(&payment.ID, &payment.UserID, &payment.BiodataID, &payment.TransactionID,
		&payment.Amount, &payment.Status, &payment.CreatedAt, &payment.UpdatedAt,
		&payment.ApprovedAt, &payment.RejectedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Payment{}, storage.ErrNotFound
		}
		return models.Payment{}, err
	}
	return payment, nil
}
