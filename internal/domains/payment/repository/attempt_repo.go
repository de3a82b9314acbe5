package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"evcharge-backend/internal/domains/payment/model"
	"evcharge-backend/pkg/database"
)

// =====================================================
// PAYMENT ATTEMPT REPOSITORY IMPLEMENTATION
// =====================================================
type attemptRepository struct {
	db database.DBTX
}

func NewAttemptRepository(db database.DBTX) AttemptRepository {
	return &attemptRepository{db: db}
}

const attemptColumns = `id, txn_ref, invoice_id, amount, state, response_code, client_ip, order_info, created_at, updated_at`

func scanAttempt(row pgx.Row) (*model.PaymentAttempt, error) {
	a := &model.PaymentAttempt{}
	err := row.Scan(
		&a.ID,
		&a.TxnRef,
		&a.InvoiceID,
		&a.Amount,
		&a.State,
		&a.ResponseCode,
		&a.ClientIP,
		&a.OrderInfo,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *attemptRepository) Create(ctx context.Context, attempt *model.PaymentAttempt) error {
	query := `
		INSERT INTO payment_attempts (
			id, txn_ref, invoice_id, amount, state, client_ip, order_info, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		attempt.ID,
		attempt.TxnRef,
		attempt.InvoiceID,
		attempt.Amount,
		attempt.State,
		attempt.ClientIP,
		attempt.OrderInfo,
		attempt.CreatedAt,
	).Scan(&attempt.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return model.ErrDuplicateTxnRef
		}
		return fmt.Errorf("failed to create payment attempt: %w", err)
	}

	return nil
}

func (r *attemptRepository) GetByTxnRef(ctx context.Context, txnRef string) (*model.PaymentAttempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM payment_attempts WHERE txn_ref = $1`

	a, err := scanAttempt(r.db.QueryRow(ctx, query, txnRef))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get payment attempt: %w", err)
	}
	return a, nil
}

func (r *attemptRepository) MarkAwaiting(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE payment_attempts
		SET state = 'awaiting_callback', updated_at = NOW()
		WHERE id = $1 AND state = 'created'
	`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark attempt awaiting: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrAttemptNotFound
	}
	return nil
}

func (r *attemptRepository) MarkFailure(ctx context.Context, txnRef, responseCode string) (bool, error) {
	query := `
		UPDATE payment_attempts
		SET state = 'verified_failure', response_code = $2, updated_at = NOW()
		WHERE txn_ref = $1 AND state = 'awaiting_callback'
	`

	result, err := r.db.Exec(ctx, query, txnRef, responseCode)
	if err != nil {
		return false, fmt.Errorf("failed to mark attempt failed: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// MarkSuccessTx cũng nhận attempt đã expired/failed: tiền đã bị trừ thì phải ghi nhận
func (r *attemptRepository) MarkSuccessTx(ctx context.Context, tx pgx.Tx, txnRef, responseCode string) error {
	query := `
		UPDATE payment_attempts
		SET state = 'verified_success', response_code = $2, updated_at = NOW()
		WHERE txn_ref = $1 AND state <> 'verified_success'
	`

	result, err := tx.Exec(ctx, query, txnRef, responseCode)
	if err != nil {
		return fmt.Errorf("failed to mark attempt succeeded: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrAttemptNotFound
	}
	return nil
}

func (r *attemptRepository) MarkExpired(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE payment_attempts
		SET state = 'expired', updated_at = NOW()
		WHERE id = $1 AND state = 'awaiting_callback'
	`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark attempt expired: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

func (r *attemptRepository) ListStale(ctx context.Context, before time.Time, limit int) ([]*model.PaymentAttempt, error) {
	query := `
		SELECT ` + attemptColumns + `
		FROM payment_attempts
		WHERE state = 'awaiting_callback' AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]*model.PaymentAttempt, 0)
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return attempts, nil
}

func (r *attemptRepository) CountRecentForInvoice(ctx context.Context, invoiceID uuid.UUID, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM payment_attempts WHERE invoice_id = $1 AND created_at >= $2`

	var count int
	if err := r.db.QueryRow(ctx, query, invoiceID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count attempts: %w", err)
	}
	return count, nil
}
