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

const (
	constraintRecordTxnRef  = "payment_records_txn_ref_key"
	constraintRecordInvoice = "payment_records_invoice_id_key"
)

type recordRepository struct {
	db database.DBTX
}

func NewRecordRepository(db database.DBTX) RecordRepository {
	return &recordRepository{db: db}
}

func (r *recordRepository) InsertTx(ctx context.Context, tx pgx.Tx, record *model.PaymentRecord) error {
	query := `
		INSERT INTO payment_records (
			id, txn_ref, invoice_id, method, amount,
			gateway_transaction_no, bank_code, pay_date
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		RETURNING created_at
	`

	err := tx.QueryRow(ctx, query,
		record.ID,
		record.TxnRef,
		record.InvoiceID,
		record.Method,
		record.Amount,
		record.GatewayTransactionNo,
		record.BankCode,
		record.PayDate,
	).Scan(&record.CreatedAt)
	if err != nil {
		// txn_ref trùng là callback lặp lại; invoice trùng là invoice đã được trả bằng đường khác
		if database.IsUniqueViolation(err, constraintRecordTxnRef) {
			return model.ErrDuplicateRecord
		}
		if database.IsUniqueViolation(err, constraintRecordInvoice) {
			return model.ErrInvoiceSettled
		}
		return fmt.Errorf("failed to insert payment record: %w", err)
	}

	return nil
}

func (r *recordRepository) GetByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*model.PaymentRecord, error) {
	query := `
		SELECT id, txn_ref, invoice_id, method, amount, gateway_transaction_no, bank_code, pay_date, created_at
		FROM payment_records
		WHERE invoice_id = $1
	`

	rec := &model.PaymentRecord{}
	err := r.db.QueryRow(ctx, query, invoiceID).Scan(
		&rec.ID,
		&rec.TxnRef,
		&rec.InvoiceID,
		&rec.Method,
		&rec.Amount,
		&rec.GatewayTransactionNo,
		&rec.BankCode,
		&rec.PayDate,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get payment record: %w", err)
	}
	return rec, nil
}

func (r *recordRepository) ListBetween(ctx context.Context, from, to time.Time) ([]model.PaymentRecordRow, error) {
	query := `
		SELECT pr.txn_ref, i.code, pr.method, pr.amount,
			COALESCE(pr.gateway_transaction_no, ''), COALESCE(pr.bank_code, ''), COALESCE(pr.pay_date, ''),
			pr.created_at
		FROM payment_records pr
		JOIN invoices i ON i.id = pr.invoice_id
		WHERE pr.created_at >= $1 AND pr.created_at < $2
		ORDER BY pr.created_at ASC
	`

	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment records: %w", err)
	}
	defer rows.Close()

	var out []model.PaymentRecordRow
	for rows.Next() {
		var row model.PaymentRecordRow
		if err := rows.Scan(
			&row.TxnRef,
			&row.InvoiceCode,
			&row.Method,
			&row.Amount,
			&row.GatewayTransactionNo,
			&row.BankCode,
			&row.PayDate,
			&row.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment record: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return out, nil
}
