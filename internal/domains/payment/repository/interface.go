package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"evcharge-backend/internal/domains/payment/model"
)

// =====================================================
// PAYMENT ATTEMPT REPOSITORY INTERFACE
// =====================================================
type AttemptRepository interface {
	// Create inserts a new attempt in state created. Duplicate txn_ref -> ErrDuplicateTxnRef
	Create(ctx context.Context, attempt *model.PaymentAttempt) error

	GetByTxnRef(ctx context.Context, txnRef string) (*model.PaymentAttempt, error)

	// MarkAwaiting moves created -> awaiting_callback
	MarkAwaiting(ctx context.Context, id uuid.UUID) error

	// MarkFailure moves awaiting_callback -> verified_failure. false nếu attempt đã ở state khác
	MarkFailure(ctx context.Context, txnRef, responseCode string) (bool, error)

	// MarkSuccessTx moves the attempt to verified_success inside the settlement transaction
	MarkSuccessTx(ctx context.Context, tx pgx.Tx, txnRef, responseCode string) error

	// MarkExpired moves awaiting_callback -> expired. false nếu callback đã tới trước
	MarkExpired(ctx context.Context, id uuid.UUID) (bool, error)

	// ListStale lists awaiting_callback attempts created before cutoff, oldest first
	ListStale(ctx context.Context, before time.Time, limit int) ([]*model.PaymentAttempt, error)

	// CountRecentForInvoice counts attempts for an invoice since a point in time
	CountRecentForInvoice(ctx context.Context, invoiceID uuid.UUID, since time.Time) (int, error)
}

// =====================================================
// PAYMENT RECORD REPOSITORY INTERFACE
// =====================================================
type RecordRepository interface {
	// InsertTx là guard idempotency chính: UNIQUE(txn_ref), UNIQUE(invoice_id) -> ErrDuplicateRecord
	InsertTx(ctx context.Context, tx pgx.Tx, record *model.PaymentRecord) error

	GetByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*model.PaymentRecord, error)

	// ListBetween lists records created in [from, to) for export
	ListBetween(ctx context.Context, from, to time.Time) ([]model.PaymentRecordRow, error)
}

// =====================================================
// CALLBACK LOG REPOSITORY INTERFACE
// =====================================================
type CallbackLogRepository interface {
	Create(ctx context.Context, log *model.CallbackLog) error
}

// =====================================================
// TRANSACTION MANAGER
// =====================================================
type TransactionManager interface {
	// WithinTx runs fn in one transaction: commit khi fn trả nil, rollback ngược lại
	WithinTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}
