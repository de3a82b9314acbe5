package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"evcharge-backend/internal/domains/invoice/model"
	"evcharge-backend/internal/shared"
)

type InvoiceRepository interface {
	// CreateTx inserts the invoice inside the booking transaction
	CreateTx(ctx context.Context, tx pgx.Tx, invoice *model.Invoice) error

	GetByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Invoice, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]*model.Invoice, int, error)

	// GetForUpdateTx locks the row (SELECT ... FOR UPDATE)
	GetForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Invoice, error)

	// MarkInvoicePaid: unpaid -> paid. ok | already_done | not_found
	MarkInvoicePaid(ctx context.Context, tx pgx.Tx, id uuid.UUID, paidAt time.Time) (shared.MarkResult, error)

	// CancelTx: unpaid -> cancelled. false nếu invoice không còn unpaid
	CancelTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)

	GetQRCode(ctx context.Context, invoiceID uuid.UUID) (*model.QRCode, error)
	UpsertQRCode(ctx context.Context, qr *model.QRCode) error
}
