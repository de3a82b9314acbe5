package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	invoiceModel "evcharge-backend/internal/domains/invoice/model"
	paymentModel "evcharge-backend/internal/domains/payment/model"
	"evcharge-backend/internal/domains/wallet/model"
)

type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*model.WalletResponse, error)
	TopUp(ctx context.Context, adminID, userID uuid.UUID, req model.TopUpRequest) (*model.Transaction, error)
	PayInvoice(ctx context.Context, userID uuid.UUID, req model.PayInvoiceRequest) (*model.PayInvoiceResponse, error)
}

// InvoiceLocker là phần invoice repository mà wallet cần
type InvoiceLocker interface {
	GetForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*invoiceModel.Invoice, error)
}

// Settler ghi nhận thanh toán trong transaction của wallet (PaymentService.SettleTx)
type Settler interface {
	SettleTx(ctx context.Context, tx pgx.Tx, in paymentModel.SettleInput) error
}
