package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"evcharge-backend/internal/domains/wallet/model"
)

type WalletRepository interface {
	// Get trả về ErrWalletNotFound nếu user chưa từng nạp tiền
	Get(ctx context.Context, userID uuid.UUID) (*model.Wallet, error)

	// GetForUpdateTx locks the wallet row (SELECT ... FOR UPDATE)
	GetForUpdateTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*model.Wallet, error)

	// CreditTx cộng tiền, tạo ví nếu chưa có. Trả về số dư mới
	CreditTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)

	// DebitTx trừ tiền. ErrInsufficientBalance nếu không đủ
	DebitTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)

	// InsertTransactionTx: UNIQUE(reference) -> ErrDuplicateReference
	InsertTransactionTx(ctx context.Context, tx pgx.Tx, txn *model.Transaction) error

	ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]model.Transaction, error)
}
