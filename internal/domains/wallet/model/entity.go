package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet transaction types
const (
	TypeTopUp   = "topup"
	TypePayment = "payment"
)

// TopUpReferencePrefix: reference mặc định khi admin không truyền
const TopUpReferencePrefix = "TOPUP-"

type Wallet struct {
	UserID    uuid.UUID       `json:"user_id" db:"user_id"`
	Balance   decimal.Decimal `json:"balance" db:"balance"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

func (w *Wallet) CanAfford(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}

// Transaction là một dòng sổ cái của ví. Reference UNIQUE nên mỗi nghiệp vụ chỉ ghi một lần.
type Transaction struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	UserID       uuid.UUID       `json:"user_id" db:"user_id"`
	Type         string          `json:"type" db:"type"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after" db:"balance_after"`
	Reference    string          `json:"reference" db:"reference"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}
