package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// INVOICE STATUS
// =====================================================
const (
	StatusUnpaid    = "unpaid"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
)

// CodePrefix: mã invoice dạng INV-<yyyymmdd>-<6 ký tự>
const CodePrefix = "INV"

type Invoice struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	Code      string          `json:"code" db:"code"`
	BookingID uuid.UUID       `json:"booking_id" db:"booking_id"`
	UserID    uuid.UUID       `json:"user_id" db:"user_id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Status    string          `json:"status" db:"status"`
	PaidAt    *time.Time      `json:"paid_at,omitempty" db:"paid_at"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

func (i *Invoice) IsPayable() bool {
	return i.Status == StatusUnpaid
}

func (i *Invoice) BelongsTo(userID uuid.UUID) bool {
	return i.UserID == userID
}

// QRCode là ảnh QR đã upload lên object storage
type QRCode struct {
	ID        uuid.UUID `json:"id" db:"id"`
	InvoiceID uuid.UUID `json:"invoice_id" db:"invoice_id"`
	ObjectKey string    `json:"object_key" db:"object_key"`
	URL       string    `json:"url" db:"url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
