package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvoiceResponse struct {
	ID        uuid.UUID       `json:"id"`
	Code      string          `json:"code"`
	BookingID uuid.UUID       `json:"bookingId"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	PaidAt    *time.Time      `json:"paidAt,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

func ToInvoiceResponse(inv *Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:        inv.ID,
		Code:      inv.Code,
		BookingID: inv.BookingID,
		Amount:    inv.Amount,
		Status:    inv.Status,
		PaidAt:    inv.PaidAt,
		CreatedAt: inv.CreatedAt,
	}
}

type ListInvoicesResponse struct {
	Invoices []InvoiceResponse `json:"invoices"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

type QRCodeResponse struct {
	InvoiceID uuid.UUID `json:"invoiceId"`
	URL       string    `json:"url"`
}
