package model

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxTopUpAmount: 50 triệu VND một lần nạp
var MaxTopUpAmount = decimal.NewFromInt(50_000_000)

type WalletResponse struct {
	UserID       uuid.UUID       `json:"userId"`
	Balance      decimal.Decimal `json:"balance"`
	Transactions []Transaction   `json:"transactions"`
}

type TopUpRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
}

func (r TopUpRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Amount, validation.By(func(interface{}) error {
			if !r.Amount.IsPositive() {
				return ErrInvalidAmount
			}
			if !r.Amount.Equal(r.Amount.Round(0)) {
				return errors.New("amount must be a whole number of VND")
			}
			if r.Amount.GreaterThan(MaxTopUpAmount) {
				return errors.New("amount exceeds top-up limit")
			}
			return nil
		})),
		validation.Field(&r.Reference, validation.Length(0, 100)),
	)
}

type PayInvoiceRequest struct {
	InvoiceID string `json:"invoiceId" binding:"required"`
}

func (r PayInvoiceRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.InvoiceID, validation.Required, is.UUID),
	)
}

type PayInvoiceResponse struct {
	InvoiceID   uuid.UUID       `json:"invoiceId"`
	TxnRef      string          `json:"txnRef"`
	Balance     decimal.Decimal `json:"balance"`
	AlreadyPaid bool            `json:"alreadyPaid"`
}
