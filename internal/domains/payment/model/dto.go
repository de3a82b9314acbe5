package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/shopspring/decimal"
)

// =====================================================
// CREATE PAYMENT URL REQUEST/RESPONSE
// =====================================================

type CreatePaymentURLRequest struct {
	InvoiceID string `json:"invoiceId" binding:"required"`
	OrderInfo string `json:"orderInfo,omitempty"`
	BankCode  string `json:"bankCode,omitempty"`
	ClientIP  string `json:"-"`
}

func (r CreatePaymentURLRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.InvoiceID,
			validation.Required.Error("invoiceId is required"),
			is.UUID.Error("invoiceId must be a UUID"),
		),
		validation.Field(&r.OrderInfo, validation.Length(0, 255)),
		validation.Field(&r.BankCode, validation.Length(0, 20), is.Alphanumeric),
	)
}

type CreatePaymentURLResponse struct {
	PaymentURL string    `json:"paymentUrl"`
	TxnRef     string    `json:"txnRef"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// =====================================================
// MOCK PAYMENT
// =====================================================

type MockPaymentRequest struct {
	InvoiceID string `json:"invoiceId" binding:"required"`
}

func (r MockPaymentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.InvoiceID, validation.Required, is.UUID),
	)
}

type MockPaymentResponse struct {
	TxnRef  string  `json:"txnRef"`
	Success bool    `json:"success"`
	Outcome Outcome `json:"outcome"`
}

// =====================================================
// IPN RESPONSE (format VNPay yêu cầu)
// =====================================================

type IPNResponse struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

// =====================================================
// EXPORT
// =====================================================

type ExportPaymentsRequest struct {
	From time.Time
	To   time.Time
}

func (r ExportPaymentsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.From, validation.Required),
		validation.Field(&r.To, validation.Required, validation.Min(r.From).Error("to must be after from")),
	)
}

// PaymentRecordRow là một dòng export (record + invoice code)
type PaymentRecordRow struct {
	TxnRef               string
	InvoiceCode          string
	Method               string
	Amount               decimal.Decimal
	GatewayTransactionNo string
	BankCode             string
	PayDate              string
	CreatedAt            time.Time
}

// ExpireResult là kết quả một lần worker chạy
type ExpireResult struct {
	Scanned    int `json:"scanned"`
	Expired    int `json:"expired"`
	Reconciled int `json:"reconciled"`
	Skipped    int `json:"skipped"`
}
