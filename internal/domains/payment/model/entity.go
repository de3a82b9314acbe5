package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// PAYMENT ATTEMPT ENTITY
// =====================================================
// Mỗi lần user bấm "thanh toán VNPay" tạo một attempt với txn_ref riêng
type PaymentAttempt struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	TxnRef       string          `json:"txn_ref" db:"txn_ref"`
	InvoiceID    uuid.UUID       `json:"invoice_id" db:"invoice_id"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	State        string          `json:"state" db:"state"`
	ResponseCode *string         `json:"response_code,omitempty" db:"response_code"`
	ClientIP     string          `json:"client_ip" db:"client_ip"`
	OrderInfo    string          `json:"order_info" db:"order_info"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// IsTerminal: verified_success, verified_failure và expired không đổi state nữa
func (a *PaymentAttempt) IsTerminal() bool {
	switch a.State {
	case AttemptStateVerifiedSuccess, AttemptStateVerifiedFailure, AttemptStateExpired:
		return true
	}
	return false
}

// IsStale checks if the attempt has waited for a callback longer than timeout
func (a *PaymentAttempt) IsStale(now time.Time, timeout time.Duration) bool {
	return a.State == AttemptStateAwaitingCallback && now.Sub(a.CreatedAt) > timeout
}

// =====================================================
// PAYMENT RECORD ENTITY
// =====================================================
// Một invoice chỉ có đúng một record (UNIQUE txn_ref, UNIQUE invoice_id)
type PaymentRecord struct {
	ID                   uuid.UUID       `json:"id" db:"id"`
	TxnRef               string          `json:"txn_ref" db:"txn_ref"`
	InvoiceID            uuid.UUID       `json:"invoice_id" db:"invoice_id"`
	Method               string          `json:"method" db:"method"`
	Amount               decimal.Decimal `json:"amount" db:"amount"`
	GatewayTransactionNo *string         `json:"gateway_transaction_no,omitempty" db:"gateway_transaction_no"`
	BankCode             *string         `json:"bank_code,omitempty" db:"bank_code"`
	PayDate              *string         `json:"pay_date,omitempty" db:"pay_date"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
}

// =====================================================
// CALLBACK LOG ENTITY
// =====================================================
type CallbackLog struct {
	ID             uuid.UUID         `json:"id" db:"id"`
	Source         string            `json:"source" db:"source"`
	TxnRef         *string           `json:"txn_ref,omitempty" db:"txn_ref"`
	Params         map[string]string `json:"params" db:"params"`
	SignatureValid bool              `json:"signature_valid" db:"signature_valid"`
	Outcome        Outcome           `json:"outcome" db:"outcome"`
	ResponseCode   *string           `json:"response_code,omitempty" db:"response_code"`
	ReceivedAt     time.Time         `json:"received_at" db:"received_at"`
}

// =====================================================
// VERIFICATION RESULT
// =====================================================
type VerificationResult struct {
	Success      bool    `json:"success"`
	ResponseCode string  `json:"responseCode"`
	Message      string  `json:"message"`
	TxnRef       string  `json:"txnRef,omitempty"`
	Outcome      Outcome `json:"outcome"`
}

// IPNCode maps outcome sang RspCode trả cho VNPay. Chỉ 99 khiến VNPay gửi lại.
func (r VerificationResult) IPNCode() string {
	switch r.Outcome {
	case OutcomeSuccess, OutcomeAlreadyProcessed, OutcomeDeclined:
		return RspCodeConfirmed
	case OutcomeInvalidSignature:
		return RspCodeInvalidSignature
	case OutcomeNotFound:
		return RspCodeOrderNotFound
	case OutcomeAmountMismatch:
		return RspCodeInvalidAmount
	default:
		return RspCodeUnknownError
	}
}

// IPNMessage là message đi kèm RspCode
func (r VerificationResult) IPNMessage() string {
	switch r.IPNCode() {
	case RspCodeConfirmed:
		return "Confirm Success"
	case RspCodeInvalidSignature:
		return "Invalid Checksum"
	case RspCodeOrderNotFound:
		return "Order not found"
	case RspCodeInvalidAmount:
		return "Invalid amount"
	default:
		return "Unknown error"
	}
}

// SettleInput là dữ liệu cần để ghi nhận một khoản thanh toán đã xác nhận
type SettleInput struct {
	TxnRef               string
	InvoiceID            uuid.UUID
	BookingID            uuid.UUID
	Method               string
	Amount               decimal.Decimal
	GatewayTransactionNo string
	BankCode             string
	PayDate              string
	PaidAt               time.Time
}
