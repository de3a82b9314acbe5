package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/xuri/excelize/v2"

	invoiceModel "evcharge-backend/internal/domains/invoice/model"
	"evcharge-backend/internal/domains/payment/model"
	"evcharge-backend/internal/shared"
)

// =====================================================
// PAYMENT SERVICE INTERFACE
// =====================================================
type PaymentService interface {
	// ============================================
	// USER ENDPOINTS
	// ============================================

	// CreatePaymentURL creates an attempt and returns the signed VNPay redirect URL
	CreatePaymentURL(ctx context.Context, userID uuid.UUID, req model.CreatePaymentURLRequest) (*model.CreatePaymentURLResponse, error)

	// PayWithMock settles an invoice without a gateway (dev only, config gated)
	PayWithMock(ctx context.Context, userID, invoiceID uuid.UUID) (*model.MockPaymentResponse, error)

	// ============================================
	// CALLBACKS (return, ipn)
	// ============================================

	// VerifyCallback verifies a VNPay payload and applies it at most once
	VerifyCallback(ctx context.Context, source string, params map[string]string) model.VerificationResult

	// SettleTx ghi nhận thanh toán (record, invoice paid, booking completed) trong tx của caller
	SettleTx(ctx context.Context, tx pgx.Tx, in model.SettleInput) error

	// ============================================
	// ADMIN ENDPOINTS
	// ============================================

	ExportPayments(ctx context.Context, req model.ExportPaymentsRequest) (*excelize.File, error)

	// ============================================
	// BACKGROUND JOBS
	// ============================================

	// ExpireStaleAttempts reconciles awaiting_callback attempts older than olderThan via querydr
	ExpireStaleAttempts(ctx context.Context, olderThan time.Duration) (*model.ExpireResult, error)
}

// =====================================================
// COLLABORATORS
// =====================================================

// InvoiceStore là phần invoice repository mà payment cần
type InvoiceStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*invoiceModel.Invoice, error)
	MarkInvoicePaid(ctx context.Context, tx pgx.Tx, id uuid.UUID, paidAt time.Time) (shared.MarkResult, error)
}

// BookingCompleter là phần booking repository mà payment cần
type BookingCompleter interface {
	MarkBookingCompleted(ctx context.Context, tx pgx.Tx, id uuid.UUID) (shared.MarkResult, error)
}

// MetricsRecorder is satisfied by *metrics.Metrics
type MetricsRecorder interface {
	CallbackHandled(source, outcome string)
	PaymentURLCreated(result string)
	QueryDR(result string)
	AttemptsExpired(n int)
}

// Config là các business rule của payment
type Config struct {
	MockEnabled          bool
	MaxAttemptsPerWindow int
	AttemptWindow        time.Duration
	CallbackLockTTL      time.Duration
	StaleAfter           time.Duration
	PaymentTimeout       time.Duration
}
