package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	invoiceModel "evcharge-backend/internal/domains/invoice/model"
	"evcharge-backend/internal/domains/payment/gateway"
	"evcharge-backend/internal/domains/payment/gateway/vnpay"
	"evcharge-backend/internal/domains/payment/model"
	repo "evcharge-backend/internal/domains/payment/repository"
	"evcharge-backend/internal/shared"
	"evcharge-backend/pkg/cache"
	"evcharge-backend/pkg/logger"
)

// =====================================================
// PAYMENT SERVICE IMPLEMENTATION
// =====================================================
type paymentService struct {
	attemptRepo  repo.AttemptRepository
	recordRepo   repo.RecordRepository
	callbackRepo repo.CallbackLogRepository
	txManager    repo.TransactionManager

	vnpayGateway gateway.VNPayGateway

	// Cross-domain collaborators
	invoices InvoiceStore
	bookings BookingCompleter

	locks   cache.Cache
	metrics MetricsRecorder
	config  Config
	now     func() time.Time
}

func NewPaymentService(
	attemptRepo repo.AttemptRepository,
	recordRepo repo.RecordRepository,
	callbackRepo repo.CallbackLogRepository,
	txManager repo.TransactionManager,
	vnpayGateway gateway.VNPayGateway,
	invoices InvoiceStore,
	bookings BookingCompleter,
	locks cache.Cache,
	metrics MetricsRecorder,
	config Config,
) PaymentService {
	if config.MaxAttemptsPerWindow <= 0 {
		config.MaxAttemptsPerWindow = model.DefaultMaxAttemptsPerWindow
	}
	if config.AttemptWindow <= 0 {
		config.AttemptWindow = model.DefaultAttemptWindow
	}
	if config.CallbackLockTTL <= 0 {
		config.CallbackLockTTL = model.DefaultCallbackLockTTL
	}
	if config.StaleAfter <= 0 {
		config.StaleAfter = model.DefaultStaleAfter
	}
	if config.PaymentTimeout <= 0 {
		config.PaymentTimeout = 15 * time.Minute
	}

	return &paymentService{
		attemptRepo:  attemptRepo,
		recordRepo:   recordRepo,
		callbackRepo: callbackRepo,
		txManager:    txManager,
		vnpayGateway: vnpayGateway,
		invoices:     invoices,
		bookings:     bookings,
		locks:        locks,
		metrics:      metrics,
		config:       config,
		now:          time.Now,
	}
}

// =====================================================
// CREATE PAYMENT URL
// =====================================================

// CreatePaymentURL initiates a VNPay payment for an invoice
//
// Business Logic Flow:
// 1. Validate request
// 2. Get invoice and verify ownership
// 3. Invoice must be unpaid
// 4. Check attempt limit in window
// 5. Insert attempt (created) with a fresh txn_ref
// 6. Build signed URL
// 7. Attempt -> awaiting_callback
func (s *paymentService) CreatePaymentURL(
	ctx context.Context,
	userID uuid.UUID,
	req model.CreatePaymentURLRequest,
) (*model.CreatePaymentURLResponse, error) {
	// Step 1
	if err := req.Validate(); err != nil {
		return nil, model.NewValidationError(err.Error())
	}
	invoiceID := uuid.MustParse(req.InvoiceID)

	// Step 2-3
	inv, err := s.loadPayableInvoice(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}

	// Step 4
	now := s.now()
	count, err := s.attemptRepo.CountRecentForInvoice(ctx, inv.ID, now.Add(-s.config.AttemptWindow))
	if err != nil {
		return nil, fmt.Errorf("count attempts: %w", err)
	}
	if count >= s.config.MaxAttemptsPerWindow {
		s.metrics.PaymentURLCreated("rate_limited")
		return nil, model.NewTooManyAttemptsError(s.config.MaxAttemptsPerWindow)
	}

	// Step 5
	txnRef, err := generateTxnRef(inv.Code, now)
	if err != nil {
		return nil, err
	}

	orderInfo := strings.TrimSpace(req.OrderInfo)
	if orderInfo == "" {
		orderInfo = "Thanh toan hoa don " + inv.Code
	}

	attempt := &model.PaymentAttempt{
		ID:        uuid.New(),
		TxnRef:    txnRef,
		InvoiceID: inv.ID,
		Amount:    inv.Amount,
		State:     model.AttemptStateCreated,
		ClientIP:  vnpay.NormalizeIP(req.ClientIP),
		OrderInfo: orderInfo,
		CreatedAt: now,
	}
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		if errors.Is(err, model.ErrDuplicateTxnRef) {
			return nil, model.NewPaymentError(model.ErrCodeValidation, "txn_ref already exists", err)
		}
		return nil, err
	}

	// Step 6
	paymentURL, err := s.vnpayGateway.CreatePaymentURL(ctx, vnpay.PaymentRequest{
		TxnRef:    attempt.TxnRef,
		Amount:    attempt.Amount,
		OrderInfo: attempt.OrderInfo,
		ClientIP:  attempt.ClientIP,
		CreatedAt: now,
		BankCode:  req.BankCode,
	})
	if err != nil {
		s.metrics.PaymentURLCreated("error")
		if errors.Is(err, vnpay.ErrInvalidRequest) {
			return nil, model.NewPaymentError(model.ErrCodeValidation, err.Error(), model.ErrValidation)
		}
		return nil, model.NewPaymentError(model.ErrCodeGatewayError, "Failed to create VNPay payment URL", err)
	}

	// Step 7
	if err := s.attemptRepo.MarkAwaiting(ctx, attempt.ID); err != nil {
		return nil, err
	}

	s.metrics.PaymentURLCreated("ok")
	logger.Info("VNPay payment URL created", map[string]interface{}{
		"txn_ref":    attempt.TxnRef,
		"invoice_id": inv.ID.String(),
		"amount":     attempt.Amount.String(),
	})

	return &model.CreatePaymentURLResponse{
		PaymentURL: paymentURL,
		TxnRef:     attempt.TxnRef,
		ExpiresAt:  now.Add(s.config.PaymentTimeout),
	}, nil
}

// =====================================================
// MOCK PAYMENT (dev only)
// =====================================================

func (s *paymentService) PayWithMock(ctx context.Context, userID, invoiceID uuid.UUID) (*model.MockPaymentResponse, error) {
	if !s.config.MockEnabled {
		return nil, model.NewPaymentError(model.ErrCodeMockDisabled, "Mock payments are disabled", model.ErrMockDisabled)
	}

	inv, err := s.loadPayableInvoice(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}

	in := model.SettleInput{
		TxnRef:    model.MockTxnRefPrefix + inv.ID.String(),
		InvoiceID: inv.ID,
		BookingID: inv.BookingID,
		Method:    model.MethodMock,
		Amount:    inv.Amount,
		PaidAt:    s.now(),
	}

	err = s.txManager.WithinTx(ctx, func(tx pgx.Tx) error {
		return s.SettleTx(ctx, tx, in)
	})

	outcome := model.OutcomeSuccess
	switch {
	case err == nil:
	case errors.Is(err, model.ErrDuplicateRecord), errors.Is(err, model.ErrInvoiceSettled):
		outcome = model.OutcomeAlreadyProcessed
	default:
		return nil, err
	}

	return &model.MockPaymentResponse{TxnRef: in.TxnRef, Success: true, Outcome: outcome}, nil
}

// =====================================================
// SETTLEMENT
// =====================================================

// SettleTx applies a confirmed payment inside the caller's transaction:
// 1. Insert payment_records (UNIQUE txn_ref / invoice_id là guard idempotency)
// 2. Invoice -> paid
// 3. Booking -> completed
//
// ErrDuplicateRecord / ErrInvoiceSettled nghĩa là đã xử lý rồi; caller phải rollback.
func (s *paymentService) SettleTx(ctx context.Context, tx pgx.Tx, in model.SettleInput) error {
	record := &model.PaymentRecord{
		ID:                   uuid.New(),
		TxnRef:               in.TxnRef,
		InvoiceID:            in.InvoiceID,
		Method:               in.Method,
		Amount:               in.Amount,
		GatewayTransactionNo: optional(in.GatewayTransactionNo),
		BankCode:             optional(in.BankCode),
		PayDate:              optional(in.PayDate),
	}
	if err := s.recordRepo.InsertTx(ctx, tx, record); err != nil {
		return err
	}

	paid, err := s.invoices.MarkInvoicePaid(ctx, tx, in.InvoiceID, in.PaidAt)
	if err != nil {
		return err
	}
	switch paid {
	case shared.MarkNotFound:
		return model.ErrInvoiceNotFound
	case shared.MarkAlreadyDone:
		// invoice đã bị huỷ trong lúc user thanh toán: tiền vẫn ghi nhận, cần hoàn tiền thủ công
		logger.Warn("Payment settled on a non-unpaid invoice", map[string]interface{}{
			"txn_ref":    in.TxnRef,
			"invoice_id": in.InvoiceID.String(),
		})
	}

	completed, err := s.bookings.MarkBookingCompleted(ctx, tx, in.BookingID)
	if err != nil {
		return err
	}
	if completed == shared.MarkNotFound {
		logger.Warn("Booking not found during settlement", map[string]interface{}{
			"txn_ref":    in.TxnRef,
			"booking_id": in.BookingID.String(),
		})
	}

	return nil
}

// =====================================================
// HELPERS
// =====================================================

func (s *paymentService) loadPayableInvoice(ctx context.Context, userID, invoiceID uuid.UUID) (*invoiceModel.Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, invoiceModel.ErrInvoiceNotFound) {
			return nil, model.NewInvoiceNotFoundError(invoiceID.String())
		}
		return nil, err
	}
	if !inv.BelongsTo(userID) {
		return nil, model.NewForbiddenError()
	}
	if !inv.IsPayable() {
		return nil, model.NewInvoiceNotUnpaidError(inv.Status)
	}
	return inv, nil
}

// generateTxnRef: <invoice code>-<yyyyMMddHHmmss GMT+7>-<6 hex>
func generateTxnRef(invoiceCode string, now time.Time) (string, error) {
	suffix, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate txn_ref: %w", err)
	}
	return invoiceCode + "-" + vnpay.FormatDate(now) + "-" + strings.ToUpper(suffix.String()[:6]), nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
