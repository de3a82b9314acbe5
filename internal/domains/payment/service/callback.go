package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"evcharge-backend/internal/domains/payment/gateway/vnpay"
	"evcharge-backend/internal/domains/payment/model"
	"evcharge-backend/pkg/logger"
)

const (
	callbackLockPrefix   = "payment:callback:"
	callbackLockWait     = 2 * time.Second
	callbackLockInterval = 100 * time.Millisecond
)

// =====================================================
// VERIFY CALLBACK (Return URL + IPN)
// =====================================================

// VerifyCallback verifies a VNPay payload and applies it at most once
//
// Business Logic Flow:
// 1. Verify vnp_SecureHash (fail -> 97, không đụng DB ngoài log)
// 2. Parse fields, đối chiếu vnp_TmnCode
// 3. Lock theo txn_ref (Return và IPN có thể tới cùng lúc)
// 4. Load attempt theo txn_ref
// 5. Đối chiếu amount
// 6. ResponseCode != 00 -> verified_failure
// 7. Success -> 1 transaction: record + invoice paid + booking completed + attempt verified_success
//
// Edge Cases:
// - IPN gửi lại sau khi đã settle -> already_processed, RspCode 00
// - Invoice đã được thanh toán bằng txn_ref khác -> already_processed (log warning)
// - Redis lỗi -> vẫn xử lý, UNIQUE constraint là guard cuối cùng
func (s *paymentService) VerifyCallback(ctx context.Context, source string, params map[string]string) model.VerificationResult {
	result := s.verifyCallback(ctx, source, params)

	s.metrics.CallbackHandled(source, string(result.Outcome))
	s.logCallback(ctx, source, params, result)

	return result
}

func (s *paymentService) verifyCallback(ctx context.Context, source string, params map[string]string) model.VerificationResult {
	// Step 1: Signature
	if !s.vnpayGateway.VerifyCallback(params) {
		logger.Warn("VNPay callback signature invalid", map[string]interface{}{
			"source":  source,
			"txn_ref": params["vnp_TxnRef"],
		})
		return newResult(model.OutcomeInvalidSignature, params["vnp_TxnRef"], model.RspCodeInvalidSignature, "Invalid signature")
	}

	// Step 2: Parse
	data, err := vnpay.ParseCallback(params)
	if err != nil {
		logger.Warn("VNPay callback malformed", map[string]interface{}{
			"source": source,
			"error":  err.Error(),
		})
		return newResult(model.OutcomeError, params["vnp_TxnRef"], "", "Malformed callback")
	}
	if data.TmnCode != "" && data.TmnCode != s.vnpayGateway.ExpectedTmnCode() {
		logger.Warn("VNPay callback for another merchant", map[string]interface{}{
			"txn_ref":  data.TxnRef,
			"tmn_code": data.TmnCode,
		})
		return newResult(model.OutcomeNotFound, data.TxnRef, data.ResponseCode, "Order not found")
	}

	// Step 3: Lock
	release := s.acquireCallbackLock(ctx, data.TxnRef)
	defer release()

	return s.applyCallback(ctx, data)
}

// applyCallback chạy sau khi chữ ký đã hợp lệ (callback hoặc querydr)
func (s *paymentService) applyCallback(ctx context.Context, data *vnpay.CallbackData) model.VerificationResult {
	// Step 4: Attempt
	attempt, err := s.attemptRepo.GetByTxnRef(ctx, data.TxnRef)
	if err != nil {
		if errors.Is(err, model.ErrAttemptNotFound) {
			return newResult(model.OutcomeNotFound, data.TxnRef, data.ResponseCode, "Order not found")
		}
		logger.Error("Failed to load payment attempt", err)
		return newResult(model.OutcomeError, data.TxnRef, data.ResponseCode, "Unknown error")
	}

	if attempt.State == model.AttemptStateVerifiedSuccess {
		return newResult(model.OutcomeAlreadyProcessed, data.TxnRef, data.ResponseCode, "Payment already confirmed")
	}

	// Step 5: Amount
	if !attempt.Amount.Round(0).Equal(data.Amount) {
		logger.Warn("VNPay callback amount mismatch", map[string]interface{}{
			"txn_ref":  data.TxnRef,
			"expected": attempt.Amount.String(),
			"received": data.Amount.String(),
		})
		return newResult(model.OutcomeAmountMismatch, data.TxnRef, data.ResponseCode, "Invalid amount")
	}

	// Step 6: Declined
	if !data.IsSuccess() {
		code := declineCode(data)
		if _, err := s.attemptRepo.MarkFailure(ctx, data.TxnRef, code); err != nil {
			logger.Error("Failed to mark attempt failed", err)
			return newResult(model.OutcomeError, data.TxnRef, code, "Unknown error")
		}
		return newResult(model.OutcomeDeclined, data.TxnRef, code, vnpay.ResponseMessage(code))
	}

	// Step 7: Settle
	invoice, err := s.invoices.GetByID(ctx, attempt.InvoiceID)
	if err != nil {
		logger.Error("Failed to load invoice for settlement", err)
		return newResult(model.OutcomeError, data.TxnRef, data.ResponseCode, "Unknown error")
	}

	in := model.SettleInput{
		TxnRef:               data.TxnRef,
		InvoiceID:            attempt.InvoiceID,
		BookingID:            invoice.BookingID,
		Method:               model.MethodVNPay,
		Amount:               attempt.Amount,
		GatewayTransactionNo: data.TransactionNo,
		BankCode:             data.BankCode,
		PayDate:              data.PayDate,
		PaidAt:               s.now(),
	}

	err = s.txManager.WithinTx(ctx, func(tx pgx.Tx) error {
		if err := s.SettleTx(ctx, tx, in); err != nil {
			return err
		}
		return s.attemptRepo.MarkSuccessTx(ctx, tx, data.TxnRef, data.ResponseCode)
	})

	switch {
	case err == nil:
		logger.Info("VNPay payment settled", map[string]interface{}{
			"txn_ref":        data.TxnRef,
			"invoice_id":     attempt.InvoiceID.String(),
			"transaction_no": data.TransactionNo,
		})
		return newResult(model.OutcomeSuccess, data.TxnRef, data.ResponseCode, "Payment successful")

	case errors.Is(err, model.ErrDuplicateRecord):
		return newResult(model.OutcomeAlreadyProcessed, data.TxnRef, data.ResponseCode, "Payment already confirmed")

	case errors.Is(err, model.ErrInvoiceSettled):
		// Double payment: invoice đã paid bằng attempt khác, tiền lần này cần hoàn thủ công
		logger.Warn("Invoice already settled by another attempt", map[string]interface{}{
			"txn_ref":    data.TxnRef,
			"invoice_id": attempt.InvoiceID.String(),
		})
		if err := s.txManager.WithinTx(ctx, func(tx pgx.Tx) error {
			return s.attemptRepo.MarkSuccessTx(ctx, tx, data.TxnRef, data.ResponseCode)
		}); err != nil {
			logger.Error("Failed to close duplicate attempt", err)
		}
		return newResult(model.OutcomeAlreadyProcessed, data.TxnRef, data.ResponseCode, "Invoice already paid")

	default:
		logger.Error("Failed to settle VNPay payment", err)
		return newResult(model.OutcomeError, data.TxnRef, data.ResponseCode, "Unknown error")
	}
}

// =====================================================
// CALLBACK LOCK
// =====================================================

// acquireCallbackLock chờ tối đa callbackLockWait. Hết giờ hoặc Redis lỗi thì vẫn đi tiếp.
func (s *paymentService) acquireCallbackLock(ctx context.Context, txnRef string) func() {
	noop := func() {}
	if s.locks == nil {
		return noop
	}

	key := callbackLockPrefix + txnRef
	token := uuid.NewString()
	deadline := time.Now().Add(callbackLockWait)

	for {
		ok, err := s.locks.SetNX(ctx, key, token, s.config.CallbackLockTTL)
		if err != nil {
			logger.Warn("Callback lock unavailable", map[string]interface{}{"txn_ref": txnRef, "error": err.Error()})
			return noop
		}
		if ok {
			return func() {
				// Chỉ xoá lock của chính mình: quá TTL thì key có thể đã thuộc delivery khác
				released, err := s.locks.DeleteIfValue(context.WithoutCancel(ctx), key, token)
				if err != nil {
					logger.Warn("Failed to release callback lock", map[string]interface{}{"txn_ref": txnRef})
					return
				}
				if !released {
					logger.Warn("Callback lock expired before release", map[string]interface{}{"txn_ref": txnRef})
				}
			}
		}
		if time.Now().After(deadline) {
			logger.Warn("Callback lock wait timed out", map[string]interface{}{"txn_ref": txnRef})
			return noop
		}

		select {
		case <-ctx.Done():
			return noop
		case <-time.After(callbackLockInterval):
		}
	}
}

// =====================================================
// CALLBACK AUDIT LOG
// =====================================================

func (s *paymentService) logCallback(ctx context.Context, source string, params map[string]string, result model.VerificationResult) {
	redacted := make(map[string]string, len(params))
	for k, v := range params {
		if k == vnpay.ParamSecureHash {
			v = "***"
		}
		redacted[k] = v
	}

	entry := &model.CallbackLog{
		ID:             uuid.New(),
		Source:         source,
		TxnRef:         optional(params["vnp_TxnRef"]),
		Params:         redacted,
		SignatureValid: result.Outcome != model.OutcomeInvalidSignature,
		Outcome:        result.Outcome,
		ResponseCode:   optional(result.ResponseCode),
		ReceivedAt:     s.now(),
	}

	if err := s.callbackRepo.Create(context.WithoutCancel(ctx), entry); err != nil {
		logger.Error("Failed to write callback log", err)
	}
}

// =====================================================
// RESULT HELPERS
// =====================================================

func newResult(outcome model.Outcome, txnRef, code, message string) model.VerificationResult {
	return model.VerificationResult{
		Success:      outcome == model.OutcomeSuccess || outcome == model.OutcomeAlreadyProcessed,
		ResponseCode: code,
		Message:      message,
		TxnRef:       txnRef,
		Outcome:      outcome,
	}
}

// declineCode: ResponseCode 00 nhưng TransactionStatus khác 00 thì lấy TransactionStatus
func declineCode(data *vnpay.CallbackData) string {
	if data.ResponseCode == vnpay.ResponseCodeSuccess && data.TransactionStatus != "" {
		return data.TransactionStatus
	}
	return data.ResponseCode
}
