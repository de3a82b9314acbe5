package service

import (
	"context"
	"errors"
	"time"

	"evcharge-backend/internal/domains/payment/gateway/vnpay"
	"evcharge-backend/internal/domains/payment/model"
	"evcharge-backend/pkg/logger"
)

// =====================================================
// EXPIRE / RECONCILE STALE ATTEMPTS (worker)
// =====================================================

// ExpireStaleAttempts reconciles awaiting_callback attempts older than olderThan
//
// Business Logic Flow:
// 1. List attempts awaiting_callback created trước cutoff (batch ExpireBatchSize)
// 2. Với mỗi attempt gọi querydr
// 3. VNPay xác nhận đã trừ tiền -> settle như callback với source reconcile
// 4. Ngược lại -> expired (conditional, callback tới trước thì bỏ qua)
//
// Edge Cases:
// - Breaker open: dừng batch, các attempt còn lại để lần chạy sau
// - Lỗi transport / checksum: bỏ qua attempt đó
func (s *paymentService) ExpireStaleAttempts(ctx context.Context, olderThan time.Duration) (*model.ExpireResult, error) {
	if olderThan <= 0 {
		olderThan = s.config.StaleAfter
	}
	cutoff := s.now().Add(-olderThan)

	attempts, err := s.attemptRepo.ListStale(ctx, cutoff, model.ExpireBatchSize)
	if err != nil {
		return nil, err
	}

	result := &model.ExpireResult{Scanned: len(attempts)}

	for i, attempt := range attempts {
		if ctx.Err() != nil {
			result.Skipped += len(attempts) - i
			break
		}

		resp, err := s.vnpayGateway.QueryTransaction(ctx, vnpay.QueryRequest{
			TxnRef:          attempt.TxnRef,
			TransactionDate: attempt.CreatedAt,
			ClientIP:        attempt.ClientIP,
		})
		if err != nil {
			if errors.Is(err, vnpay.ErrGatewayUnavailable) {
				s.metrics.QueryDR("unavailable")
				result.Skipped += len(attempts) - i
				logger.Warn("VNPay querydr unavailable, stopping batch", map[string]interface{}{
					"remaining": len(attempts) - i,
				})
				break
			}
			s.metrics.QueryDR("error")
			result.Skipped++
			logger.Warn("VNPay querydr failed", map[string]interface{}{
				"txn_ref": attempt.TxnRef,
				"error":   err.Error(),
			})
			continue
		}

		if resp.Paid() {
			s.metrics.QueryDR("paid")
			switch s.reconcile(ctx, resp) {
			case model.OutcomeSuccess, model.OutcomeAlreadyProcessed:
				result.Reconciled++
				continue
			case model.OutcomeError:
				result.Skipped++
				continue
			}
		} else {
			s.metrics.QueryDR("unpaid")
		}

		expired, err := s.attemptRepo.MarkExpired(ctx, attempt.ID)
		if err != nil {
			logger.Error("Failed to expire payment attempt", err)
			result.Skipped++
			continue
		}
		if expired {
			result.Expired++
		}
	}

	s.metrics.AttemptsExpired(result.Expired)
	logger.Info("Stale payment attempts processed", map[string]interface{}{
		"scanned":    result.Scanned,
		"expired":    result.Expired,
		"reconciled": result.Reconciled,
		"skipped":    result.Skipped,
	})

	return result, nil
}

// reconcile đưa kết quả querydr qua đường settle như một callback đã verify
func (s *paymentService) reconcile(ctx context.Context, resp *vnpay.QueryResponse) model.Outcome {
	params := resp.CallbackParams()

	data, err := vnpay.ParseCallback(params)
	if err != nil {
		logger.Warn("VNPay querydr response malformed", map[string]interface{}{
			"txn_ref": resp.TxnRef,
			"error":   err.Error(),
		})
		return model.OutcomeError
	}

	release := s.acquireCallbackLock(ctx, data.TxnRef)
	result := s.applyCallback(ctx, data)
	release()

	s.metrics.CallbackHandled(model.SourceReconcile, string(result.Outcome))
	s.logCallback(ctx, model.SourceReconcile, params, result)

	return result.Outcome
}
