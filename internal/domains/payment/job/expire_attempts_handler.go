package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"evcharge-backend/internal/domains/payment/model"
	"evcharge-backend/internal/shared"
	"evcharge-backend/pkg/logger"
)

// AttemptExpirer là phần PaymentService mà job cần
type AttemptExpirer interface {
	ExpireStaleAttempts(ctx context.Context, olderThan time.Duration) (*model.ExpireResult, error)
}

// ExpireAttemptsHandler xử lý task payment:expire_attempts do scheduler enqueue định kỳ.
type ExpireAttemptsHandler struct {
	payments AttemptExpirer
}

func NewExpireAttemptsHandler(payments AttemptExpirer) *ExpireAttemptsHandler {
	return &ExpireAttemptsHandler{payments: payments}
}

// ProcessTask
// 1. Parse payload (rỗng = dùng StaleAfter mặc định)
// 2. Reconcile qua querydr, attempt không xác nhận được thì expired
func (h *ExpireAttemptsHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.ExpirePaymentAttemptsPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			logger.Error("ExpireAttempts: Failed to unmarshal payload", err)
			// Payload hỏng, retry cũng không sửa được
			return fmt.Errorf("unmarshal ExpireAttempts payload: %w: %v", asynq.SkipRetry, err)
		}
	}

	result, err := h.payments.ExpireStaleAttempts(ctx, payload.OlderThan)
	if err != nil {
		logger.Error("ExpireAttempts: failed", err)
		return err
	}

	logger.Info("ExpireAttempts: done", map[string]interface{}{
		"scanned":      result.Scanned,
		"expired":      result.Expired,
		"reconciled":   result.Reconciled,
		"skipped":      result.Skipped,
		"triggered_at": payload.TriggeredAt,
	})
	return nil
}

// NewExpireAttemptsTask builds the task enqueued by the scheduler
func NewExpireAttemptsTask(olderThan time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(shared.ExpirePaymentAttemptsPayload{
		OlderThan:   olderThan,
		TriggeredAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(shared.TypeExpirePaymentAttempts, payload, asynq.Queue(shared.QueuePayment), asynq.MaxRetry(1)), nil
}
