package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"evcharge-backend/internal/domains/invoice/model"
	"evcharge-backend/internal/shared"
	"evcharge-backend/pkg/logger"
)

// QRGenerator là phần invoice service mà job cần
type QRGenerator interface {
	GenerateQRCode(ctx context.Context, invoiceID uuid.UUID) (*model.QRCode, error)
}

// GenerateQRHandler render trước ảnh QR sau khi booking tạo invoice,
// để GET /invoices/:id/qrcode không phải chờ upload.
type GenerateQRHandler struct {
	invoices QRGenerator
}

func NewGenerateQRHandler(invoices QRGenerator) *GenerateQRHandler {
	return &GenerateQRHandler{invoices: invoices}
}

func (h *GenerateQRHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.GenerateInvoiceQRPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Error("GenerateQR: Failed to unmarshal payload", err)
		return fmt.Errorf("unmarshal GenerateQR payload: %w: %v", asynq.SkipRetry, err)
	}

	invoiceID, err := uuid.Parse(payload.InvoiceID)
	if err != nil {
		return fmt.Errorf("invalid invoice_id %q: %w", payload.InvoiceID, asynq.SkipRetry)
	}

	qr, err := h.invoices.GenerateQRCode(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, model.ErrInvoiceNotFound) {
			return fmt.Errorf("invoice %s: %w", invoiceID, asynq.SkipRetry)
		}
		// storage / DB lỗi tạm thời -> retry
		logger.Error("GenerateQR: failed", err)
		return err
	}

	logger.Debug("GenerateQR: done", map[string]interface{}{
		"invoice_id": invoiceID.String(),
		"object_key": qr.ObjectKey,
	})
	return nil
}

// NewGenerateQRTask builds the task booking enqueues after commit
func NewGenerateQRTask(invoiceID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(shared.GenerateInvoiceQRPayload{InvoiceID: invoiceID.String()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(shared.TypeGenerateInvoiceQR, payload), nil
}
