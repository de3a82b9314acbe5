package job

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"evcharge-backend/internal/domains/invoice/model"
	"evcharge-backend/internal/shared"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) GenerateQRCode(ctx context.Context, invoiceID uuid.UUID) (*model.QRCode, error) {
	args := m.Called(ctx, invoiceID)
	qr, _ := args.Get(0).(*model.QRCode)
	return qr, args.Error(1)
}

func TestGenerateQRHandler(t *testing.T) {
	invoiceID := uuid.New()
	task, err := NewGenerateQRTask(invoiceID)
	require.NoError(t, err)
	assert.Equal(t, shared.TypeGenerateInvoiceQR, task.Type())

	t.Run("ok", func(t *testing.T) {
		gen := new(mockGenerator)
		gen.On("GenerateQRCode", mock.Anything, invoiceID).Return(&model.QRCode{ObjectKey: "invoices/x/qr.png"}, nil)
		assert.NoError(t, NewGenerateQRHandler(gen).ProcessTask(context.Background(), task))
	})

	t.Run("missing invoice is not retried", func(t *testing.T) {
		gen := new(mockGenerator)
		gen.On("GenerateQRCode", mock.Anything, invoiceID).Return(nil, model.ErrInvoiceNotFound)
		err := NewGenerateQRHandler(gen).ProcessTask(context.Background(), task)
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("storage error is retried", func(t *testing.T) {
		gen := new(mockGenerator)
		gen.On("GenerateQRCode", mock.Anything, invoiceID).Return(nil, errors.New("minio timeout"))
		err := NewGenerateQRHandler(gen).ProcessTask(context.Background(), task)
		require.Error(t, err)
		assert.False(t, errors.Is(err, asynq.SkipRetry))
	})

	t.Run("bad payload", func(t *testing.T) {
		err := NewGenerateQRHandler(new(mockGenerator)).ProcessTask(context.Background(),
			asynq.NewTask(shared.TypeGenerateInvoiceQR, []byte(`{"invoiceId":"nope"}`)))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})
}
