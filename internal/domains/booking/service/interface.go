package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"evcharge-backend/internal/domains/booking/model"
	invoiceModel "evcharge-backend/internal/domains/invoice/model"
)

type Service interface {
	ListSlots(ctx context.Context, status string) ([]*model.ChargingSlot, error)
	Create(ctx context.Context, userID uuid.UUID, req model.CreateBookingRequest) (*model.BookingResponse, error)
	Cancel(ctx context.Context, userID, bookingID uuid.UUID) (*model.BookingResponse, error)
	GetForUser(ctx context.Context, userID, bookingID uuid.UUID) (*model.BookingResponse, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) (*model.ListBookingsResponse, error)
}

// InvoiceCreator tạo invoice cho booking trong cùng transaction
type InvoiceCreator interface {
	CreateForBooking(ctx context.Context, tx pgx.Tx, bookingID, userID uuid.UUID, amount decimal.Decimal) (*invoiceModel.Invoice, error)
}

// InvoiceStore là phần invoice repository mà booking dùng khi huỷ / xem chi tiết
type InvoiceStore interface {
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*invoiceModel.Invoice, error)
	GetForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*invoiceModel.Invoice, error)
	CancelTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
}

// TaskEnqueuer is satisfied by *asynq.Client
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}
