package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"evcharge-backend/internal/domains/booking/model"
	"evcharge-backend/internal/shared"
)

type BookingRepository interface {
	// Slots
	ListSlots(ctx context.Context, status string) ([]*model.ChargingSlot, error)
	GetSlotForUpdateTx(ctx context.Context, tx pgx.Tx, slotID uuid.UUID) (*model.ChargingSlot, error)
	UpdateSlotStatusTx(ctx context.Context, tx pgx.Tx, slotID uuid.UUID, status string) error

	// HasOverlapTx checks active bookings của slot giao với [start, end)
	HasOverlapTx(ctx context.Context, tx pgx.Tx, slotID uuid.UUID, start, end time.Time) (bool, error)

	// Bookings
	CreateTx(ctx context.Context, tx pgx.Tx, booking *model.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	GetForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]*model.Booking, int, error)
	CancelTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)

	// MarkBookingCompleted: -> completed và trả slot về available. ok | already_done | not_found
	MarkBookingCompleted(ctx context.Context, tx pgx.Tx, id uuid.UUID) (shared.MarkResult, error)
}
