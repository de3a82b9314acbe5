package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"evcharge-backend/internal/domains/booking/model"
	"evcharge-backend/internal/shared"
	"evcharge-backend/pkg/database"
)

type postgresBookingRepository struct {
	db database.DBTX
}

func NewPostgresBookingRepository(db database.DBTX) BookingRepository {
	return &postgresBookingRepository{db: db}
}

const (
	slotColumns    = `id, station_name, connector_type, power_kw, price_per_kwh, status, created_at, updated_at`
	bookingColumns = `id, user_id, slot_id, status, start_time, end_time, estimated_kwh, created_at, updated_at, completed_at`
)

func scanSlot(row pgx.Row) (*model.ChargingSlot, error) {
	s := &model.ChargingSlot{}
	err := row.Scan(&s.ID, &s.StationName, &s.ConnectorType, &s.PowerKW, &s.PricePerKWh, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrSlotNotFound
		}
		return nil, err
	}
	return s, nil
}

func scanBooking(row pgx.Row) (*model.Booking, error) {
	b := &model.Booking{}
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.SlotID,
		&b.Status,
		&b.StartTime,
		&b.EndTime,
		&b.EstimatedKWh,
		&b.CreatedAt,
		&b.UpdatedAt,
		&b.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

// =====================================================
// SLOTS
// =====================================================

func (r *postgresBookingRepository) ListSlots(ctx context.Context, status string) ([]*model.ChargingSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM charging_slots WHERE ($1 = '' OR status = $1) ORDER BY station_name, id`

	rows, err := r.db.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	defer rows.Close()

	slots := make([]*model.ChargingSlot, 0)
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return slots, nil
}

func (r *postgresBookingRepository) GetSlotForUpdateTx(ctx context.Context, tx pgx.Tx, slotID uuid.UUID) (*model.ChargingSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM charging_slots WHERE id = $1 FOR UPDATE`

	s, err := scanSlot(tx.QueryRow(ctx, query, slotID))
	if err != nil {
		if errors.Is(err, model.ErrSlotNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to lock slot: %w", err)
	}
	return s, nil
}

func (r *postgresBookingRepository) UpdateSlotStatusTx(ctx context.Context, tx pgx.Tx, slotID uuid.UUID, status string) error {
	query := `UPDATE charging_slots SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := tx.Exec(ctx, query, slotID, status)
	if err != nil {
		return fmt.Errorf("failed to update slot status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrSlotNotFound
	}
	return nil
}

func (r *postgresBookingRepository) HasOverlapTx(ctx context.Context, tx pgx.Tx, slotID uuid.UUID, start, end time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE slot_id = $1
			  AND status IN ('pending', 'confirmed', 'in_progress')
			  AND start_time < $3
			  AND end_time > $2
		)
	`

	var exists bool
	if err := tx.QueryRow(ctx, query, slotID, start, end).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check booking overlap: %w", err)
	}
	return exists, nil
}

// =====================================================
// BOOKINGS
// =====================================================

func (r *postgresBookingRepository) CreateTx(ctx context.Context, tx pgx.Tx, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (id, user_id, slot_id, status, start_time, end_time, estimated_kwh)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		booking.ID,
		booking.UserID,
		booking.SlotID,
		booking.Status,
		booking.StartTime,
		booking.EndTime,
		booking.EstimatedKWh,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *postgresBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	b, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, model.ErrBookingNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

func (r *postgresBookingRepository) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`

	b, err := scanBooking(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, model.ErrBookingNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to lock booking: %w", err)
	}
	return b, nil
}

func (r *postgresBookingRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]*model.Booking, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*model.Booking, 0, limit)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration error: %w", err)
	}
	return bookings, total, nil
}

func (r *postgresBookingRepository) CancelTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'confirmed')
	`

	result, err := tx.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to cancel booking: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

func (r *postgresBookingRepository) MarkBookingCompleted(ctx context.Context, tx pgx.Tx, id uuid.UUID) (shared.MarkResult, error) {
	query := `
		UPDATE bookings
		SET status = 'completed', completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status NOT IN ('completed', 'cancelled')
		RETURNING slot_id
	`

	var slotID uuid.UUID
	err := tx.QueryRow(ctx, query, id).Scan(&slotID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("failed to complete booking: %w", err)
		}

		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, id).Scan(&exists); err != nil {
			return "", fmt.Errorf("failed to check booking: %w", err)
		}
		if !exists {
			return shared.MarkNotFound, nil
		}
		return shared.MarkAlreadyDone, nil
	}

	freeSlot := `UPDATE charging_slots SET status = 'available', updated_at = NOW() WHERE id = $1 AND status = 'reserved'`
	if _, err := tx.Exec(ctx, freeSlot, slotID); err != nil {
		return "", fmt.Errorf("failed to release slot: %w", err)
	}

	return shared.MarkOK, nil
}
