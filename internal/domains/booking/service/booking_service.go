package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"

	"evcharge-backend/internal/domains/booking/model"
	"evcharge-backend/internal/domains/booking/repository"
	invoiceJob "evcharge-backend/internal/domains/invoice/job"
	invoiceModel "evcharge-backend/internal/domains/invoice/model"
	"evcharge-backend/internal/shared"
	"evcharge-backend/pkg/database"
	"evcharge-backend/pkg/logger"
)

type bookingService struct {
	repo     repository.BookingRepository
	invoices InvoiceStore
	creator  InvoiceCreator
	db       database.TxBeginner
	tasks    TaskEnqueuer
	now      func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	invoices InvoiceStore,
	creator InvoiceCreator,
	db database.TxBeginner,
	tasks TaskEnqueuer,
) Service {
	return &bookingService{
		repo:     repo,
		invoices: invoices,
		creator:  creator,
		db:       db,
		tasks:    tasks,
		now:      time.Now,
	}
}

func (s *bookingService) ListSlots(ctx context.Context, status string) ([]*model.ChargingSlot, error) {
	switch status {
	case "", model.SlotAvailable, model.SlotReserved, model.SlotCharging, model.SlotMaintenance:
	default:
		return nil, model.NewBookingError(model.ErrCodeInvalidInput, "invalid slot status: "+status, nil)
	}
	return s.repo.ListSlots(ctx, status)
}

func (s *bookingService) Create(ctx context.Context, userID uuid.UUID, req model.CreateBookingRequest) (*model.BookingResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewBookingError(model.ErrCodeInvalidInput, err.Error(), err)
	}
	if !req.StartTime.After(s.now()) {
		return nil, model.NewBookingError(model.ErrCodeInvalidInput, "startTime must be in the future", nil)
	}

	slotID := uuid.MustParse(req.SlotID)

	var (
		booking *model.Booking
		invoice *invoiceModel.Invoice
	)

	err := database.WithTransaction(ctx, s.db, func(tx pgx.Tx) error {
		// Step 1: lock slot
		slot, err := s.repo.GetSlotForUpdateTx(ctx, tx, slotID)
		if err != nil {
			return err
		}
		if slot.Status != model.SlotAvailable {
			return model.ErrSlotUnavailable
		}

		// Step 2: reject overlapping active bookings
		overlap, err := s.repo.HasOverlapTx(ctx, tx, slotID, req.StartTime, req.EndTime)
		if err != nil {
			return err
		}
		if overlap {
			return model.ErrTimeConflict
		}

		// Step 3: insert booking + reserve slot
		booking = &model.Booking{
			ID:           uuid.New(),
			UserID:       userID,
			SlotID:       slotID,
			Status:       model.StatusConfirmed,
			StartTime:    req.StartTime,
			EndTime:      req.EndTime,
			EstimatedKWh: req.EstimatedKWh,
		}
		if err := s.repo.CreateTx(ctx, tx, booking); err != nil {
			return err
		}
		if err := s.repo.UpdateSlotStatusTx(ctx, tx, slotID, model.SlotReserved); err != nil {
			return err
		}

		// Step 4: invoice = ceil(kwh * price)
		invoice, err = s.creator.CreateForBooking(ctx, tx, booking.ID, userID,
			model.EstimateAmount(req.EstimatedKWh, slot.PricePerKWh))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.enqueueQR(ctx, invoice.ID)

	logger.Info("Booking created", map[string]interface{}{
		"booking_id": booking.ID.String(),
		"invoice_id": invoice.ID.String(),
		"amount":     invoice.Amount.String(),
	})

	resp := model.ToBookingResponse(booking)
	resp.Invoice = toInvoiceSummary(invoice)
	return &resp, nil
}

func (s *bookingService) Cancel(ctx context.Context, userID, bookingID uuid.UUID) (*model.BookingResponse, error) {
	var booking *model.Booking

	err := database.WithTransaction(ctx, s.db, func(tx pgx.Tx) error {
		var err error
		booking, err = s.repo.GetForUpdateTx(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if booking.UserID != userID {
			return model.ErrForbidden
		}
		if !booking.CanCancel() {
			return model.ErrCannotCancel
		}

		inv, err := s.invoices.GetByBookingID(ctx, bookingID)
		if err != nil && !errors.Is(err, invoiceModel.ErrInvoiceNotFound) {
			return err
		}
		if inv != nil {
			// lock invoice để không race với settlement
			locked, err := s.invoices.GetForUpdateTx(ctx, tx, inv.ID)
			if err != nil {
				return err
			}
			if !locked.IsPayable() {
				return model.ErrCannotCancel
			}
			if _, err := s.invoices.CancelTx(ctx, tx, inv.ID); err != nil {
				return err
			}
		}

		cancelled, err := s.repo.CancelTx(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if !cancelled {
			return model.ErrCannotCancel
		}

		booking.Status = model.StatusCancelled
		return s.repo.UpdateSlotStatusTx(ctx, tx, booking.SlotID, model.SlotAvailable)
	})
	if err != nil {
		return nil, err
	}

	resp := model.ToBookingResponse(booking)
	return &resp, nil
}

func (s *bookingService) GetForUser(ctx context.Context, userID, bookingID uuid.UUID) (*model.BookingResponse, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, model.ErrForbidden
	}

	resp := model.ToBookingResponse(booking)
	inv, err := s.invoices.GetByBookingID(ctx, bookingID)
	if err != nil && !errors.Is(err, invoiceModel.ErrInvoiceNotFound) {
		return nil, err
	}
	if inv != nil {
		resp.Invoice = toInvoiceSummary(inv)
	}
	return &resp, nil
}

func (s *bookingService) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) (*model.ListBookingsResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	bookings, total, err := s.repo.ListByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}

	out := make([]model.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, model.ToBookingResponse(b))
	}
	return &model.ListBookingsResponse{Bookings: out, Total: total, Page: page, Limit: limit}, nil
}

// enqueueQR: lỗi enqueue không làm fail booking, QR vẫn được render lazily khi user mở
func (s *bookingService) enqueueQR(ctx context.Context, invoiceID uuid.UUID) {
	if s.tasks == nil {
		return
	}

	task, err := invoiceJob.NewGenerateQRTask(invoiceID)
	if err != nil {
		logger.Error("Failed to build QR task", err)
		return
	}

	if _, err := s.tasks.EnqueueContext(ctx, task,
		asynq.Queue(shared.QueueInvoice),
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second),
	); err != nil {
		logger.ErrorWithFields("Failed to enqueue QR generation", err, map[string]interface{}{
			"invoice_id": invoiceID.String(),
		})
	}
}

func toInvoiceSummary(inv *invoiceModel.Invoice) *model.InvoiceSummary {
	return &model.InvoiceSummary{
		ID:     inv.ID,
		Code:   inv.Code,
		Amount: inv.Amount,
		Status: inv.Status,
	}
}
