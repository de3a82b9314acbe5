package model

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxBookingDuration giới hạn một lần đặt slot
const MaxBookingDuration = 12 * time.Hour

type CreateBookingRequest struct {
	SlotID       string          `json:"slotId" binding:"required"`
	StartTime    time.Time       `json:"startTime"`
	EndTime      time.Time       `json:"endTime"`
	EstimatedKWh decimal.Decimal `json:"estimatedKwh"`
}

func (r CreateBookingRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SlotID, validation.Required, is.UUID),
		validation.Field(&r.StartTime, validation.Required),
		validation.Field(&r.EndTime,
			validation.Required,
			validation.By(func(interface{}) error {
				if !r.EndTime.After(r.StartTime) {
					return errors.New("endTime must be after startTime")
				}
				if r.EndTime.Sub(r.StartTime) > MaxBookingDuration {
					return errors.New("booking cannot exceed 12 hours")
				}
				return nil
			}),
		),
		validation.Field(&r.EstimatedKWh, validation.By(func(interface{}) error {
			if !r.EstimatedKWh.IsPositive() {
				return errors.New("estimatedKwh must be positive")
			}
			return nil
		})),
	)
}

type BookingResponse struct {
	ID           uuid.UUID       `json:"id"`
	SlotID       uuid.UUID       `json:"slotId"`
	Status       string          `json:"status"`
	StartTime    time.Time       `json:"startTime"`
	EndTime      time.Time       `json:"endTime"`
	EstimatedKWh decimal.Decimal `json:"estimatedKwh"`
	CreatedAt    time.Time       `json:"createdAt"`
	CompletedAt  *time.Time      `json:"completedAt,omitempty"`
	Invoice      *InvoiceSummary `json:"invoice,omitempty"`
}

type InvoiceSummary struct {
	ID     uuid.UUID       `json:"id"`
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
	Status string          `json:"status"`
}

func ToBookingResponse(b *Booking) BookingResponse {
	return BookingResponse{
		ID:           b.ID,
		SlotID:       b.SlotID,
		Status:       b.Status,
		StartTime:    b.StartTime,
		EndTime:      b.EndTime,
		EstimatedKWh: b.EstimatedKWh,
		CreatedAt:    b.CreatedAt,
		CompletedAt:  b.CompletedAt,
	}
}

type ListBookingsResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}
