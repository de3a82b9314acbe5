package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// SLOT STATUS
// =====================================================
const (
	SlotAvailable   = "available"
	SlotReserved    = "reserved"
	SlotCharging    = "charging"
	SlotMaintenance = "maintenance"
)

// =====================================================
// BOOKING STATUS
// =====================================================
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

type ChargingSlot struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	StationName   string          `json:"station_name" db:"station_name"`
	ConnectorType string          `json:"connector_type" db:"connector_type"`
	PowerKW       decimal.Decimal `json:"power_kw" db:"power_kw"`
	PricePerKWh   decimal.Decimal `json:"price_per_kwh" db:"price_per_kwh"`
	Status        string          `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

type Booking struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	UserID       uuid.UUID       `json:"user_id" db:"user_id"`
	SlotID       uuid.UUID       `json:"slot_id" db:"slot_id"`
	Status       string          `json:"status" db:"status"`
	StartTime    time.Time       `json:"start_time" db:"start_time"`
	EndTime      time.Time       `json:"end_time" db:"end_time"`
	EstimatedKWh decimal.Decimal `json:"estimated_kwh" db:"estimated_kwh"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
}

// CanCancel: chỉ booking chưa bắt đầu sạc mới huỷ được
func (b *Booking) CanCancel() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// EstimateAmount = ceil(kwh * price), VND không có phần lẻ
func EstimateAmount(kwh, pricePerKWh decimal.Decimal) decimal.Decimal {
	return kwh.Mul(pricePerKWh).Ceil()
}
