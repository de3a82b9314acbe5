package model

import (
	"errors"
	"fmt"
)

const (
	ErrCodeBookingNotFound = "BKG001"
	ErrCodeSlotNotFound    = "BKG002"
	ErrCodeSlotUnavailable = "BKG003"
	ErrCodeTimeConflict    = "BKG004"
	ErrCodeCannotCancel    = "BKG005"
	ErrCodeInvalidInput    = "BKG006"
	ErrCodeForbidden       = "BKG007"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrSlotNotFound    = errors.New("charging slot not found")
	ErrSlotUnavailable = errors.New("charging slot is not available")
	ErrTimeConflict    = errors.New("slot already booked for this time range")
	ErrCannotCancel    = errors.New("booking cannot be cancelled")
	ErrForbidden       = errors.New("booking does not belong to user")
)

type BookingError struct {
	Code    string
	Message string
	Err     error
}

func (e *BookingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BookingError) Unwrap() error {
	return e.Err
}

func NewBookingError(code, message string, err error) *BookingError {
	return &BookingError{Code: code, Message: message, Err: err}
}
