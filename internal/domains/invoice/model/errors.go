package model

import (
	"errors"
	"fmt"
)

const (
	ErrCodeInvoiceNotFound = "INV001"
	ErrCodeForbidden       = "INV002"
	ErrCodeInvalidInput    = "INV003"
	ErrCodeNotCancellable  = "INV004"
)

var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrQRCodeNotFound  = errors.New("qr code not found")
	ErrForbidden       = errors.New("invoice does not belong to user")
	ErrNotCancellable  = errors.New("invoice cannot be cancelled")
)

type InvoiceError struct {
	Code    string
	Message string
	Err     error
}

func (e *InvoiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InvoiceError) Unwrap() error {
	return e.Err
}

func NewInvoiceError(code, message string, err error) *InvoiceError {
	return &InvoiceError{Code: code, Message: message, Err: err}
}
