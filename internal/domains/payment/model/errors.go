package model

import (
	"errors"
	"fmt"
)

// =====================================================
// PREDEFINED ERRORS
// =====================================================

var (
	ErrValidation       = errors.New("invalid payment request")
	ErrInvoiceNotFound  = errors.New("invoice not found")
	ErrInvoiceNotUnpaid = errors.New("invoice is not awaiting payment")
	ErrTooManyAttempts  = errors.New("too many payment attempts")
	ErrAttemptNotFound  = errors.New("payment attempt not found")
	ErrDuplicateTxnRef  = errors.New("txn_ref already exists")
	ErrDuplicateRecord  = errors.New("payment already recorded")
	ErrInvoiceSettled   = errors.New("invoice already settled by another payment")
	ErrInvalidSignature = errors.New("invalid callback signature")
	ErrMockDisabled     = errors.New("mock payments are disabled")
	ErrForbidden        = errors.New("invoice does not belong to user")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrRecordNotFound   = errors.New("payment record not found")
)

// =====================================================
// CUSTOM PAYMENT ERROR
// =====================================================

type PaymentError struct {
	Code    string
	Message string
	Err     error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

func NewPaymentError(code, message string, err error) *PaymentError {
	return &PaymentError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// =====================================================
// ERROR CONSTRUCTORS
// =====================================================

func NewValidationError(message string) *PaymentError {
	return NewPaymentError(ErrCodeValidation, message, ErrValidation)
}

func NewInvoiceNotFoundError(invoiceID string) *PaymentError {
	return NewPaymentError(
		ErrCodeInvoiceNotFound,
		fmt.Sprintf("Invoice not found: %s", invoiceID),
		ErrInvoiceNotFound,
	)
}

func NewInvoiceNotUnpaidError(status string) *PaymentError {
	return NewPaymentError(
		ErrCodeInvoiceNotUnpaid,
		fmt.Sprintf("Invoice status must be 'unpaid', current status: %s", status),
		ErrInvoiceNotUnpaid,
	)
}

func NewTooManyAttemptsError(max int) *PaymentError {
	return NewPaymentError(
		ErrCodeTooManyAttempts,
		fmt.Sprintf("Payment attempt limit exceeded (max %d per window)", max),
		ErrTooManyAttempts,
	)
}

func NewForbiddenError() *PaymentError {
	return NewPaymentError(ErrCodeForbidden, "You do not have access to this invoice", ErrForbidden)
}

// GetErrorCode trả về code của PaymentError, hoặc PAY500 nếu không phải
func GetErrorCode(err error) string {
	var pe *PaymentError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ErrCodeInternal
}
