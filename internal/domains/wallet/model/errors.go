package model

import (
	"errors"
	"fmt"
)

const (
	ErrCodeWalletNotFound      = "WAL001"
	ErrCodeInsufficientBalance = "WAL002"
	ErrCodeInvalidAmount       = "WAL003"
	ErrCodeDuplicateReference  = "WAL004"
	ErrCodeInvoiceNotPayable   = "WAL005"
	ErrCodeForbidden           = "WAL006"
	ErrCodeInvalidInput        = "WAL007"
	ErrCodeUserNotFound        = "WAL008"
	ErrCodeInvoiceNotFound     = "WAL009"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrDuplicateReference  = errors.New("wallet transaction reference already used")
	ErrInvoiceNotPayable   = errors.New("invoice is not awaiting payment")
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrForbidden           = errors.New("invoice does not belong to user")
	ErrUserNotFound        = errors.New("user not found")
)

type WalletError struct {
	Code    string
	Message string
	Err     error
}

func (e *WalletError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *WalletError) Unwrap() error {
	return e.Err
}

func NewWalletError(code, message string, err error) *WalletError {
	return &WalletError{Code: code, Message: message, Err: err}
}
