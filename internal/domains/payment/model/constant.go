package model

import "time"

// =====================================================
// PAYMENT METHODS
// =====================================================
const (
	MethodVNPay  = "vnpay"
	MethodWallet = "wallet"
	MethodMock   = "mock"
)

// =====================================================
// ATTEMPT STATES
// =====================================================
//
// created -> awaiting_callback -> verified_success | verified_failure
// awaiting_callback -> expired (worker)
const (
	AttemptStateCreated          = "created"
	AttemptStateAwaitingCallback = "awaiting_callback"
	AttemptStateVerifiedSuccess  = "verified_success"
	AttemptStateVerifiedFailure  = "verified_failure"
	AttemptStateExpired          = "expired"
)

// =====================================================
// CALLBACK SOURCES
// =====================================================
const (
	SourceReturn    = "return"
	SourceIPN       = "ipn"
	SourceReconcile = "reconcile"
)

// =====================================================
// VERIFICATION OUTCOMES
// =====================================================
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeAlreadyProcessed Outcome = "already_processed"
	OutcomeDeclined         Outcome = "declined"
	OutcomeInvalidSignature Outcome = "invalid_signature"
	OutcomeNotFound         Outcome = "not_found"
	OutcomeAmountMismatch   Outcome = "amount_mismatch"
	OutcomeError            Outcome = "error"
)

// =====================================================
// IPN RESPONSE CODES (RspCode gửi lại cho VNPay)
// =====================================================
const (
	RspCodeConfirmed        = "00"
	RspCodeOrderNotFound    = "01"
	RspCodeAlreadyConfirmed = "02"
	RspCodeInvalidAmount    = "04"
	RspCodeInvalidSignature = "97"
	RspCodeUnknownError     = "99"
)

// =====================================================
// INTERNAL ERROR CODES
// =====================================================
const (
	ErrCodeValidation       = "PAY001"
	ErrCodeInvoiceNotFound  = "PAY002"
	ErrCodeInvoiceNotUnpaid = "PAY003"
	ErrCodeTooManyAttempts  = "PAY004"
	ErrCodeAttemptNotFound  = "PAY005"
	ErrCodeAlreadyProcessed = "PAY006"
	ErrCodeInvalidSignature = "PAY007"
	ErrCodeGatewayDeclined  = "PAY008"
	ErrCodeGatewayError     = "PAY009"
	ErrCodeMockDisabled     = "PAY010"
	ErrCodeForbidden        = "PAY011"
	ErrCodeInternal         = "PAY500"
)

// =====================================================
// BUSINESS RULES
// =====================================================
const (
	DefaultMaxAttemptsPerWindow = 5
	DefaultAttemptWindow        = 15 * time.Minute
	DefaultCallbackLockTTL      = 30 * time.Second
	DefaultStaleAfter           = 15 * time.Minute

	// ExpireBatchSize giới hạn số attempt xử lý mỗi lần worker chạy
	ExpireBatchSize = 100

	WalletTxnRefPrefix = "WALLET-"
	MockTxnRefPrefix   = "MOCK-"
)
