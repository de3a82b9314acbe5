package gateway

import (
	"context"

	"evcharge-backend/internal/domains/payment/gateway/vnpay"
)

// VNPayGateway là phần VNPay mà payment service dùng; *vnpay.Client implements nó
type VNPayGateway interface {
	// CreatePaymentURL builds the signed vpcpay.html redirect URL
	CreatePaymentURL(ctx context.Context, req vnpay.PaymentRequest) (string, error)

	// VerifyCallback checks vnp_SecureHash of a Return/IPN payload
	VerifyCallback(params map[string]string) bool

	// QueryTransaction asks VNPay for the authoritative status (querydr)
	QueryTransaction(ctx context.Context, req vnpay.QueryRequest) (*vnpay.QueryResponse, error)

	ExpectedTmnCode() string
}

var _ VNPayGateway = (*vnpay.Client)(nil)
