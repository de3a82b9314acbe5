package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"evcharge-backend/internal/domains/payment/gateway"
	"evcharge-backend/internal/domains/payment/gateway/vnpay"
)

// =====================================================
// MOCK VNPAY GATEWAY FOR TESTING
// =====================================================

type MockVNPayGateway struct {
	mock.Mock
}

var _ gateway.VNPayGateway = (*MockVNPayGateway)(nil)

func (m *MockVNPayGateway) CreatePaymentURL(ctx context.Context, req vnpay.PaymentRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockVNPayGateway) VerifyCallback(params map[string]string) bool {
	args := m.Called(params)
	return args.Bool(0)
}

func (m *MockVNPayGateway) QueryTransaction(ctx context.Context, req vnpay.QueryRequest) (*vnpay.QueryResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*vnpay.QueryResponse)
	return resp, args.Error(1)
}

func (m *MockVNPayGateway) ExpectedTmnCode() string {
	args := m.Called()
	return args.String(0)
}
