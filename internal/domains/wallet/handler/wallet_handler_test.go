package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"evcharge-backend/internal/domains/wallet/model"
	"evcharge-backend/internal/shared/middleware"
)

type mockWalletService struct {
	mock.Mock
}

func (m *mockWalletService) Get(ctx context.Context, userID uuid.UUID) (*model.WalletResponse, error) {
	args := m.Called(ctx, userID)
	w, _ := args.Get(0).(*model.WalletResponse)
	return w, args.Error(1)
}

func (m *mockWalletService) TopUp(ctx context.Context, adminID, userID uuid.UUID, req model.TopUpRequest) (*model.Transaction, error) {
	args := m.Called(ctx, adminID, userID, req)
	t, _ := args.Get(0).(*model.Transaction)
	return t, args.Error(1)
}

func (m *mockWalletService) PayInvoice(ctx context.Context, userID uuid.UUID, req model.PayInvoiceRequest) (*model.PayInvoiceResponse, error) {
	args := m.Called(ctx, userID, req)
	r, _ := args.Get(0).(*model.PayInvoiceResponse)
	return r, args.Error(1)
}

var testUserID = uuid.MustParse("11111111-1111-1111-1111-111111111111")

func setupRouter(svc *mockWalletService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewWalletHandler(svc)

	withUser := func(c *gin.Context) {
		c.Set(middleware.ContextUserID, testUserID)
		c.Next()
	}

	r.GET("/api/wallet", withUser, h.GetMyWallet)
	r.POST("/api/wallet/pay-invoice", withUser, h.PayInvoice)
	r.POST("/api/admin/wallets/:user_id/topup", withUser, h.TopUp)
	return r
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetMyWallet(t *testing.T) {
	svc := &mockWalletService{}
	svc.On("Get", mock.Anything, testUserID).
		Return(&model.WalletResponse{UserID: testUserID, Balance: decimal.NewFromInt(5000)}, nil)

	w := doJSON(setupRouter(svc), http.MethodGet, "/api/wallet", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"balance":"5000"`)
}

func TestPayInvoice(t *testing.T) {
	invoiceID := uuid.New()
	req := model.PayInvoiceRequest{InvoiceID: invoiceID.String()}

	t.Run("paid", func(t *testing.T) {
		svc := &mockWalletService{}
		svc.On("PayInvoice", mock.Anything, testUserID, req).
			Return(&model.PayInvoiceResponse{InvoiceID: invoiceID, TxnRef: "WALLET-" + invoiceID.String()}, nil)

		w := doJSON(setupRouter(svc), http.MethodPost, "/api/wallet/pay-invoice", req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Invoice paid")
	})

	t.Run("already paid", func(t *testing.T) {
		svc := &mockWalletService{}
		svc.On("PayInvoice", mock.Anything, testUserID, req).
			Return(&model.PayInvoiceResponse{InvoiceID: invoiceID, AlreadyPaid: true}, nil)

		w := doJSON(setupRouter(svc), http.MethodPost, "/api/wallet/pay-invoice", req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Invoice already paid")
	})

	errorCases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"insufficient", model.ErrInsufficientBalance, http.StatusPaymentRequired, model.ErrCodeInsufficientBalance},
		{"not found", model.ErrInvoiceNotFound, http.StatusNotFound, model.ErrCodeInvoiceNotFound},
		{"forbidden", model.ErrForbidden, http.StatusForbidden, model.ErrCodeForbidden},
		{"not payable", model.ErrInvoiceNotPayable, http.StatusConflict, model.ErrCodeInvoiceNotPayable},
		{"invalid", model.NewWalletError(model.ErrCodeInvalidInput, "bad", nil), http.StatusBadRequest, model.ErrCodeInvalidInput},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockWalletService{}
			svc.On("PayInvoice", mock.Anything, testUserID, req).Return(nil, tt.err)

			w := doJSON(setupRouter(svc), http.MethodPost, "/api/wallet/pay-invoice", req)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
		})
	}
}

func TestTopUp(t *testing.T) {
	userID := uuid.New()

	t.Run("created", func(t *testing.T) {
		svc := &mockWalletService{}
		svc.On("TopUp", mock.Anything, testUserID, userID, mock.MatchedBy(func(r model.TopUpRequest) bool {
			return r.Amount.Equal(decimal.NewFromInt(200000))
		})).Return(&model.Transaction{UserID: userID, Type: model.TypeTopUp}, nil)

		w := doJSON(setupRouter(svc), http.MethodPost, "/api/admin/wallets/"+userID.String()+"/topup",
			map[string]interface{}{"amount": 200000})
		require.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("bad user id", func(t *testing.T) {
		w := doJSON(setupRouter(&mockWalletService{}), http.MethodPost, "/api/admin/wallets/abc/topup",
			map[string]interface{}{"amount": 1000})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("duplicate reference", func(t *testing.T) {
		svc := &mockWalletService{}
		svc.On("TopUp", mock.Anything, testUserID, userID, mock.Anything).
			Return(nil, model.NewWalletError(model.ErrCodeDuplicateReference, "reference already used", model.ErrDuplicateReference))

		w := doJSON(setupRouter(svc), http.MethodPost, "/api/admin/wallets/"+userID.String()+"/topup",
			map[string]interface{}{"amount": 1000, "reference": "BANK-1"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}
