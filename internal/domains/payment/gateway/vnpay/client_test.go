package vnpay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 14, 3, 29, 0, 0, time.UTC) // 10:29 GMT+7

func newTestClient(t *testing.T, apiURL string) *Client {
	t.Helper()
	cfg := NewConfig("DEMOV01", testSecret, "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html", apiURL, "http://localhost:3000/payment/vnpay-return")
	c, err := NewClient(cfg, WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return c
}

func TestNewClient_InvalidConfig(t *testing.T) {
	_, err := NewClient(&Config{TmnCode: "X"})
	assert.Error(t, err)
}

func TestFormatAmount(t *testing.T) {
	got, err := FormatAmount(decimal.NewFromInt(500000))
	require.NoError(t, err)
	assert.Equal(t, "50000000", got)

	got, err = FormatAmount(decimal.RequireFromString("150000.6"))
	require.NoError(t, err)
	assert.Equal(t, "15000100", got)

	_, err = FormatAmount(decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = FormatAmount(decimal.RequireFromString("0.4"))
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestParseAmount(t *testing.T) {
	got, err := ParseAmount("50000000")
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(500000)))

	_, err = ParseAmount("12.5")
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = ParseAmount("")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestNormalizeIP(t *testing.T) {
	assert.Equal(t, "127.0.0.1", NormalizeIP("::1"))
	assert.Equal(t, "127.0.0.1", NormalizeIP(""))
	assert.Equal(t, "127.0.0.1", NormalizeIP("garbage"))
	assert.Equal(t, "203.113.0.7", NormalizeIP("::ffff:203.113.0.7"))
	assert.Equal(t, "203.113.0.7", NormalizeIP(" 203.113.0.7 "))
}

func TestClient_CreatePaymentURL(t *testing.T) {
	c := newTestClient(t, "https://sandbox.vnpayment.vn")

	raw, err := c.CreatePaymentURL(context.Background(), PaymentRequest{
		TxnRef:    "INV-0001-20261014102900-ab12",
		Amount:    decimal.NewFromInt(500000),
		OrderInfo: "Thanh toan hoa don INV-0001",
		ClientIP:  "::1",
	})
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()

	assert.Equal(t, "50000000", q.Get("vnp_Amount"))
	assert.Equal(t, "2.1.0", q.Get("vnp_Version"))
	assert.Equal(t, "pay", q.Get("vnp_Command"))
	assert.Equal(t, "DEMOV01", q.Get("vnp_TmnCode"))
	assert.Equal(t, "VND", q.Get("vnp_CurrCode"))
	assert.Equal(t, "127.0.0.1", q.Get("vnp_IpAddr"))
	assert.Equal(t, "20261014102900", q.Get("vnp_CreateDate"))
	assert.Equal(t, "20261014104400", q.Get("vnp_ExpireDate"))
	assert.Equal(t, "http://localhost:3000/payment/vnpay-return", q.Get("vnp_ReturnUrl"))
	assert.NotEmpty(t, q.Get("vnp_SecureHash"))

	assert.True(t, c.VerifyCallback(FlattenValues(q)))
}

func TestClient_CreatePaymentURL_Validation(t *testing.T) {
	c := newTestClient(t, "https://sandbox.vnpayment.vn")

	_, err := c.CreatePaymentURL(context.Background(), PaymentRequest{TxnRef: "", Amount: decimal.NewFromInt(1000)})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = c.CreatePaymentURL(context.Background(), PaymentRequest{TxnRef: "X", Amount: decimal.NewFromInt(-5)})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func signedQueryResponse(status string) QueryResponse {
	r := QueryResponse{
		ResponseID:        "resp-1",
		Command:           CommandQueryDR,
		ResponseCode:      "00",
		Message:           "QueryDR Success",
		TmnCode:           "DEMOV01",
		TxnRef:            "INV-1",
		Amount:            "50000000",
		BankCode:          "NCB",
		PayDate:           "20261014103000",
		TransactionNo:     "14226112",
		TransactionType:   "01",
		TransactionStatus: status,
	}
	r.SecureHash = checksum(testSecret, r.checksumFields()...)
	return r
}

func TestClient_QueryTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/merchant_webapi/api/transaction", r.URL.Path)

		var p queryPayload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		assert.Equal(t, CommandQueryDR, p.Command)
		assert.Equal(t, "INV-1", p.TxnRef)
		assert.Equal(t, "20261014102900", p.TransactionDate)
		assert.True(t, verifyChecksum(testSecret, p.SecureHash,
			p.RequestID, p.Version, p.Command, p.TmnCode, p.TxnRef,
			p.TransactionDate, p.CreateDate, p.IPAddr, p.OrderInfo))

		_ = json.NewEncoder(w).Encode(signedQueryResponse(TransactionStatusSuccess))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	resp, err := c.QueryTransaction(context.Background(), QueryRequest{
		TxnRef:          "INV-1",
		TransactionDate: fixedNow,
		ClientIP:        "10.0.0.1",
	})
	require.NoError(t, err)
	assert.True(t, resp.Paid())
	assert.Equal(t, "50000000", resp.CallbackParams()["vnp_Amount"])
}

func TestClient_QueryTransaction_BadChecksum(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := signedQueryResponse(TransactionStatusSuccess)
		resp.Amount = "1" // tampered after signing
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.QueryTransaction(context.Background(), QueryRequest{TxnRef: "INV-1", TransactionDate: fixedNow})
	assert.ErrorIs(t, err, ErrInvalidChecksum)
}

func TestClient_QueryTransaction_BreakerOpens(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	req := QueryRequest{TxnRef: "INV-1", TransactionDate: fixedNow}

	for i := 0; i < 3; i++ {
		_, err := c.QueryTransaction(context.Background(), req)
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrGatewayUnavailable))
	}

	_, err := c.QueryTransaction(context.Background(), req)
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_QueryTransaction_Validation(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1")
	_, err := c.QueryTransaction(context.Background(), QueryRequest{TxnRef: "INV-1"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
