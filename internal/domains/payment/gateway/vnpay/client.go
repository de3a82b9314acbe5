package vnpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
)

// =====================================================
// VNPAY CLIENT
// =====================================================

type Client struct {
	config     *Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	now        func() time.Time
}

// Option tùy biến Client (test dùng để thay http client / clock)
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(config *Config, opts ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid VNPay config: %w", err)
	}

	c := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.QueryTimeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	// Merchant API chậm hoặc down thì ngắt sớm, worker sẽ thử lại ở lần chạy sau
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "vnpay-querydr",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrInvalidChecksum)
		},
	})

	return c, nil
}

// =====================================================
// CREATE PAYMENT URL
// =====================================================

func (c *Client) CreatePaymentURL(ctx context.Context, req PaymentRequest) (string, error) {
	if strings.TrimSpace(req.TxnRef) == "" {
		return "", fmt.Errorf("%w: txn_ref is required", ErrInvalidRequest)
	}
	if len(req.TxnRef) > 100 {
		return "", fmt.Errorf("%w: txn_ref too long", ErrInvalidRequest)
	}

	amount, err := FormatAmount(req.Amount)
	if err != nil {
		return "", err
	}

	createdAt := req.CreatedAt
	if createdAt.IsZero() {
		createdAt = c.now()
	}

	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = c.config.ReturnURL
	}

	orderInfo := req.OrderInfo
	if orderInfo == "" {
		orderInfo = "Thanh toan " + req.TxnRef
	}

	params := map[string]string{
		"vnp_Version":    c.config.Version,
		"vnp_Command":    c.config.Command,
		"vnp_TmnCode":    c.config.TmnCode,
		"vnp_Amount":     amount,
		"vnp_CurrCode":   c.config.CurrCode,
		"vnp_TxnRef":     req.TxnRef,
		"vnp_OrderInfo":  orderInfo,
		"vnp_OrderType":  OrderTypeOther,
		"vnp_Locale":     c.config.Locale,
		"vnp_ReturnUrl":  returnURL,
		"vnp_IpAddr":     NormalizeIP(req.ClientIP),
		"vnp_CreateDate": FormatDate(createdAt),
		"vnp_ExpireDate": FormatDate(createdAt.Add(c.config.PaymentTimeout)),
	}
	if req.BankCode != "" {
		params["vnp_BankCode"] = req.BankCode
	}

	return BuildPaymentURL(c.config.PaymentURL, params, c.config.HashSecret), nil
}

// VerifyCallback checks vnp_SecureHash of a Return/IPN payload
func (c *Client) VerifyCallback(params map[string]string) bool {
	return Verify(params, c.config.HashSecret)
}

// ExpectedTmnCode dùng để đối chiếu vnp_TmnCode trong callback
func (c *Client) ExpectedTmnCode() string {
	return c.config.TmnCode
}

// =====================================================
// QUERY TRANSACTION (querydr)
// =====================================================

func (c *Client) QueryTransaction(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	if req.TxnRef == "" || req.TransactionDate.IsZero() {
		return nil, fmt.Errorf("%w: txn_ref and transaction_date are required", ErrInvalidRequest)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doQuery(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		return nil, err
	}

	return result.(*QueryResponse), nil
}

func (c *Client) doQuery(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	requestID := req.RequestID
	if requestID == "" {
		requestID = strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	orderInfo := req.OrderInfo
	if orderInfo == "" {
		orderInfo = "Truy van GD " + req.TxnRef
	}

	payload := queryPayload{
		RequestID:       requestID,
		Version:         c.config.Version,
		Command:         CommandQueryDR,
		TmnCode:         c.config.TmnCode,
		TxnRef:          req.TxnRef,
		OrderInfo:       orderInfo,
		TransactionDate: FormatDate(req.TransactionDate),
		CreateDate:      FormatDate(c.now()),
		IPAddr:          NormalizeIP(req.ClientIP),
	}
	payload.SecureHash = checksum(c.config.HashSecret,
		payload.RequestID, payload.Version, payload.Command, payload.TmnCode, payload.TxnRef,
		payload.TransactionDate, payload.CreateDate, payload.IPAddr, payload.OrderInfo,
	)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.QueryURL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call VNPay API: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("VNPay API returned HTTP %d", resp.StatusCode)
	}

	var out QueryResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if !verifyChecksum(c.config.HashSecret, out.SecureHash, out.checksumFields()...) {
		return nil, ErrInvalidChecksum
	}

	return &out, nil
}

// =====================================================
// HELPERS
// =====================================================

// FormatAmount formats amount for VNPay: VND làm tròn về số nguyên rồi * 100.
// Example: 500,000 VND -> "50000000"
func FormatAmount(amount decimal.Decimal) (string, error) {
	rounded := amount.Round(0)
	if rounded.LessThanOrEqual(decimal.Zero) {
		return "", fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	}
	return rounded.Mul(decimal.NewFromInt(100)).StringFixed(0), nil
}

// ParseAmount parses vnp_Amount back to VND. Example: "10000000" -> 100,000
func ParseAmount(raw string) (decimal.Decimal, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return decimal.Zero, fmt.Errorf("%w: invalid vnp_Amount %q", ErrInvalidRequest, raw)
	}
	return decimal.NewFromInt(n).Div(decimal.NewFromInt(100)), nil
}

// NormalizeIP: VNPay yêu cầu IPv4. IPv6 loopback và IP rỗng thành 127.0.0.1,
// IPv4-mapped IPv6 được unwrap.
func NormalizeIP(ip string) string {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil || parsed.IsLoopback() {
		return "127.0.0.1"
	}
	if v4 := parsed.To4(); v4 != nil {
		return v4.String()
	}
	return parsed.String()
}
