package vnpay

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =====================================================
// VNPAY REQUEST/RESPONSE TYPES
// =====================================================

var (
	ErrInvalidRequest     = errors.New("invalid vnpay request")
	ErrGatewayUnavailable = errors.New("vnpay gateway unavailable")
	ErrInvalidChecksum    = errors.New("vnpay response checksum mismatch")
)

// PaymentRequest là input để build URL thanh toán
type PaymentRequest struct {
	TxnRef    string
	Amount    decimal.Decimal // VND, làm tròn về số nguyên trước khi nhân 100
	OrderInfo string
	ReturnURL string // rỗng thì dùng Config.ReturnURL
	ClientIP  string
	CreatedAt time.Time
	BankCode  string // optional
}

// CallbackData là dạng typed của các field VNPay gửi về Return URL / IPN
type CallbackData struct {
	TxnRef            string
	Amount            decimal.Decimal // đã chia 100, đơn vị VND
	RawAmount         string
	ResponseCode      string
	TransactionStatus string
	TransactionNo     string
	BankCode          string
	BankTranNo        string
	CardType          string
	PayDate           string
	OrderInfo         string
	TmnCode           string
}

// ParseCallback extracts the typed fields. Chỉ gọi sau khi Verify thành công.
func ParseCallback(params map[string]string) (*CallbackData, error) {
	txnRef := params["vnp_TxnRef"]
	if txnRef == "" {
		return nil, fmt.Errorf("%w: missing vnp_TxnRef", ErrInvalidRequest)
	}

	amount, err := ParseAmount(params["vnp_Amount"])
	if err != nil {
		return nil, err
	}

	return &CallbackData{
		TxnRef:            txnRef,
		Amount:            amount,
		RawAmount:         params["vnp_Amount"],
		ResponseCode:      params["vnp_ResponseCode"],
		TransactionStatus: params["vnp_TransactionStatus"],
		TransactionNo:     params["vnp_TransactionNo"],
		BankCode:          params["vnp_BankCode"],
		BankTranNo:        params["vnp_BankTranNo"],
		CardType:          params["vnp_CardType"],
		PayDate:           params["vnp_PayDate"],
		OrderInfo:         params["vnp_OrderInfo"],
		TmnCode:           params["vnp_TmnCode"],
	}, nil
}

// IsSuccess: VNPay coi giao dịch thành công khi ResponseCode = 00 và
// TransactionStatus (nếu có) cũng = 00
func (d *CallbackData) IsSuccess() bool {
	if d.ResponseCode != ResponseCodeSuccess {
		return false
	}
	return d.TransactionStatus == "" || d.TransactionStatus == TransactionStatusSuccess
}

// QueryRequest là input của querydr
type QueryRequest struct {
	RequestID       string
	TxnRef          string
	OrderInfo       string
	TransactionDate time.Time // vnp_CreateDate của giao dịch gốc
	ClientIP        string
}

// queryPayload là JSON body gửi lên merchant_webapi
type queryPayload struct {
	RequestID       string `json:"vnp_RequestId"`
	Version         string `json:"vnp_Version"`
	Command         string `json:"vnp_Command"`
	TmnCode         string `json:"vnp_TmnCode"`
	TxnRef          string `json:"vnp_TxnRef"`
	OrderInfo       string `json:"vnp_OrderInfo"`
	TransactionDate string `json:"vnp_TransactionDate"`
	CreateDate      string `json:"vnp_CreateDate"`
	IPAddr          string `json:"vnp_IpAddr"`
	SecureHash      string `json:"vnp_SecureHash"`
}

// QueryResponse là kết quả querydr
type QueryResponse struct {
	ResponseID        string `json:"vnp_ResponseId"`
	Command           string `json:"vnp_Command"`
	ResponseCode      string `json:"vnp_ResponseCode"`
	Message           string `json:"vnp_Message"`
	TmnCode           string `json:"vnp_TmnCode"`
	TxnRef            string `json:"vnp_TxnRef"`
	Amount            string `json:"vnp_Amount"`
	BankCode          string `json:"vnp_BankCode"`
	PayDate           string `json:"vnp_PayDate"`
	TransactionNo     string `json:"vnp_TransactionNo"`
	TransactionType   string `json:"vnp_TransactionType"`
	TransactionStatus string `json:"vnp_TransactionStatus"`
	OrderInfo         string `json:"vnp_OrderInfo"`
	PromotionCode     string `json:"vnp_PromotionCode"`
	PromotionAmount   string `json:"vnp_PromotionAmount"`
	SecureHash        string `json:"vnp_SecureHash"`
}

// Paid: querydr xác nhận giao dịch đã trừ tiền thành công
func (r *QueryResponse) Paid() bool {
	return r.ResponseCode == ResponseCodeSuccess && r.TransactionStatus == TransactionStatusSuccess
}

func (r *QueryResponse) checksumFields() []string {
	return []string{
		r.ResponseID, r.Command, r.ResponseCode, r.Message, r.TmnCode, r.TxnRef,
		r.Amount, r.BankCode, r.PayDate, r.TransactionNo, r.TransactionType,
		r.TransactionStatus, r.OrderInfo, r.PromotionCode, r.PromotionAmount,
	}
}

// CallbackParams dựng lại map vnp_* từ kết quả querydr để đi chung đường settle
func (r *QueryResponse) CallbackParams() map[string]string {
	return map[string]string{
		"vnp_TxnRef":            r.TxnRef,
		"vnp_Amount":            r.Amount,
		"vnp_ResponseCode":      r.ResponseCode,
		"vnp_TransactionStatus": r.TransactionStatus,
		"vnp_TransactionNo":     r.TransactionNo,
		"vnp_BankCode":          r.BankCode,
		"vnp_PayDate":           r.PayDate,
		"vnp_OrderInfo":         r.OrderInfo,
		"vnp_TmnCode":           r.TmnCode,
	}
}
