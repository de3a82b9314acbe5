package vnpay

import "time"

const (
	DefaultVersion = "2.1.0"
	CommandPay     = "pay"
	CommandQueryDR = "querydr"
	CurrencyVND    = "VND"
	OrderTypeOther = "other"

	// DateLayout là định dạng yyyyMMddHHmmss của vnp_CreateDate / vnp_PayDate
	DateLayout = "20060102150405"

	ParamSecureHash     = "vnp_SecureHash"
	ParamSecureHashType = "vnp_SecureHashType"
	ParamPrefix         = "vnp_"
)

// VNPay đánh dấu thời gian theo GMT+7
var vietnamTZ = time.FixedZone("ICT", 7*60*60)

// Location trả về múi giờ GMT+7 dùng cho các mốc thời gian của VNPay
func Location() *time.Location {
	return vietnamTZ
}

// FormatDate formats t in GMT+7 the way VNPay expects
func FormatDate(t time.Time) string {
	return t.In(vietnamTZ).Format(DateLayout)
}

// ParseDate parses yyyyMMddHHmmss in GMT+7
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, vietnamTZ)
}

// vnp_ResponseCode
const (
	ResponseCodeSuccess               = "00"
	ResponseCodeSuspicious            = "07"
	ResponseCodeNotRegistered         = "09"
	ResponseCodeAuthFailed            = "10"
	ResponseCodeTimeout               = "11"
	ResponseCodeCardLocked            = "12"
	ResponseCodeIncorrectOTP          = "13"
	ResponseCodeUserCancelled         = "24"
	ResponseCodeInsufficientBalance   = "51"
	ResponseCodeLimitExceeded         = "65"
	ResponseCodeBankMaintenance       = "75"
	ResponseCodeWrongPasswordTooOften = "79"
	ResponseCodeOther                 = "99"
)

// vnp_TransactionStatus (querydr)
const (
	TransactionStatusSuccess    = "00"
	TransactionStatusPending    = "01"
	TransactionStatusError      = "02"
	TransactionStatusReversed   = "04"
	TransactionStatusProcessing = "05"
	TransactionStatusRefundSent = "06"
	TransactionStatusFraud      = "07"
	TransactionStatusRefundDeny = "09"
)

var responseMessages = map[string]string{
	ResponseCodeSuccess:               "Giao dịch thành công",
	ResponseCodeSuspicious:            "Trừ tiền thành công. Giao dịch bị nghi ngờ (liên quan tới lừa đảo, giao dịch bất thường)",
	ResponseCodeNotRegistered:         "Thẻ/Tài khoản chưa đăng ký dịch vụ InternetBanking",
	ResponseCodeAuthFailed:            "Xác thực thông tin thẻ/tài khoản không đúng quá 3 lần",
	ResponseCodeTimeout:               "Đã hết hạn chờ thanh toán",
	ResponseCodeCardLocked:            "Thẻ/Tài khoản bị khóa",
	ResponseCodeIncorrectOTP:          "Nhập sai mật khẩu xác thực giao dịch (OTP)",
	ResponseCodeUserCancelled:         "Khách hàng hủy giao dịch",
	ResponseCodeInsufficientBalance:   "Tài khoản không đủ số dư",
	ResponseCodeLimitExceeded:         "Tài khoản đã vượt quá hạn mức giao dịch trong ngày",
	ResponseCodeBankMaintenance:       "Ngân hàng thanh toán đang bảo trì",
	ResponseCodeWrongPasswordTooOften: "Nhập sai mật khẩu thanh toán quá số lần quy định",
	ResponseCodeOther:                 "Lỗi không xác định",
}

// ResponseMessage returns Vietnamese message for response code
func ResponseMessage(code string) string {
	if msg, ok := responseMessages[code]; ok {
		return msg
	}
	return responseMessages[ResponseCodeOther]
}
