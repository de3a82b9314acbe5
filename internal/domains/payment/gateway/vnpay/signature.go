package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// =====================================================
// VNPAY SIGNATURE
// =====================================================
//
// Canonical string (dùng chung cho tạo URL và verify callback):
// 1. Bỏ vnp_SecureHash, vnp_SecureHashType và các value rỗng
// 2. Sort key theo byte order (case-sensitive, ascending)
// 3. urlencode(key)=urlencode(value) nối bằng '&' (PHP urlencode)
// 4. HMAC-SHA512(canonical, secret), hex uppercase

// Canonicalize builds the string that gets signed. Map iteration order is irrelevant.
func Canonicalize(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if k == ParamSecureHash || k == ParamSecureHashType || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(phpURLEncode(k))
		b.WriteByte('=')
		b.WriteString(phpURLEncode(params[k]))
	}
	return b.String()
}

// Sign returns the uppercase hex HMAC-SHA512 of the canonical string
func Sign(params map[string]string, secret string) string {
	return strings.ToUpper(hex.EncodeToString(mac(Canonicalize(params), secret)))
}

// Verify recomputes the signature over the vnp_ parameters of a callback and
// compares it with vnp_SecureHash in constant time. The received hash may be
// upper or lower case. A missing or non-hex hash never verifies.
func Verify(params map[string]string, secret string) bool {
	received, ok := params[ParamSecureHash]
	if !ok || received == "" {
		return false
	}

	receivedMAC, err := hex.DecodeString(received)
	if err != nil {
		return false
	}

	expected := mac(Canonicalize(SignedFields(params)), secret)
	return hmac.Equal(receivedMAC, expected)
}

// SignedFields giữ lại các key có prefix vnp_ (không gồm hash fields)
func SignedFields(params map[string]string) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		if !strings.HasPrefix(k, ParamPrefix) {
			continue
		}
		if k == ParamSecureHash || k == ParamSecureHashType {
			continue
		}
		out[k] = v
	}
	return out
}

// BuildPaymentURL appends the canonical query and vnp_SecureHash to baseURL
func BuildPaymentURL(baseURL string, params map[string]string, secret string) string {
	query := Canonicalize(params)
	hash := strings.ToUpper(hex.EncodeToString(mac(query, secret)))

	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	return baseURL + sep + query + "&" + ParamSecureHash + "=" + hash
}

// ParseCallbackQuery flattens a raw query string into a single-valued map.
// Chỉ giữ value đầu tiên của mỗi key.
func ParseCallbackQuery(rawQuery string) (map[string]string, error) {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, err
	}
	return FlattenValues(values), nil
}

// FlattenValues converts url.Values (query or form) into map[string]string
func FlattenValues(values url.Values) map[string]string {
	params := make(map[string]string, len(values))
	for k, vs := range values {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}
	return params
}

// checksum dùng cho merchant API (querydr): các field nối bằng '|', hex lowercase
func checksum(secret string, fields ...string) string {
	return hex.EncodeToString(mac(strings.Join(fields, "|"), secret))
}

func verifyChecksum(secret, received string, fields ...string) bool {
	receivedMAC, err := hex.DecodeString(received)
	if err != nil || received == "" {
		return false
	}
	return hmac.Equal(receivedMAC, mac(strings.Join(fields, "|"), secret))
}

func mac(data, secret string) []byte {
	h := hmac.New(sha512.New, []byte(secret))
	h.Write([]byte(data))
	return h.Sum(nil)
}

// phpURLEncode encodes like PHP urlencode(): space là '+', mọi ký tự ngoài
// [A-Za-z0-9_.-] thành %XX uppercase. Go QueryEscape giữ nguyên '~' nên phải encode thêm.
func phpURLEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "~", "%7E")
}
