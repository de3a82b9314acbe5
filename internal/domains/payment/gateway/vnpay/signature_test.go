package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "SECRETKEY0123456789"

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]string
		want   string
	}{
		{
			name:   "sorted by key",
			params: map[string]string{"b": "2", "a": "1"},
			want:   "a=1&b=2",
		},
		{
			name:   "byte order puts upper case first",
			params: map[string]string{"vnp_a": "1", "vnp_B": "2"},
			want:   "vnp_B=2&vnp_a=1",
		},
		{
			name:   "space becomes plus and tilde is escaped",
			params: map[string]string{"vnp_OrderInfo": "Thanh toan ~ #1"},
			want:   "vnp_OrderInfo=Thanh+toan+%7E+%231",
		},
		{
			name:   "url values are percent encoded",
			params: map[string]string{"vnp_ReturnUrl": "https://ev.vn/return?x=1"},
			want:   "vnp_ReturnUrl=https%3A%2F%2Fev.vn%2Freturn%3Fx%3D1",
		},
		{
			name: "hash fields and empty values dropped",
			params: map[string]string{
				"vnp_Amount":         "100",
				"vnp_BankCode":       "",
				"vnp_SecureHash":     "ABC",
				"vnp_SecureHashType": "HmacSHA512",
			},
			want: "vnp_Amount=100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonicalize(tt.params))
		})
	}
}

func TestCanonicalize_IndependentOfInsertionOrder(t *testing.T) {
	first := map[string]string{}
	second := map[string]string{}

	keys := []string{"vnp_TxnRef", "vnp_Amount", "vnp_Command", "vnp_Locale", "vnp_CreateDate"}
	for i, k := range keys {
		first[k] = strings.Repeat("x", i+1)
	}
	for i := len(keys) - 1; i >= 0; i-- {
		second[keys[i]] = strings.Repeat("x", i+1)
	}

	assert.Equal(t, Canonicalize(first), Canonicalize(second))
}

func TestSign_MatchesHMACSHA512(t *testing.T) {
	h := hmac.New(sha512.New, []byte(testSecret))
	h.Write([]byte("a=1&b=2"))
	want := strings.ToUpper(hex.EncodeToString(h.Sum(nil)))

	got := Sign(map[string]string{"b": "2", "a": "1"}, testSecret)
	assert.Equal(t, want, got)
	assert.Len(t, got, 128)
}

func signedCallback() map[string]string {
	params := map[string]string{
		"vnp_Amount":            "50000000",
		"vnp_BankCode":          "NCB",
		"vnp_BankTranNo":        "VNP14226112",
		"vnp_CardType":          "ATM",
		"vnp_OrderInfo":         "Thanh toan hoa don INV-0001",
		"vnp_PayDate":           "20261014103000",
		"vnp_ResponseCode":      "00",
		"vnp_TmnCode":           "DEMOV01",
		"vnp_TransactionNo":     "14226112",
		"vnp_TransactionStatus": "00",
		"vnp_TxnRef":            "INV-0001-20261014102900-ab12",
	}
	params[ParamSecureHash] = Sign(params, testSecret)
	return params
}

func TestVerify_SignedEcho(t *testing.T) {
	params := signedCallback()
	assert.True(t, Verify(params, testSecret))
}

func TestVerify_AcceptsLowercaseHash(t *testing.T) {
	params := signedCallback()
	params[ParamSecureHash] = strings.ToLower(params[ParamSecureHash])
	assert.True(t, Verify(params, testSecret))
}

func TestVerify_IgnoresForeignKeysAndHashType(t *testing.T) {
	params := signedCallback()
	params["utm_source"] = "newsletter"
	params[ParamSecureHashType] = "HmacSHA512"
	assert.True(t, Verify(params, testSecret))
}

func TestVerify_SingleByteMutationFails(t *testing.T) {
	base := signedCallback()

	for key, value := range base {
		if key == ParamSecureHash {
			continue
		}
		t.Run(key, func(t *testing.T) {
			mutated := make(map[string]string, len(base))
			for k, v := range base {
				mutated[k] = v
			}
			b := []byte(value)
			b[len(b)-1] ^= 0x01
			mutated[key] = string(b)

			assert.False(t, Verify(mutated, testSecret))
		})
	}
}

func TestVerify_Rejects(t *testing.T) {
	t.Run("missing hash", func(t *testing.T) {
		params := signedCallback()
		delete(params, ParamSecureHash)
		assert.False(t, Verify(params, testSecret))
	})

	t.Run("empty hash", func(t *testing.T) {
		params := signedCallback()
		params[ParamSecureHash] = ""
		assert.False(t, Verify(params, testSecret))
	})

	t.Run("non hex hash", func(t *testing.T) {
		params := signedCallback()
		params[ParamSecureHash] = "not-a-hash"
		assert.False(t, Verify(params, testSecret))
	})

	t.Run("wrong secret", func(t *testing.T) {
		assert.False(t, Verify(signedCallback(), "other-secret"))
	})

	t.Run("added vnp field", func(t *testing.T) {
		params := signedCallback()
		params["vnp_Extra"] = "1"
		assert.False(t, Verify(params, testSecret))
	})
}

func TestBuildPaymentURL_RoundTrip(t *testing.T) {
	params := map[string]string{
		"vnp_Amount":    "50000000",
		"vnp_OrderInfo": "Thanh toan ~ hoa don",
		"vnp_ReturnUrl": "http://localhost:3000/payment/vnpay-return",
		"vnp_TxnRef":    "INV-1",
	}

	raw := BuildPaymentURL("https://sandbox.vnpayment.vn/paymentv2/vpcpay.html", params, testSecret)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/paymentv2/vpcpay.html", u.Path)

	parsed, err := ParseCallbackQuery(u.RawQuery)
	require.NoError(t, err)
	assert.Equal(t, "Thanh toan ~ hoa don", parsed["vnp_OrderInfo"])
	assert.True(t, Verify(parsed, testSecret))
}

func TestChecksum(t *testing.T) {
	sum := checksum(testSecret, "a", "b", "c")
	assert.True(t, verifyChecksum(testSecret, sum, "a", "b", "c"))
	assert.True(t, verifyChecksum(testSecret, strings.ToUpper(sum), "a", "b", "c"))
	assert.False(t, verifyChecksum(testSecret, sum, "a", "b", "d"))
	assert.False(t, verifyChecksum(testSecret, "", "a", "b", "c"))
}
