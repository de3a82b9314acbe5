package vnpay

import (
	"fmt"
	"strings"
	"time"
)

// =====================================================
// VNPAY CONFIGURATION
// =====================================================

type Config struct {
	TmnCode        string        // Merchant code (provided by VNPay)
	HashSecret     string        // Secret key for HMAC-SHA512 signature
	PaymentURL     string        // vpcpay.html endpoint
	APIURL         string        // Merchant web API base (querydr, refund)
	ReturnURL      string        // Frontend callback URL
	Version        string        // VNPay API version (default: "2.1.0")
	Command        string        // Command type (default: "pay")
	CurrCode       string        // Currency code (default: "VND")
	Locale         string        // Language (default: "vn")
	PaymentTimeout time.Duration // vnp_ExpireDate - vnp_CreateDate
	QueryTimeout   time.Duration // HTTP timeout for querydr
}

// NewConfig creates VNPay configuration with protocol defaults filled in
func NewConfig(tmnCode, hashSecret, paymentURL, apiURL, returnURL string) *Config {
	return &Config{
		TmnCode:        tmnCode,
		HashSecret:     hashSecret,
		PaymentURL:     paymentURL,
		APIURL:         apiURL,
		ReturnURL:      returnURL,
		Version:        DefaultVersion,
		Command:        CommandPay,
		CurrCode:       CurrencyVND,
		Locale:         "vn",
		PaymentTimeout: 15 * time.Minute,
		QueryTimeout:   10 * time.Second,
	}
}

// Validate validates configuration
func (c *Config) Validate() error {
	if c.TmnCode == "" {
		return fmt.Errorf("VNPay TmnCode is required")
	}
	if c.HashSecret == "" {
		return fmt.Errorf("VNPay HashSecret is required")
	}
	if c.PaymentURL == "" {
		return fmt.Errorf("VNPay PaymentURL is required")
	}
	if c.ReturnURL == "" {
		return fmt.Errorf("VNPay ReturnURL is required")
	}
	if c.PaymentTimeout <= 0 {
		return fmt.Errorf("VNPay PaymentTimeout must be positive")
	}
	return nil
}

// QueryURL returns the merchant transaction API endpoint (querydr/refund)
func (c *Config) QueryURL() string {
	return strings.TrimRight(c.APIURL, "/") + "/merchant_webapi/api/transaction"
}
