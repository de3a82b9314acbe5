package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "2.1.0", cfg.VNPay.Version)
	assert.Equal(t, 15*time.Minute, cfg.VNPay.PaymentTimeout)
	assert.Equal(t, 5, cfg.Payment.MaxAttemptsPerWindow)
	assert.Equal(t, "*/5 * * * *", cfg.Worker.ExpireCron)
	assert.Equal(t, 5*time.Minute, cfg.Database.MaxConnLifetime)
	assert.False(t, cfg.Payment.MockEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("VNPAY_TMN_CODE", "DEMOV01")
	t.Setenv("VNPAY_PAYMENT_TIMEOUT", "20m")
	t.Setenv("PAYMENT_MOCK_ENABLED", "true")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("DB_MAX_CONNECTIONS", "40")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "DEMOV01", cfg.VNPay.TmnCode)
	assert.Equal(t, 20*time.Minute, cfg.VNPay.PaymentTimeout)
	assert.True(t, cfg.Payment.MockEnabled)
	assert.InDelta(t, 2.5, cfg.RateLimit.RequestsPerSecond, 0.0001)
	assert.Equal(t, int32(40), cfg.Database.MaxConns)
}

func TestLoad_InvalidDatabaseValues(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-port")

	_, err := Load()
	assert.ErrorContains(t, err, "DB_PORT")
}

func TestValidate_Production(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	t.Run("default jwt secret rejected", func(t *testing.T) {
		_, err := Load()
		assert.ErrorContains(t, err, "JWT_SECRET")
	})

	t.Run("mock payments rejected", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "prod-secret")
		t.Setenv("DB_PASSWORD", "pw")
		t.Setenv("VNPAY_TMN_CODE", "TMN")
		t.Setenv("VNPAY_HASH_SECRET", "HASH")
		t.Setenv("PAYMENT_MOCK_ENABLED", "true")

		_, err := Load()
		assert.ErrorContains(t, err, "PAYMENT_MOCK_ENABLED")
	})

	t.Run("complete production config", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "prod-secret")
		t.Setenv("DB_PASSWORD", "pw")
		t.Setenv("VNPAY_TMN_CODE", "TMN")
		t.Setenv("VNPAY_HASH_SECRET", "HASH")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.IsProduction())
	})
}
