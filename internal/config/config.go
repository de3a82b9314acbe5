package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"evcharge-backend/internal/infrastructure/database"
)

// Config chứa toàn bộ application configuration
// Struct này được populate từ environment variables
type Config struct {
	App       AppConfig
	Database  *database.DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	VNPay     VNPayConfig
	MinIO     MinIOConfig
	Payment   PaymentConfig
	RateLimit RateLimitConfig
	Worker    WorkerConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	LogLevel    string
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

type VNPayConfig struct {
	TmnCode        string        // Merchant Code (vd: "DEMOV01")
	HashSecret     string        // Secret key cho HMAC-SHA512
	PaymentURL     string        // Trang thanh toán vpcpay.html
	APIURL         string        // Merchant API (querydr/refund)
	ReturnURL      string        // Frontend callback URL
	Version        string        // "2.1.0"
	Locale         string        // vn | en
	PaymentTimeout time.Duration // vnp_ExpireDate = CreateDate + timeout
	QueryTimeout   time.Duration // HTTP timeout cho querydr
}

type MinIOConfig struct {
	Endpoint  string // localhost:9000
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type PaymentConfig struct {
	MockEnabled          bool          // cho phép /payments/mock (chỉ dev)
	MaxAttemptsPerWindow int           // số lần tạo URL tối đa cho 1 invoice trong window
	AttemptWindow        time.Duration //
	CallbackLockTTL      time.Duration // TTL của redis lock theo txn_ref
	StaleAfter           time.Duration // attempt awaiting_callback quá hạn này sẽ được reconcile
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type WorkerConfig struct {
	ExpireCron  string
	Concurrency int
	HealthPort  string
}

const defaultJWTSecret = "your-secret-key-change-in-production"

// Load đọc config từ environment variables
func Load() (*Config, error) {
	dbConfig, err := LoadDatabaseConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "EV Charging API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: dbConfig,
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", defaultJWTSecret),
			AccessTokenExpiry: getEnvDuration("JWT_ACCESS_EXPIRY", 24*time.Hour),
		},
		VNPay: VNPayConfig{
			TmnCode:        getEnv("VNPAY_TMN_CODE", ""),
			HashSecret:     getEnv("VNPAY_HASH_SECRET", ""),
			PaymentURL:     getEnv("VNPAY_PAYMENT_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"),
			APIURL:         getEnv("VNPAY_API_URL", "https://sandbox.vnpayment.vn"),
			ReturnURL:      getEnv("VNPAY_RETURN_URL", "http://localhost:3000/payment/vnpay-return"),
			Version:        getEnv("VNPAY_VERSION", "2.1.0"),
			Locale:         getEnv("VNPAY_LOCALE", "vn"),
			PaymentTimeout: getEnvDuration("VNPAY_PAYMENT_TIMEOUT", 15*time.Minute),
			QueryTimeout:   getEnvDuration("VNPAY_QUERY_TIMEOUT", 10*time.Second),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("MINIO_BUCKET", "evcharge"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Payment: PaymentConfig{
			MockEnabled:          getEnvBool("PAYMENT_MOCK_ENABLED", false),
			MaxAttemptsPerWindow: getEnvInt("PAYMENT_MAX_ATTEMPTS", 5),
			AttemptWindow:        getEnvDuration("PAYMENT_ATTEMPT_WINDOW", time.Hour),
			CallbackLockTTL:      getEnvDuration("PAYMENT_CALLBACK_LOCK_TTL", 30*time.Second),
			StaleAfter:           getEnvDuration("PAYMENT_STALE_AFTER", 15*time.Minute),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvFloat("RATE_LIMIT_RPS", 5),
			Burst:             getEnvInt("RATE_LIMIT_BURST", 10),
		},
		Worker: WorkerConfig{
			ExpireCron:  getEnv("WORKER_EXPIRE_CRON", "*/5 * * * *"),
			Concurrency: getEnvInt("WORKER_CONCURRENCY", 10),
			HealthPort:  getEnv("WORKER_HEALTH_PORT", "9999"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate kiểm tra config có hợp lệ không
func (c *Config) Validate() error {
	if c.Payment.MaxAttemptsPerWindow <= 0 {
		return fmt.Errorf("PAYMENT_MAX_ATTEMPTS must be positive")
	}
	if c.VNPay.PaymentTimeout <= 0 {
		return fmt.Errorf("VNPAY_PAYMENT_TIMEOUT must be positive")
	}

	// Production environment phải có secrets thật
	if c.IsProduction() {
		if c.JWT.Secret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
		if c.VNPay.TmnCode == "" || c.VNPay.HashSecret == "" {
			return fmt.Errorf("VNPAY_TMN_CODE and VNPAY_HASH_SECRET must be set in production")
		}
		if c.Payment.MockEnabled {
			return fmt.Errorf("PAYMENT_MOCK_ENABLED is not allowed in production")
		}
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
