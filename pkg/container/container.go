package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"evcharge-backend/internal/config"
	infraCache "evcharge-backend/internal/infrastructure/cache"
	"evcharge-backend/internal/infrastructure/database"
	"evcharge-backend/internal/infrastructure/metrics"
	"evcharge-backend/internal/infrastructure/storage"
	"evcharge-backend/pkg/jwt"

	// Domain imports
	bookingHandler "evcharge-backend/internal/domains/booking/handler"
	bookingRepo "evcharge-backend/internal/domains/booking/repository"
	bookingService "evcharge-backend/internal/domains/booking/service"
	invoiceHandler "evcharge-backend/internal/domains/invoice/handler"
	invoiceRepo "evcharge-backend/internal/domains/invoice/repository"
	invoiceService "evcharge-backend/internal/domains/invoice/service"
	"evcharge-backend/internal/domains/payment/gateway/vnpay"
	paymentHandler "evcharge-backend/internal/domains/payment/handler"
	paymentRepo "evcharge-backend/internal/domains/payment/repository"
	paymentService "evcharge-backend/internal/domains/payment/service"
	"evcharge-backend/internal/domains/user"
	userHandler "evcharge-backend/internal/domains/user/handler"
	userRepo "evcharge-backend/internal/domains/user/repository"
	userService "evcharge-backend/internal/domains/user/service"
	walletHandler "evcharge-backend/internal/domains/wallet/handler"
	walletRepo "evcharge-backend/internal/domains/wallet/repository"
	walletService "evcharge-backend/internal/domains/wallet/service"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container chứa TẤT CẢ dependencies của application (api và worker dùng chung)
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================
	Config      *config.Config
	DB          *database.PostgresDB
	Cache       *infraCache.RedisClient
	Storage     *storage.MinIOStorage
	AsynqClient *asynq.Client
	JWTManager  *jwt.Manager
	Metrics     *metrics.Metrics
	VNPay       *vnpay.Client

	// ========================================
	// REPOSITORY LAYER (DATA ACCESS)
	// ========================================
	UserRepo    user.Repository
	BookingRepo bookingRepo.BookingRepository
	InvoiceRepo invoiceRepo.InvoiceRepository
	AttemptRepo paymentRepo.AttemptRepository
	RecordRepo  paymentRepo.RecordRepository
	CallbackLog paymentRepo.CallbackLogRepository
	WalletRepo  walletRepo.WalletRepository

	// ========================================
	// SERVICE LAYER (BUSINESS LOGIC)
	// ========================================
	UserService    user.Service
	BookingService bookingService.Service
	InvoiceService invoiceService.Service
	PaymentService paymentService.PaymentService
	WalletService  walletService.Service

	// ========================================
	// HANDLER LAYER (HTTP)
	// ========================================
	UserHandler    *userHandler.UserHandler
	BookingHandler *bookingHandler.BookingHandler
	InvoiceHandler *invoiceHandler.InvoiceHandler
	PaymentHandler *paymentHandler.PaymentHandler
	WalletHandler  *walletHandler.WalletHandler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer tạo và initialize toàn bộ dependency graph.
//
// Thứ tự initialization:
//  1. Config
//  2. Infrastructure (DB, Redis, MinIO, Asynq, VNPay) - phụ thuộc Config
//  3. Repositories - phụ thuộc Infrastructure
//  4. Services - phụ thuộc Repositories
//  5. Handlers - phụ thuộc Services
func NewContainer() (*Container, error) {
	log.Println("🔧 Initializing DI Container...")

	c := &Container{}

	// ========================================
	// STEP 1: LOAD CONFIGURATION
	// ========================================
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Printf("✅ Config loaded (Environment: %s)", cfg.App.Environment)

	// ========================================
	// STEP 2: INITIALIZE INFRASTRUCTURE
	// ========================================
	if err := c.initInfrastructure(); err != nil {
		c.Cleanup()
		return nil, err
	}

	// ========================================
	// STEP 3: INITIALIZE REPOSITORIES
	// ========================================
	log.Println("📦 Initializing repositories...")
	c.initRepositories()

	// ========================================
	// STEP 4: INITIALIZE SERVICES
	// ========================================
	log.Println("⚙️  Initializing services...")
	c.initServices()

	// ========================================
	// STEP 5: INITIALIZE HANDLERS
	// ========================================
	log.Println("🎯 Initializing handlers...")
	c.initHandlers()

	log.Println("🎉 DI Container initialized successfully")
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initInfrastructure() error {
	cfg := c.Config

	log.Println("🗄️  Connecting to PostgreSQL...")
	db := database.NewPostgresDB(cfg.Database)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = db
	log.Println("✅ Database connected")

	log.Println("🔴 Connecting to Redis...")
	c.Cache = infraCache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := c.Cache.Connect(ctx); err != nil {
		// callback lock và login throttle tự bỏ qua khi Redis lỗi
		log.Printf("⚠️  Redis connection failed (non-critical): %v", err)
	} else {
		log.Println("✅ Redis connected")
	}

	log.Println("🪣 Connecting to MinIO...")
	store, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
	if err != nil {
		return fmt.Errorf("failed to init object storage: %w", err)
	}
	c.Storage = store
	log.Println("✅ MinIO ready")

	c.AsynqClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Host,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	vnpayConfig := vnpay.NewConfig(
		cfg.VNPay.TmnCode,
		cfg.VNPay.HashSecret,
		cfg.VNPay.PaymentURL,
		cfg.VNPay.APIURL,
		cfg.VNPay.ReturnURL,
	)
	vnpayConfig.Version = cfg.VNPay.Version
	vnpayConfig.Locale = cfg.VNPay.Locale
	vnpayConfig.PaymentTimeout = cfg.VNPay.PaymentTimeout
	vnpayConfig.QueryTimeout = cfg.VNPay.QueryTimeout

	vnpayClient, err := vnpay.NewClient(vnpayConfig)
	if err != nil {
		return fmt.Errorf("failed to init VNPay client: %w", err)
	}
	c.VNPay = vnpayClient

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	c.Metrics = metrics.New()

	return nil
}

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.UserRepo = userRepo.NewPostgresRepository(pool, c.Cache)
	c.BookingRepo = bookingRepo.NewPostgresBookingRepository(pool)
	c.InvoiceRepo = invoiceRepo.NewPostgresInvoiceRepository(pool)
	c.AttemptRepo = paymentRepo.NewAttemptRepository(pool)
	c.RecordRepo = paymentRepo.NewRecordRepository(pool)
	c.CallbackLog = paymentRepo.NewCallbackLogRepository(pool)
	c.WalletRepo = walletRepo.NewPostgresWalletRepository(pool)
}

func (c *Container) initServices() {
	cfg := c.Config
	pool := c.DB.Pool

	c.UserService = userService.NewUserService(c.UserRepo, c.JWTManager, c.Cache)
	c.InvoiceService = invoiceService.NewInvoiceService(c.InvoiceRepo, c.Storage)

	c.BookingService = bookingService.NewBookingService(
		c.BookingRepo,
		c.InvoiceRepo,
		c.InvoiceService,
		pool,
		c.AsynqClient,
	)

	c.PaymentService = paymentService.NewPaymentService(
		c.AttemptRepo,
		c.RecordRepo,
		c.CallbackLog,
		paymentRepo.NewPostgresTransactionManager(pool),
		c.VNPay,
		c.InvoiceRepo,
		c.BookingRepo,
		c.Cache,
		c.Metrics,
		paymentService.Config{
			MockEnabled:          cfg.Payment.MockEnabled,
			MaxAttemptsPerWindow: cfg.Payment.MaxAttemptsPerWindow,
			AttemptWindow:        cfg.Payment.AttemptWindow,
			CallbackLockTTL:      cfg.Payment.CallbackLockTTL,
			StaleAfter:           cfg.Payment.StaleAfter,
			PaymentTimeout:       cfg.VNPay.PaymentTimeout,
		},
	)

	c.WalletService = walletService.NewWalletService(c.WalletRepo, c.InvoiceRepo, c.PaymentService, pool)
}

func (c *Container) initHandlers() {
	c.UserHandler = userHandler.NewUserHandler(c.UserService)
	c.BookingHandler = bookingHandler.NewBookingHandler(c.BookingService)
	c.InvoiceHandler = invoiceHandler.NewInvoiceHandler(c.InvoiceService)
	c.PaymentHandler = paymentHandler.NewPaymentHandler(c.PaymentService)
	c.WalletHandler = walletHandler.NewWalletHandler(c.WalletService)
}

// Cleanup dọn dẹp resources khi shutdown
func (c *Container) Cleanup() {
	log.Println("🧹 Cleaning up container resources...")

	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Printf("⚠️  Failed to close Asynq client: %v", err)
		}
	}

	if c.DB != nil {
		c.DB.Close()
		log.Println("✅ Database connections closed")
	}

	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			log.Printf("⚠️  Failed to close Redis: %v", err)
		} else {
			log.Println("✅ Redis connections closed")
		}
	}

	log.Println("✅ Container cleanup completed")
}
