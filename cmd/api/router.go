package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"evcharge-backend/internal/shared/middleware"
	"evcharge-backend/internal/shared/response"
	"evcharge-backend/pkg/container"
)

// SetupRouter đăng ký toàn bộ routes. limiter được dùng chung cho các tier
// auth/payment để cleanup chạy một chỗ (xem Serve).
func SetupRouter(c *container.Container, limiter *middleware.RateLimiter) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ClientIPMiddleware(),
		c.Metrics.Middleware(),
	)

	router.GET("/metrics", c.Metrics.Handler())
	router.NoRoute(func(ctx *gin.Context) {
		response.NotFound(ctx, "Route not found")
	})

	api := router.Group("/api")
	{
		api.GET("/health", healthCheckHandler(c))

		setupAuthRoutes(api, c, limiter)
		setupUserRoutes(api, c)
		setupBookingRoutes(api, c)
		setupInvoiceRoutes(api, c)
		setupPaymentRoutes(api, c, limiter)
		setupVNPayCallbackRoutes(api, c)
		setupWalletRoutes(api, c)
		setupAdminRoutes(api, c)
	}

	return router
}

// ========================================
// AUTH ROUTES
// ========================================
func setupAuthRoutes(api *gin.RouterGroup, c *container.Container, limiter *middleware.RateLimiter) {
	auth := api.Group("/auth")
	auth.Use(limiter.Middleware("auth"))
	{
		auth.POST("/register", c.UserHandler.Register)
		auth.POST("/login", c.UserHandler.Login)
	}
}

// ========================================
// USER ROUTES
// ========================================
func setupUserRoutes(api *gin.RouterGroup, c *container.Container) {
	users := api.Group("/users")
	users.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		users.GET("/me", c.UserHandler.GetProfile)
	}
}

// ========================================
// BOOKING ROUTES
// ========================================
func setupBookingRoutes(api *gin.RouterGroup, c *container.Container) {
	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		authed.GET("/slots", c.BookingHandler.ListSlots)

		bookings := authed.Group("/bookings")
		bookings.POST("", c.BookingHandler.CreateBooking)
		bookings.GET("", c.BookingHandler.ListMyBookings)
		bookings.GET("/:id", c.BookingHandler.GetBooking)
		bookings.POST("/:id/cancel", c.BookingHandler.CancelBooking)
	}
}

// ========================================
// INVOICE ROUTES
// ========================================
func setupInvoiceRoutes(api *gin.RouterGroup, c *container.Container) {
	invoices := api.Group("/invoices")
	invoices.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		invoices.GET("", c.InvoiceHandler.ListMyInvoices)
		invoices.GET("/:id", c.InvoiceHandler.GetInvoice)
		invoices.GET("/:id/qrcode", c.InvoiceHandler.GetQRCode)
	}
}

// ========================================
// PAYMENT ROUTES
// ========================================
func setupPaymentRoutes(api *gin.RouterGroup, c *container.Container, limiter *middleware.RateLimiter) {
	auth := middleware.AuthMiddleware(c.JWTManager)
	customer := middleware.CustomerMiddleware()

	api.POST("/vnpay/create-payment-url", auth, customer, limiter.Middleware("payment"), c.PaymentHandler.CreatePaymentURL)

	// Mock chỉ bật khi PAYMENT_MOCK_ENABLED=true, service tự trả lỗi nếu tắt
	api.POST("/payments/mock", auth, customer, c.PaymentHandler.PayWithMock)
}

// ========================================
// VNPAY CALLBACK ROUTES
// ========================================
// Không có auth: VNPay server và browser redirect gọi vào, xác thực bằng vnp_SecureHash
func setupVNPayCallbackRoutes(api *gin.RouterGroup, c *container.Container) {
	vnpay := api.Group("/vnpay")
	{
		vnpay.GET("/verify-return", c.PaymentHandler.VerifyReturn)
		vnpay.GET("/ipn", c.PaymentHandler.IPN)
		vnpay.POST("/ipn", c.PaymentHandler.IPN)
	}
}

// ========================================
// WALLET ROUTES
// ========================================
func setupWalletRoutes(api *gin.RouterGroup, c *container.Container) {
	wallet := api.Group("/wallet")
	wallet.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		wallet.GET("", c.WalletHandler.GetMyWallet)
		wallet.POST("/pay-invoice", c.WalletHandler.PayInvoice)
	}
}

// ========================================
// ADMIN ROUTES
// ========================================
func setupAdminRoutes(api *gin.RouterGroup, c *container.Container) {
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		admin.POST("/wallets/:user_id/topup", middleware.AdminMiddleware(), c.WalletHandler.TopUp)
		admin.GET("/payments/export",
			middleware.RequireRoles(middleware.RoleAdmin, middleware.RoleStaff),
			c.PaymentHandler.ExportPayments,
		)
	}
}

// ========================================
// HEALTH CHECK HANDLER
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
			"services":  gin.H{},
		}

		// Check database
		dbStatus := "ok"
		if appCtx.DB == nil || appCtx.DB.Pool == nil {
			dbStatus = "disconnected"
			health["status"] = "degraded"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.DB.HealthCheck(ctx); err != nil {
				dbStatus = fmt.Sprintf("error: %v", err)
				health["status"] = "degraded"
			}
		}

		// Check redis (degraded không làm fail health: lock/throttle tự bỏ qua)
		redisStatus := "ok"
		if appCtx.Cache == nil {
			redisStatus = "disconnected"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.Cache.Ping(ctx); err != nil {
				redisStatus = fmt.Sprintf("error: %v", err)
			}
		}

		// Check object storage
		storageStatus := "ok"
		if appCtx.Storage != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.Storage.HealthCheck(ctx); err != nil {
				storageStatus = fmt.Sprintf("error: %v", err)
			}
		}

		health["services"] = gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
			"storage":  storageStatus,
		}

		statusCode := http.StatusOK
		if dbStatus != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, health)
	}
}
