package main

import (
	"github.com/hibiken/asynq"

	invoiceJob "evcharge-backend/internal/domains/invoice/job"
	paymentJob "evcharge-backend/internal/domains/payment/job"
	"evcharge-backend/internal/shared"
	"evcharge-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	// Payment handlers
	expireAttempts *paymentJob.ExpireAttemptsHandler

	// Invoice handlers
	generateQR *invoiceJob.GenerateQRHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		expireAttempts: paymentJob.NewExpireAttemptsHandler(c.PaymentService),
		generateQR:     invoiceJob.NewGenerateQRHandler(c.InvoiceService),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	// Payment tasks
	mux.HandleFunc(shared.TypeExpirePaymentAttempts, h.expireAttempts.ProcessTask)

	// Invoice tasks
	mux.HandleFunc(shared.TypeGenerateInvoiceQR, h.generateQR.ProcessTask)
}
