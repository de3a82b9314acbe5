package main

import (
	"context"
	"log"

	"github.com/hibiken/asynq"

	"evcharge-backend/internal/shared"
	"evcharge-backend/pkg/logger"
)

// asynqServer wraps asynq.Server with additional functionality
type asynqServer struct {
	*asynq.Server
}

// setupAsynqServer creates and configures the Asynq server
func setupAsynqServer(redisOpt asynq.RedisClientOpt, concurrency int, handlers *HandlerRegistry) *asynqServer {
	mux := asynq.NewServeMux()
	handlers.RegisterHandlers(mux)

	if concurrency <= 0 {
		concurrency = 10
	}

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			// reconcile tiền ưu tiên hơn render QR
			Queues: map[string]int{
				shared.QueuePayment: 6,
				shared.QueueInvoice: 3,
			},
			Concurrency: concurrency,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.ErrorWithFields("[Asynq] Task failed", err, map[string]interface{}{
					"type": task.Type(),
				})
			}),
		},
	)

	// Start server in goroutine
	go func() {
		log.Println("[Worker] Starting...")
		if err := srv.Run(mux); err != nil {
			log.Fatalf("[Worker] Failed: %v", err)
		}
	}()

	return &asynqServer{Server: srv}
}

// Shutdown chờ các task đang chạy (asynq tự áp ShutdownTimeout mặc định 8s)
func (s *asynqServer) Shutdown() {
	log.Println("[Worker] Shutting down...")
	s.Server.Shutdown()
	log.Println("[Worker] ✓ Gracefully stopped")
}
