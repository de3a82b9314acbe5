package queue

import (
	"time"

	"github.com/hibiken/asynq"

	"evcharge-backend/internal/config"
	paymentJob "evcharge-backend/internal/domains/payment/job"
	"evcharge-backend/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	cfg       *config.Config
}

func NewScheduler(redisOpt asynq.RedisClientOpt, cfg *config.Config) *Scheduler {
	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		cfg:       cfg,
	}
}

func (s *Scheduler) RegisterPaymentJobs() error {
	return s.registerExpirePaymentAttemptsJob()
}

// ================================================
// JOB: Reconcile / Expire stale payment attempts
// ================================================
// Attempt awaiting_callback quá StaleAfter mà không có IPN sẽ được querydr,
// không xác nhận được thì chuyển expired.
func (s *Scheduler) registerExpirePaymentAttemptsJob() error {
	task, err := paymentJob.NewExpireAttemptsTask(s.cfg.Payment.StaleAfter)
	if err != nil {
		return err
	}

	_, err = s.scheduler.Register(
		s.cfg.Worker.ExpireCron,
		task,
		asynq.Timeout(5*time.Minute),
		asynq.Unique(5*time.Minute), // không chồng 2 lần chạy nếu lần trước chưa xong
	)
	if err != nil {
		logger.Error("Failed to register ExpirePaymentAttempts job", err)
		return err
	}

	logger.Info("✓ Registered ExpirePaymentAttempts", map[string]interface{}{
		"cron":        s.cfg.Worker.ExpireCron,
		"stale_after": s.cfg.Payment.StaleAfter.String(),
	})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
