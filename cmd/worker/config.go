package main

import (
	"log"

	"github.com/hibiken/asynq"

	"evcharge-backend/internal/config"
)

// redisClientOpt dùng chung cho asynq server và scheduler
func redisClientOpt(cfg *config.Config) asynq.RedisClientOpt {
	log.Printf("[Config] Redis: %s (db %d), concurrency: %d, expire cron: %q",
		cfg.Redis.Host, cfg.Redis.DB, cfg.Worker.Concurrency, cfg.Worker.ExpireCron)

	return asynq.RedisClientOpt{
		Addr:     cfg.Redis.Host,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
}
