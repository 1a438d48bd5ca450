package scheduler

import (
	"context"
	"fmt"

	"funilzap_backend/internal/config"
	"funilzap_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Cron registers the recurring tasks with asynq's scheduler.
type Cron struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

func NewCron(cfg *config.Config, log *logger.Logger) (*Cron, error) {
	opt, err := redisClientOpt(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{})

	task, err := NewFunnelDigestTask(FunnelDigestPayload{})
	if err != nil {
		return nil, err
	}
	if _, err := scheduler.Register(cfg.DigestCron, task, asynq.Queue(cfg.AsynqQueue)); err != nil {
		return nil, fmt.Errorf("register funnel digest: %w", err)
	}

	return &Cron{scheduler: scheduler, log: log}, nil
}

// Run blocks until ctx is done.
func (c *Cron) Run(ctx context.Context) {
	if c == nil || c.scheduler == nil {
		return
	}

	go func() {
		<-ctx.Done()
		c.scheduler.Shutdown()
	}()

	if err := c.scheduler.Run(); err != nil {
		c.log.Error("cron scheduler stopped", "error", err)
	}
}
