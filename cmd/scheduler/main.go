package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"funilzap_backend/internal/config"
	"funilzap_backend/internal/email"
	"funilzap_backend/internal/events"
	leadsrepo "funilzap_backend/internal/leads/repository"
	leadsservice "funilzap_backend/internal/leads/service"
	reportsservice "funilzap_backend/internal/reports/service"
	"funilzap_backend/internal/scheduler"
	"funilzap_backend/platform/db"
	"funilzap_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database", 5, 2*time.Second, func() error {
		var poolErr error
		pool, poolErr = db.NewPool(ctx, cfg.DatabaseURL)
		return poolErr
	}); err != nil {
		log.Error("database connection failed", "error", err)
		panic("database connection failed: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	var sender email.Sender
	if cfg.EmailEnabled() {
		sender = email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFromAddress, cfg.EmailFromName)
	} else {
		log.Warn("SMTP not configured; digest emails disabled")
		sender = email.NoopSender{}
	}

	leadsService := leadsservice.New(leadsrepo.New(pool), eventBus, log, cfg.LeadPollInterval)
	reportsService := reportsservice.New(leadsService)

	worker, err := scheduler.NewWorker(cfg, reportsService, sender, log)
	if err != nil {
		log.Error("worker initialization failed", "error", err)
		panic("worker initialization failed: " + err.Error())
	}

	cron, err := scheduler.NewCron(cfg, log)
	if err != nil {
		log.Error("cron initialization failed", "error", err)
		panic("cron initialization failed: " + err.Error())
	}

	go cron.Run(ctx)
	worker.Run(ctx)

	log.Info("scheduler stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("%s: %w", name, lastErr)
}
