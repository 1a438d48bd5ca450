package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"funilzap_backend/internal/assistant"
	"funilzap_backend/internal/auth"
	authrepo "funilzap_backend/internal/auth/repository"
	"funilzap_backend/internal/config"
	"funilzap_backend/internal/conversations"
	"funilzap_backend/internal/email"
	"funilzap_backend/internal/events"
	apphttp "funilzap_backend/internal/http"
	"funilzap_backend/internal/http/router"
	"funilzap_backend/internal/leads"
	"funilzap_backend/internal/notification"
	"funilzap_backend/internal/relay"
	"funilzap_backend/internal/reports"
	"funilzap_backend/internal/scheduler"
	"funilzap_backend/internal/settings"
	"funilzap_backend/internal/storage"
	"funilzap_backend/internal/whatsapp"
	"funilzap_backend/platform/db"
	"funilzap_backend/platform/logger"
	"funilzap_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting api", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure
	// ========================================================================

	if err := withRetry(ctx, log, "migrations", 5, time.Second, func() error {
		return db.RunMigrations(ctx, cfg.DatabaseURL, "migrations")
	}); err != nil {
		log.Error("migrations failed", "error", err)
		panic("migrations failed: " + err.Error())
	}

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database", 5, time.Second, func() error {
		var poolErr error
		pool, poolErr = db.NewPool(ctx, cfg.DatabaseURL)
		return poolErr
	}); err != nil {
		log.Error("database connection failed", "error", err)
		panic("database connection failed: " + err.Error())
	}
	defer pool.Close()

	redisOpt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Error("invalid redis url", "error", err)
		panic("invalid redis url: " + err.Error())
	}
	rdb := redis.NewClient(redisOpt)
	defer rdb.Close()

	if err := withRetry(ctx, log, "redis", 5, time.Second, func() error {
		return rdb.Ping(ctx).Err()
	}); err != nil {
		log.Error("redis connection failed", "error", err)
		panic("redis connection failed: " + err.Error())
	}

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	var sender email.Sender
	if cfg.EmailEnabled() {
		sender = email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFromAddress, cfg.EmailFromName)
	} else {
		log.Warn("SMTP not configured; email notifications disabled")
		sender = email.NoopSender{}
	}

	attachments, err := storage.New(ctx, cfg)
	if err != nil {
		log.Error("attachment storage initialization failed", "error", err)
		panic("attachment storage initialization failed: " + err.Error())
	}
	if !attachments.Enabled() {
		log.Warn("MINIO_ENDPOINT not configured; conversation attachments disabled")
	}

	// ========================================================================
	// Modules
	// ========================================================================

	settingsModule := settings.NewModule(pool, cfg, val)
	gateway := whatsapp.NewClient(settingsModule.Service(), log)
	relayClient := relay.NewClient(settingsModule.Service(), log)

	authModule := auth.NewModule(pool, rdb, cfg, eventBus, log, val)
	go authModule.Watchdog().Run(ctx)

	leadsModule := leads.NewModule(pool, cfg, eventBus, log, val)
	leadsModule.Start()
	defer leadsModule.Stop()

	conversationsModule := conversations.NewModule(pool, cfg, leadsModule.Service(), gateway, relayClient, authModule.Sessions(), attachments, eventBus, log, val)

	digestClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("digest client initialization failed", "error", err)
		panic("digest client initialization failed: " + err.Error())
	}
	defer digestClient.Close()

	reportsModule := reports.NewModule(leadsModule.Service(), digestClient)

	assistantModule, err := assistant.NewModule(ctx, cfg, conversationsModule.Service(), leadsModule.Service(), log)
	if err != nil {
		log.Error("assistant initialization failed", "error", err)
		panic("assistant initialization failed: " + err.Error())
	}

	notification.NewModule(eventBus, authrepo.New(pool), sender, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	engine := router.New(cfg, log, authModule.Sessions(), pool, []apphttp.Module{
		authModule,
		leadsModule,
		conversationsModule,
		reportsModule,
		assistantModule,
		settingsModule,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
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
