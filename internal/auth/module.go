// Package auth provides the authentication bounded context module:
// login/logout, the Redis session scope and user administration.
package auth

import (
	"time"

	"funilzap_backend/internal/auth/handler"
	"funilzap_backend/internal/auth/repository"
	"funilzap_backend/internal/auth/service"
	"funilzap_backend/internal/auth/session"
	"funilzap_backend/internal/config"
	"funilzap_backend/internal/events"
	apphttp "funilzap_backend/internal/http"
	"funilzap_backend/platform/logger"
	"funilzap_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler  *handler.Handler
	service  *service.Service
	sessions *session.Store
	watchdog *session.Watchdog
}

// NewModule creates and initializes the auth module with all its dependencies.
func NewModule(pool *pgxpool.Pool, rdb *redis.Client, cfg *config.Config, bus events.Bus, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	sessions := session.NewStore(rdb, cfg.SessionIdleTimeout)
	svc := service.New(repo, sessions, cfg, log)
	h := handler.New(svc, val)

	return &Module{
		handler:  h,
		service:  svc,
		sessions: sessions,
		watchdog: session.NewWatchdog(sessions, bus, 30*time.Second, log),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// Sessions exposes the session store so the router can wire the
// session-touching auth middleware.
func (m *Module) Sessions() *session.Store {
	return m.sessions
}

// Watchdog returns the inactivity sweeper. The composition root runs it.
func (m *Module) Watchdog() *session.Watchdog {
	return m.watchdog
}

// RegisterRoutes mounts auth routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	authGroup := ctx.V1.Group("/auth")
	authGroup.Use(ctx.AuthRateLimiter.RateLimit())
	m.handler.RegisterPublicRoutes(authGroup)

	protectedAuth := ctx.Protected.Group("/auth")
	m.handler.RegisterProtectedRoutes(protectedAuth)

	m.handler.RegisterAdminRoutes(ctx.Admin)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
