// Package conversations provides the messaging bounded context module:
// transcripts, the per-user transcript watcher, outbound message dispatch
// with its best-effort side channels, and media attachments.
package conversations

import (
	"context"

	"funilzap_backend/internal/config"
	"funilzap_backend/internal/conversations/handler"
	"funilzap_backend/internal/conversations/repository"
	"funilzap_backend/internal/conversations/service"
	"funilzap_backend/internal/events"
	apphttp "funilzap_backend/internal/http"
	"funilzap_backend/internal/storage"
	"funilzap_backend/platform/logger"
	"funilzap_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the conversations bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the conversations module. The gateway
// and relay clients may be nil, which turns their side channels into no-ops.
func NewModule(
	pool *pgxpool.Pool,
	cfg *config.Config,
	leads service.LeadProvider,
	gateway service.Gateway,
	relayClient service.Relay,
	names service.NameResolver,
	attachments *storage.Service,
	bus events.Bus,
	log *logger.Logger,
	val *validator.Validator,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, leads, gateway, relayClient, names, bus, log, cfg.MessagePollInterval)
	h := handler.New(svc, attachments, val)

	bus.Subscribe("auth.session_expired", events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		if expired, ok := event.(events.SessionExpired); ok {
			svc.StopWatcherFor(expired.UserID)
		}
		return nil
	}))

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "conversations"
}

// Service exposes the conversation service for the assistant module.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts conversation routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/conversations"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
