// Package leads provides the sales funnel bounded context module: the
// merged lead view, funnel stage and assignment mutations, and the
// background refresher that keeps the lead snapshot current.
package leads

import (
	"funilzap_backend/internal/config"
	"funilzap_backend/internal/events"
	apphttp "funilzap_backend/internal/http"
	"funilzap_backend/internal/leads/handler"
	"funilzap_backend/internal/leads/repository"
	"funilzap_backend/internal/leads/service"
	"funilzap_backend/platform/logger"
	"funilzap_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, cfg *config.Config, bus events.Bus, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log, cfg.LeadPollInterval)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service exposes the lead service for modules that read the merged view.
func (m *Module) Service() *service.Service {
	return m.service
}

// Start begins the background lead refresher.
func (m *Module) Start() {
	m.service.StartPolling()
}

// Stop halts the background lead refresher, keeping the cached snapshot.
func (m *Module) Stop() {
	m.service.StopPolling()
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
