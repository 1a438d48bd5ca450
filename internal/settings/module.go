// Package settings provides the admin-managed integration settings module.
// The stored row overrides environment defaults for the WhatsApp gateway
// and the automation relay.
package settings

import (
	"funilzap_backend/internal/config"
	apphttp "funilzap_backend/internal/http"
	"funilzap_backend/internal/settings/handler"
	"funilzap_backend/internal/settings/repository"
	"funilzap_backend/internal/settings/service"
	"funilzap_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the settings bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the settings module.
func NewModule(pool *pgxpool.Pool, cfg *config.Config, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "settings"
}

// Service exposes the settings service as the credentials provider for the
// WhatsApp gateway and relay clients.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts settings routes on the admin group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
