// Package reports provides funnel aggregate views computed from the merged
// lead list, plus the admin trigger for the emailed digest.
package reports

import (
	apphttp "funilzap_backend/internal/http"
	"funilzap_backend/internal/reports/handler"
	"funilzap_backend/internal/reports/service"
)

// Module is the reports bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the reports module on top of the lead view.
func NewModule(leads service.LeadSource, digests handler.DigestEnqueuer) *Module {
	svc := service.New(leads)
	return &Module{handler: handler.New(svc, digests), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "reports"
}

// Service exposes the reports service for the digest worker.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts report routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/reports"))
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/reports"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
