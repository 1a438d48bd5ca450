// Package assistant provides AI suggested replies for open conversations.
// The module is optional: without an API key its routes are not mounted.
package assistant

import (
	"context"

	"funilzap_backend/internal/assistant/handler"
	"funilzap_backend/internal/assistant/service"
	"funilzap_backend/internal/config"
	apphttp "funilzap_backend/internal/http"
	"funilzap_backend/platform/logger"
)

// Module is the assistant bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	enabled bool
}

// NewModule creates the assistant when an API key is configured.
func NewModule(ctx context.Context, cfg *config.Config, transcripts service.TranscriptSource, leads service.LeadSource, log *logger.Logger) (*Module, error) {
	svc, err := service.New(ctx, cfg.GenAIKey, cfg.GenAIModel, transcripts, leads, log)
	if err != nil {
		return nil, err
	}

	return &Module{
		handler: handler.New(svc),
		enabled: svc.Enabled(),
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "assistant"
}

// RegisterRoutes mounts assistant routes when the feature is configured.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	if !m.enabled {
		return
	}
	m.handler.RegisterRoutes(ctx.Protected.Group("/assistant"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
