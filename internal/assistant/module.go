// Package assistant provides the conversational entry point: an ADK
// agent that answers knowledge questions and drives the guided order
// collection through typed tools.
package assistant

import (
	"concierge_backend/internal/assistant/agent"
	"concierge_backend/internal/assistant/handler"
	apphttp "concierge_backend/internal/http"
	"concierge_backend/platform/config"
	"concierge_backend/platform/logger"
	"concierge_backend/platform/validator"
)

// Module is the assistant bounded context module implementing http.Module.
type Module struct {
	assistant *agent.Assistant
	handler   *handler.Handler
}

// NewModule builds the agent runtime over the knowledge, catalog, and
// orders services. It fails when the agent or its toolset cannot be
// constructed.
func NewModule(knowledge agent.KnowledgeService, catalog agent.CatalogService, orders agent.OrdersService, val *validator.Validator, cfg config.AssistantConfig, log *logger.Logger) (*Module, error) {
	asst, err := agent.NewAssistant(knowledge, catalog, orders, cfg, log)
	if err != nil {
		return nil, err
	}

	return &Module{
		assistant: asst,
		handler:   handler.New(asst, val),
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "assistant"
}

// RegisterRoutes mounts the chat endpoint on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/chat", m.handler.Chat)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
