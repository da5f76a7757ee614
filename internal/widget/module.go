// Package widget provides the widget auth bounded context: tenant
// lookup and chat token issuance for embedded chat widgets.
package widget

import (
	apphttp "concierge_backend/internal/http"
	"concierge_backend/internal/widget/handler"
	"concierge_backend/internal/widget/repository"
	"concierge_backend/internal/widget/service"
	"concierge_backend/platform/config"
	"concierge_backend/platform/logger"
	"concierge_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the widget auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the widget module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, cfg config.WidgetAuthConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "widget"
}

// Service returns the service layer for tenant lookups by other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts widget routes on the provided router context.
// Session creation is public but throttled hard per IP.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/widget/session", ctx.AuthRateLimiter.RateLimit(), m.handler.CreateSession)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
