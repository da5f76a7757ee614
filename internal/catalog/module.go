// Package catalog provides the tenant service catalog bounded context.
// The chat surface reads it to list and validate orderable services;
// catalog content itself is seeded out of band.
package catalog

import (
	"concierge_backend/internal/catalog/handler"
	"concierge_backend/internal/catalog/repository"
	"concierge_backend/internal/catalog/service"
	apphttp "concierge_backend/internal/http"
	"concierge_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the catalog bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the catalog module.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "catalog"
}

// Service returns the service layer for use by the order flow.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts catalog routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/catalog/services", m.handler.ListOrderable)
	ctx.Protected.GET("/catalog/services/:id", m.handler.GetByID)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
