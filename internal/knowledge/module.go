// Package knowledge provides the knowledge base bounded context: layered
// retrieval over tenant articles, category browsing, and the search log
// that feeds the curation digest.
package knowledge

import (
	apphttp "concierge_backend/internal/http"
	"concierge_backend/internal/knowledge/handler"
	"concierge_backend/internal/knowledge/repository"
	"concierge_backend/internal/knowledge/service"
	"concierge_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the knowledge bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the knowledge module.
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
	return "knowledge"
}

// Service returns the service layer for the assistant tools and scheduler.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts knowledge routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/knowledge/search", m.handler.Search)
	ctx.Protected.GET("/knowledge/categories", m.handler.ListCategories)
	ctx.Protected.GET("/knowledge/categories/:id/articles", m.handler.ListCategoryArticles)
	ctx.Protected.GET("/knowledge/articles/:id", m.handler.GetArticle)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
