// Package orders provides the guided order collection bounded context:
// per-visitor sessions, field validation, image verification, and order
// finalization.
package orders

import (
	"concierge_backend/internal/adapters/storage"
	"concierge_backend/internal/events"
	apphttp "concierge_backend/internal/http"
	"concierge_backend/internal/orders/handler"
	"concierge_backend/internal/orders/repository"
	"concierge_backend/internal/orders/service"
	"concierge_backend/internal/orders/sessionlock"
	"concierge_backend/platform/config"
	"concierge_backend/platform/logger"
	"concierge_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Module is the orders bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the orders module. The catalog
// service validates selected services; Redis backs the per-visitor
// session lock.
func NewModule(pool *pgxpool.Pool, rdb *redis.Client, catalog service.Catalog, store storage.StorageService, bus events.Bus, val *validator.Validator, cfg *config.Config, log *logger.Logger) *Module {
	repo := repository.New(pool)
	locker := sessionlock.NewLocker(rdb, cfg.GetSessionLockTTL(), log)
	svc := service.New(repo, catalog, locker, store, cfg.GetMinioBucketCustomerUploads(), bus, cfg.GetSessionTTL(), log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "orders"
}

// Service returns the service layer for the assistant tools and the
// scheduler.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts order routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	orders := ctx.Protected.Group("/orders")
	orders.POST("/session/image/upload-url", m.handler.CreateUploadURL)
	orders.POST("/session/image/confirm", m.handler.ConfirmImageUpload)
	orders.GET("/:reference", m.handler.GetOrder)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
