package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"concierge_backend/internal/adapters/storage"
	"concierge_backend/internal/assistant"
	"concierge_backend/internal/catalog"
	"concierge_backend/internal/email"
	"concierge_backend/internal/events"
	apphttp "concierge_backend/internal/http"
	"concierge_backend/internal/http/router"
	"concierge_backend/internal/knowledge"
	"concierge_backend/internal/notification"
	"concierge_backend/internal/orders"
	"concierge_backend/internal/orders/sessionlock"
	"concierge_backend/internal/widget"
	"concierge_backend/migrations"
	"concierge_backend/platform/config"
	"concierge_backend/platform/db"
	"concierge_backend/platform/logger"
	"concierge_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS, migrations.Dir)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Redis backs the per-visitor session lock
	rdb, err := sessionlock.NewClient(cfg)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}
	defer func() { _ = rdb.Close() }()

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// Storage service for customer image uploads (MinIO)
	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	if err := withRetry(ctx, log, "ensure customer-uploads bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, cfg.GetMinioBucketCustomerUploads())
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetMinioBucketCustomerUploads())
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "customerUploadsBucket", cfg.GetMinioBucketCustomerUploads())

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	widgetModule := widget.NewModule(pool, val, cfg, log)
	knowledgeModule := knowledge.NewModule(pool, log)
	catalogModule := catalog.NewModule(pool, log)
	ordersModule := orders.NewModule(pool, rdb, catalogModule.Service(), storageSvc, eventBus, val, cfg, log)

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.NewModule(sender, storageSvc, cfg.GetMinioBucketCustomerUploads(), widgetModule.Service(), cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	modules := []apphttp.Module{
		widgetModule,
		knowledgeModule,
		catalogModule,
		ordersModule,
	}

	if cfg.IsAssistantEnabled() {
		assistantModule, err := assistant.NewModule(knowledgeModule.Service(), catalogModule.Service(), ordersModule.Service(), val, cfg, log)
		if err != nil {
			log.Error("failed to initialize assistant module", "error", err)
			panic("failed to initialize assistant module: " + err.Error())
		}
		modules = append(modules, assistantModule)
	} else {
		log.Warn("ASSISTANT_API_KEY not configured; assistant chat disabled")
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules:  modules,
	}

	engine := router.New(app)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: engine,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
