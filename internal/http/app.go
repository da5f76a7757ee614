// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"concierge_backend/internal/events"
	"concierge_backend/platform/config"
	"concierge_backend/platform/logger"
)

// RouterConfig is the slice of configuration the router needs: the
// listen address and CORS rules plus the secret for chat token checks.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the router configuration (HTTP and JWT settings only).
	Config RouterConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health answers the readiness probe, normally with a database ping.
	Health HealthChecker
	// EventBus carries domain events between modules in process.
	EventBus events.Bus
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
