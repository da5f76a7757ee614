// Package events re-exports the platform event bus for convenience.
// Modules import their event types and the bus from one place while
// the implementation stays in platform/events.
package events

import (
	platformevents "concierge_backend/platform/events"
	"concierge_backend/platform/logger"
)

// InMemoryBus aliases the platform implementation.
type InMemoryBus = platformevents.InMemoryBus

// NewInMemoryBus creates the process-local bus both binaries wire at
// startup.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}
