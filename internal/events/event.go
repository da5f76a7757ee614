// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"concierge_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Orders Domain Events
// =============================================================================

// OrderConfirmed is published after a service order has been committed and
// its collection session deleted. Subscribers run after the fact; nothing
// they do can affect the order itself.
type OrderConfirmed struct {
	BaseEvent
	OrderID          uuid.UUID  `json:"orderId"`
	Reference        string     `json:"reference"`
	TenantID         uuid.UUID  `json:"tenantId"`
	VisitorID        uuid.UUID  `json:"visitorId"`
	ServiceName      string     `json:"serviceName"`
	CustomerName     string     `json:"customerName"`
	CustomerPhone    string     `json:"customerPhone"`
	CustomerIDNumber string     `json:"customerIdNumber"`
	ImageKey         *string    `json:"imageKey,omitempty"`
	ConfirmedAt      time.Time  `json:"confirmedAt"`
	ImageCapturedAt  *time.Time `json:"imageCapturedAt,omitempty"`
}

func (e OrderConfirmed) EventName() string { return "orders.order.confirmed" }

// SessionsSwept is published by the scheduler after reclaiming abandoned
// collection sessions. Carries only a count; individual rows are gone.
type SessionsSwept struct {
	BaseEvent
	Count int `json:"count"`
}

func (e SessionsSwept) EventName() string { return "orders.sessions.swept" }
