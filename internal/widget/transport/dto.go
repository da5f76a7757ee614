package transport

import "github.com/google/uuid"

// CreateSessionRequest opens a chat session for an embedded widget.
type CreateSessionRequest struct {
	TenantSlug string `json:"tenant_slug" validate:"required,max=100"`
	WidgetKey  string `json:"widget_key" validate:"required,max=200"`
}

// SessionResponse carries the chat token the widget uses on every
// subsequent call.
type SessionResponse struct {
	Token      string    `json:"token"`
	VisitorID  uuid.UUID `json:"visitor_id"`
	TenantName string    `json:"tenant_name"`
	ExpiresAt  string    `json:"expires_at"`
}
