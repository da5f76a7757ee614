package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tenant is a business using the chat widget. The widget key hash is
// bcrypt; the plaintext key lives only in the tenant's embed snippet.
type Tenant struct {
	ID            uuid.UUID `db:"id"`
	Name          string    `db:"name"`
	Slug          string    `db:"slug"`
	WidgetKeyHash string    `db:"widget_key_hash"`
	OpsEmail      string    `db:"ops_email"`
	Active        bool      `db:"active"`
	CreatedAt     time.Time `db:"created_at"`
}

// Repository provides read access to tenants. Tenant provisioning is
// an out-of-band concern.
type Repository interface {
	GetBySlug(ctx context.Context, slug string) (Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (Tenant, error)
}
