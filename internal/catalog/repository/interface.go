package repository

import (
	"context"

	"github.com/google/uuid"
)

// Service represents an orderable service offered by a tenant.
type Service struct {
	ID          uuid.UUID `db:"id"`
	TenantID    uuid.UUID `db:"tenant_id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Price       *float64  `db:"price"`
	Active      bool      `db:"active"`
	Orderable   bool      `db:"orderable"`
	CreatedAt   string    `db:"created_at"`
	UpdatedAt   string    `db:"updated_at"`
}

// Repository provides read access to the tenant service catalog.
// Services are seeded out of band; the chat surface only reads them.
type Repository interface {
	// GetOrderable returns the service only when it is active, orderable,
	// and owned by the tenant.
	GetOrderable(ctx context.Context, tenantID, id uuid.UUID) (Service, error)
	// ListOrderable returns every active, orderable service of the tenant.
	ListOrderable(ctx context.Context, tenantID uuid.UUID) ([]Service, error)
}
