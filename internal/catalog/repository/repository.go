package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"concierge_backend/platform/apperr"
)

const serviceNotFoundMessage = "service not found or not orderable"

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new catalog repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetOrderable retrieves a service that is active, orderable, and owned by
// the tenant. Anything else is NotFound; callers never learn whether the id
// exists for another tenant.
func (r *Repo) GetOrderable(ctx context.Context, tenantID, id uuid.UUID) (Service, error) {
	query := `
		SELECT id, tenant_id, name, description, price, active, orderable, created_at, updated_at
		FROM services
		WHERE id = $1 AND tenant_id = $2 AND active = true AND orderable = true`

	var svc Service
	var createdAt, updatedAt time.Time

	err := r.pool.QueryRow(ctx, query, id, tenantID).Scan(
		&svc.ID, &svc.TenantID, &svc.Name, &svc.Description, &svc.Price,
		&svc.Active, &svc.Orderable, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Service{}, apperr.NotFound(serviceNotFoundMessage)
		}
		return Service{}, fmt.Errorf("get orderable service: %w", err)
	}

	svc.CreatedAt = createdAt.Format(time.RFC3339)
	svc.UpdatedAt = updatedAt.Format(time.RFC3339)

	return svc, nil
}

// ListOrderable retrieves the tenant's active, orderable services ordered by name.
func (r *Repo) ListOrderable(ctx context.Context, tenantID uuid.UUID) ([]Service, error) {
	query := `
		SELECT id, tenant_id, name, description, price, active, orderable, created_at, updated_at
		FROM services
		WHERE tenant_id = $1 AND active = true AND orderable = true
		ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list orderable services: %w", err)
	}
	defer rows.Close()

	var results []Service
	for rows.Next() {
		var svc Service
		var createdAt, updatedAt time.Time

		err := rows.Scan(
			&svc.ID, &svc.TenantID, &svc.Name, &svc.Description, &svc.Price,
			&svc.Active, &svc.Orderable, &createdAt, &updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}

		svc.CreatedAt = createdAt.Format(time.RFC3339)
		svc.UpdatedAt = updatedAt.Format(time.RFC3339)

		results = append(results, svc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate services: %w", err)
	}

	return results, nil
}
