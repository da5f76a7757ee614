package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"concierge_backend/platform/apperr"
)

const msgTenantNotFound = "tenant not found"

const tenantColumns = `id, name, slug, widget_key_hash, COALESCE(ops_email, ''), active, created_at`

type Repo struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

func (r *Repo) GetBySlug(ctx context.Context, slug string) (Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE slug = $1`
	return r.scanTenant(r.pool.QueryRow(ctx, query, slug))
}

func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	return r.scanTenant(r.pool.QueryRow(ctx, query, id))
}

func (r *Repo) scanTenant(row pgx.Row) (Tenant, error) {
	var t Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.WidgetKeyHash, &t.OpsEmail, &t.Active, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tenant{}, apperr.NotFound(msgTenantNotFound)
		}
		return Tenant{}, fmt.Errorf("get tenant: %w", err)
	}
	return t, nil
}
