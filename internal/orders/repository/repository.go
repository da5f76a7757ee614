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

const (
	msgNoActiveSession = "No active service order session. Please select a service first."
	msgOrderNotFound   = "Order not found."
)

const sessionColumns = `
	s.id, s.tenant_id, s.visitor_id, s.service_id, COALESCE(sv.name, ''),
	s.customer_name, s.customer_age, s.customer_id_number, s.customer_phone,
	s.image_uploaded, s.image_verified, s.image_key, s.image_captured_at,
	s.created_at, s.updated_at, s.expires_at`

const orderColumns = `
	id, reference, tenant_id, visitor_id, service_id, service_name,
	customer_name, customer_age, customer_id_number, customer_phone,
	image_key, status, session_meta, confirmed_at, created_at`

type Repo struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

func (r *Repo) UpsertForService(ctx context.Context, tenantID, visitorID, serviceID uuid.UUID, expiresAt time.Time) (Session, error) {
	// A live row keeps its fields and deadline; an expired row is
	// recycled in place so the UNIQUE(tenant_id, visitor_id) slot is
	// reused without a delete round trip.
	query := `
		INSERT INTO order_sessions (tenant_id, visitor_id, service_id, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, visitor_id) DO UPDATE SET
			service_id         = EXCLUDED.service_id,
			customer_name      = CASE WHEN order_sessions.expires_at > NOW() THEN order_sessions.customer_name ELSE NULL END,
			customer_age       = CASE WHEN order_sessions.expires_at > NOW() THEN order_sessions.customer_age ELSE NULL END,
			customer_id_number = CASE WHEN order_sessions.expires_at > NOW() THEN order_sessions.customer_id_number ELSE NULL END,
			customer_phone     = CASE WHEN order_sessions.expires_at > NOW() THEN order_sessions.customer_phone ELSE NULL END,
			image_uploaded     = CASE WHEN order_sessions.expires_at > NOW() THEN order_sessions.image_uploaded ELSE FALSE END,
			image_verified     = CASE WHEN order_sessions.expires_at > NOW() THEN order_sessions.image_verified ELSE FALSE END,
			image_key          = CASE WHEN order_sessions.expires_at > NOW() THEN order_sessions.image_key ELSE NULL END,
			image_captured_at  = CASE WHEN order_sessions.expires_at > NOW() THEN order_sessions.image_captured_at ELSE NULL END,
			expires_at         = CASE WHEN order_sessions.expires_at > NOW() THEN order_sessions.expires_at ELSE EXCLUDED.expires_at END,
			updated_at         = NOW()
		RETURNING
			id, tenant_id, visitor_id, service_id,
			customer_name, customer_age, customer_id_number, customer_phone,
			image_uploaded, image_verified, image_key, image_captured_at,
			created_at, updated_at, expires_at`

	var s Session
	err := r.pool.QueryRow(ctx, query, tenantID, visitorID, serviceID, expiresAt).Scan(
		&s.ID, &s.TenantID, &s.VisitorID, &s.ServiceID,
		&s.CustomerName, &s.CustomerAge, &s.CustomerIDNumber, &s.CustomerPhone,
		&s.ImageUploaded, &s.ImageVerified, &s.ImageKey, &s.ImageCapturedAt,
		&s.CreatedAt, &s.UpdatedAt, &s.ExpiresAt,
	)
	if err != nil {
		return Session{}, fmt.Errorf("upsert session: %w", err)
	}
	return s, nil
}

func (r *Repo) GetLive(ctx context.Context, tenantID, visitorID uuid.UUID) (Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM order_sessions s
		LEFT JOIN services sv ON sv.id = s.service_id
		WHERE s.tenant_id = $1 AND s.visitor_id = $2 AND s.expires_at > NOW()`

	var s Session
	err := r.pool.QueryRow(ctx, query, tenantID, visitorID).Scan(
		&s.ID, &s.TenantID, &s.VisitorID, &s.ServiceID, &s.ServiceName,
		&s.CustomerName, &s.CustomerAge, &s.CustomerIDNumber, &s.CustomerPhone,
		&s.ImageUploaded, &s.ImageVerified, &s.ImageKey, &s.ImageCapturedAt,
		&s.CreatedAt, &s.UpdatedAt, &s.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, apperr.Gone(msgNoActiveSession)
		}
		return Session{}, fmt.Errorf("get live session: %w", err)
	}
	return s, nil
}

// setField updates a single column of a live session. Writing through
// this guard means an expired row can never absorb new customer data.
func (r *Repo) setField(ctx context.Context, tenantID, visitorID uuid.UUID, column string, value any) error {
	query := fmt.Sprintf(`
		UPDATE order_sessions
		SET %s = $3, updated_at = NOW()
		WHERE tenant_id = $1 AND visitor_id = $2 AND expires_at > NOW()`, column)

	tag, err := r.pool.Exec(ctx, query, tenantID, visitorID, value)
	if err != nil {
		return fmt.Errorf("update session %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Gone(msgNoActiveSession)
	}
	return nil
}

func (r *Repo) SetName(ctx context.Context, tenantID, visitorID uuid.UUID, name string) error {
	return r.setField(ctx, tenantID, visitorID, "customer_name", name)
}

func (r *Repo) SetAge(ctx context.Context, tenantID, visitorID uuid.UUID, age int) error {
	return r.setField(ctx, tenantID, visitorID, "customer_age", age)
}

func (r *Repo) SetIDNumber(ctx context.Context, tenantID, visitorID uuid.UUID, idNumber string) error {
	return r.setField(ctx, tenantID, visitorID, "customer_id_number", idNumber)
}

func (r *Repo) SetPhone(ctx context.Context, tenantID, visitorID uuid.UUID, phone string) error {
	return r.setField(ctx, tenantID, visitorID, "customer_phone", phone)
}

func (r *Repo) MarkImageUploaded(ctx context.Context, tenantID, visitorID uuid.UUID, fileKey *string) error {
	query := `
		UPDATE order_sessions
		SET image_uploaded = TRUE,
		    image_key = COALESCE($3, image_key),
		    updated_at = NOW()
		WHERE tenant_id = $1 AND visitor_id = $2 AND expires_at > NOW()`

	tag, err := r.pool.Exec(ctx, query, tenantID, visitorID, fileKey)
	if err != nil {
		return fmt.Errorf("mark image uploaded: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Gone(msgNoActiveSession)
	}
	return nil
}

func (r *Repo) MarkImageVerified(ctx context.Context, tenantID, visitorID uuid.UUID, capturedAt *time.Time) error {
	query := `
		UPDATE order_sessions
		SET image_verified = TRUE,
		    image_captured_at = COALESCE($3, image_captured_at),
		    updated_at = NOW()
		WHERE tenant_id = $1 AND visitor_id = $2 AND expires_at > NOW()`

	tag, err := r.pool.Exec(ctx, query, tenantID, visitorID, capturedAt)
	if err != nil {
		return fmt.Errorf("mark image verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Gone(msgNoActiveSession)
	}
	return nil
}

func (r *Repo) CreateOrderAndClearSession(ctx context.Context, order Order, sessionID uuid.UUID) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin finalize tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (
			id, reference, tenant_id, visitor_id, service_id, service_name,
			customer_name, customer_age, customer_id_number, customer_phone,
			image_key, status, session_meta, confirmed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		order.ID, order.Reference, order.TenantID, order.VisitorID, order.ServiceID, order.ServiceName,
		order.CustomerName, order.CustomerAge, order.CustomerIDNumber, order.CustomerPhone,
		order.ImageKey, order.Status, order.SessionMeta, order.ConfirmedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM order_sessions WHERE id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit finalize tx: %w", err)
	}
	return nil
}

func (r *Repo) GetLatestOrder(ctx context.Context, tenantID, visitorID uuid.UUID) (Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE tenant_id = $1 AND visitor_id = $2
		ORDER BY created_at DESC
		LIMIT 1`

	return r.scanOrder(r.pool.QueryRow(ctx, query, tenantID, visitorID))
}

func (r *Repo) GetOrderByReference(ctx context.Context, tenantID, visitorID uuid.UUID, reference string) (Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE tenant_id = $1 AND visitor_id = $2 AND reference = $3`

	return r.scanOrder(r.pool.QueryRow(ctx, query, tenantID, visitorID, reference))
}

func (r *Repo) scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.Reference, &o.TenantID, &o.VisitorID, &o.ServiceID, &o.ServiceName,
		&o.CustomerName, &o.CustomerAge, &o.CustomerIDNumber, &o.CustomerPhone,
		&o.ImageKey, &o.Status, &o.SessionMeta, &o.ConfirmedAt, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, apperr.NotFound(msgOrderNotFound)
		}
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (r *Repo) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM order_sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
