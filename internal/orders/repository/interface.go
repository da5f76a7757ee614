package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Order status lifecycle. Only StatusUnderReview is assigned here;
// later transitions belong to the back-office.
const (
	StatusUnderReview = "under_review"
	StatusApproved    = "approved"
	StatusInProgress  = "in_progress"
	StatusCompleted   = "completed"
	StatusCancelled   = "cancelled"
)

// Session is one visitor's in-progress data collection run. At most
// one row exists per (tenant_id, visitor_id); the row is live while
// expires_at lies in the future.
type Session struct {
	ID               uuid.UUID  `db:"id"`
	TenantID         uuid.UUID  `db:"tenant_id"`
	VisitorID        uuid.UUID  `db:"visitor_id"`
	ServiceID        *uuid.UUID `db:"service_id"`
	ServiceName      string     `db:"service_name"`
	CustomerName     *string    `db:"customer_name"`
	CustomerAge      *int       `db:"customer_age"`
	CustomerIDNumber *string    `db:"customer_id_number"`
	CustomerPhone    *string    `db:"customer_phone"`
	ImageUploaded    bool       `db:"image_uploaded"`
	ImageVerified    bool       `db:"image_verified"`
	ImageKey         *string    `db:"image_key"`
	ImageCapturedAt  *time.Time `db:"image_captured_at"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
	ExpiresAt        time.Time  `db:"expires_at"`
}

// Order is a confirmed service order. Rows are immutable here; status
// transitions happen elsewhere.
type Order struct {
	ID               uuid.UUID  `db:"id"`
	Reference        string     `db:"reference"`
	TenantID         uuid.UUID  `db:"tenant_id"`
	VisitorID        uuid.UUID  `db:"visitor_id"`
	ServiceID        *uuid.UUID `db:"service_id"`
	ServiceName      string     `db:"service_name"`
	CustomerName     string     `db:"customer_name"`
	CustomerAge      int        `db:"customer_age"`
	CustomerIDNumber string     `db:"customer_id_number"`
	CustomerPhone    string     `db:"customer_phone"`
	ImageKey         *string    `db:"image_key"`
	Status           string     `db:"status"`
	SessionMeta      []byte     `db:"session_meta"`
	ConfirmedAt      time.Time  `db:"confirmed_at"`
	CreatedAt        time.Time  `db:"created_at"`
}

// Repository defines data access for collection sessions and orders.
type Repository interface {
	// UpsertForService starts or re-targets the visitor's session. A
	// live row keeps its collected fields and deadline and only swaps
	// the service; an expired row is recycled in place with all fields
	// cleared and the new deadline.
	UpsertForService(ctx context.Context, tenantID, visitorID, serviceID uuid.UUID, expiresAt time.Time) (Session, error)

	// GetLive returns the visitor's session when it exists and has not
	// expired.
	GetLive(ctx context.Context, tenantID, visitorID uuid.UUID) (Session, error)

	SetName(ctx context.Context, tenantID, visitorID uuid.UUID, name string) error
	SetAge(ctx context.Context, tenantID, visitorID uuid.UUID, age int) error
	SetIDNumber(ctx context.Context, tenantID, visitorID uuid.UUID, idNumber string) error
	SetPhone(ctx context.Context, tenantID, visitorID uuid.UUID, phone string) error
	MarkImageUploaded(ctx context.Context, tenantID, visitorID uuid.UUID, fileKey *string) error
	MarkImageVerified(ctx context.Context, tenantID, visitorID uuid.UUID, capturedAt *time.Time) error

	// CreateOrderAndClearSession inserts the order and deletes the
	// session row in one transaction.
	CreateOrderAndClearSession(ctx context.Context, order Order, sessionID uuid.UUID) error

	GetLatestOrder(ctx context.Context, tenantID, visitorID uuid.UUID) (Order, error)
	GetOrderByReference(ctx context.Context, tenantID, visitorID uuid.UUID, reference string) (Order, error)

	// DeleteExpired removes sessions past their deadline and reports
	// how many rows were reclaimed.
	DeleteExpired(ctx context.Context) (int64, error)
}
