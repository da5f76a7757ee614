package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Article is a knowledge base entry as stored, with the category name
// joined in for snippet display.
type Article struct {
	ID             uuid.UUID  `db:"id"`
	TenantID       uuid.UUID  `db:"tenant_id"`
	CategoryID     *uuid.UUID `db:"category_id"`
	Title          string     `db:"title"`
	Body           string     `db:"body"`
	Keywords       string     `db:"keywords"`
	Tags           []string   `db:"tags"`
	Locale         string     `db:"locale"`
	ArticleType    string     `db:"article_type"`
	Active         bool       `db:"active"`
	Published      bool       `db:"published"`
	DisplayOrder   int        `db:"display_order"`
	LastReviewedAt *time.Time `db:"last_reviewed_at"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	CategoryName   string     `db:"category_name"`
}

// Category groups articles for browsing and marks the curated FAQ set.
type Category struct {
	ID           uuid.UUID `db:"id"`
	TenantID     uuid.UUID `db:"tenant_id"`
	Name         string    `db:"name"`
	Description  string    `db:"description"`
	DisplayOrder int       `db:"display_order"`
	Active       bool      `db:"active"`
	CreatedAt    time.Time `db:"created_at"`
}

// SearchLogEntry is one appended row per search call, successful or not.
type SearchLogEntry struct {
	TenantID    uuid.UUID
	Query       string
	ResultCount int
	UserAgent   string
	IP          string
}

// MissSummary aggregates zero-result queries for the curation digest.
type MissSummary struct {
	Query       string
	Occurrences int
	LastSeen    time.Time
}

// Repository provides article retrieval, category browsing, and the
// append-only search log.
type Repository interface {
	// SearchTitle returns live articles whose title matches any pattern.
	SearchTitle(ctx context.Context, tenantID uuid.UUID, patterns []string) ([]Article, error)
	// SearchFAQ returns live articles in the curated FAQ category matching
	// any pattern in title, body, or keywords, excluding the given ids.
	SearchFAQ(ctx context.Context, tenantID uuid.UUID, patterns []string, excludeIDs []uuid.UUID) ([]Article, error)
	// SearchBroad returns live articles of any category matching any
	// pattern in title, body, or keywords, excluding the given ids.
	// When includeCategoryName is set, the category name is matched too.
	SearchBroad(ctx context.Context, tenantID uuid.UUID, patterns []string, excludeIDs []uuid.UUID, includeCategoryName bool) ([]Article, error)

	ListCategories(ctx context.Context, tenantID uuid.UUID) ([]Category, error)
	ListCategoryArticles(ctx context.Context, tenantID, categoryID uuid.UUID) ([]Article, error)
	GetArticle(ctx context.Context, tenantID, id uuid.UUID) (Article, error)

	InsertSearchLog(ctx context.Context, entry SearchLogEntry) error
	// TenantsWithMisses lists tenants that logged zero-result queries since
	// the given time.
	TenantsWithMisses(ctx context.Context, since time.Time) ([]uuid.UUID, error)
	MissSummaries(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]MissSummary, error)
}
