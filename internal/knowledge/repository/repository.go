package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"concierge_backend/platform/apperr"
)

const articleNotFoundMessage = "article not found"

// articleColumns is the shared select list; every article query joins the
// category so snippets can carry its name.
const articleColumns = `
	a.id, a.tenant_id, a.category_id, a.title, a.body, a.keywords, a.tags,
	a.locale, a.article_type, a.active, a.published, a.display_order,
	a.last_reviewed_at, a.created_at, a.updated_at, COALESCE(c.name, '')`

const articleFrom = `
	FROM knowledge_articles a
	LEFT JOIN knowledge_categories c ON c.id = a.category_id`

// Ordering is part of the search contract: identical inputs must produce
// identical output order.
const articleOrder = ` ORDER BY a.display_order ASC, a.created_at ASC, a.id ASC`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new knowledge repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// SearchTitle retrieves live articles whose title matches any pattern.
func (r *Repo) SearchTitle(ctx context.Context, tenantID uuid.UUID, patterns []string) ([]Article, error) {
	query := `SELECT` + articleColumns + articleFrom + `
		WHERE a.tenant_id = $1 AND a.active = true AND a.published = true
			AND a.title ILIKE ANY($2)` + articleOrder

	rows, err := r.pool.Query(ctx, query, tenantID, patterns)
	if err != nil {
		return nil, fmt.Errorf("search title: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// SearchFAQ retrieves live articles from the curated FAQ category matching
// any pattern in title, body, or keywords.
func (r *Repo) SearchFAQ(ctx context.Context, tenantID uuid.UUID, patterns []string, excludeIDs []uuid.UUID) ([]Article, error) {
	if excludeIDs == nil {
		excludeIDs = []uuid.UUID{}
	}

	query := `SELECT` + articleColumns + articleFrom + `
		WHERE a.tenant_id = $1 AND a.active = true AND a.published = true
			AND LOWER(c.name) = 'faq'
			AND NOT (a.id = ANY($3))
			AND (a.title ILIKE ANY($2) OR a.body ILIKE ANY($2) OR a.keywords ILIKE ANY($2))` +
		articleOrder

	rows, err := r.pool.Query(ctx, query, tenantID, patterns, excludeIDs)
	if err != nil {
		return nil, fmt.Errorf("search faq: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// SearchBroad retrieves live articles of any category matching any pattern.
func (r *Repo) SearchBroad(ctx context.Context, tenantID uuid.UUID, patterns []string, excludeIDs []uuid.UUID, includeCategoryName bool) ([]Article, error) {
	if excludeIDs == nil {
		excludeIDs = []uuid.UUID{}
	}

	match := `(a.title ILIKE ANY($2) OR a.body ILIKE ANY($2) OR a.keywords ILIKE ANY($2))`
	if includeCategoryName {
		match = `(a.title ILIKE ANY($2) OR a.body ILIKE ANY($2) OR a.keywords ILIKE ANY($2) OR c.name ILIKE ANY($2))`
	}

	query := `SELECT` + articleColumns + articleFrom + `
		WHERE a.tenant_id = $1 AND a.active = true AND a.published = true
			AND NOT (a.id = ANY($3))
			AND ` + match + articleOrder

	rows, err := r.pool.Query(ctx, query, tenantID, patterns, excludeIDs)
	if err != nil {
		return nil, fmt.Errorf("search broad: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// ListCategories retrieves the tenant's active categories for browsing.
func (r *Repo) ListCategories(ctx context.Context, tenantID uuid.UUID) ([]Category, error) {
	query := `
		SELECT id, tenant_id, name, description, display_order, active, created_at
		FROM knowledge_categories
		WHERE tenant_id = $1 AND active = true
		ORDER BY display_order ASC, name ASC`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var results []Category
	for rows.Next() {
		var cat Category
		if err := rows.Scan(&cat.ID, &cat.TenantID, &cat.Name, &cat.Description, &cat.DisplayOrder, &cat.Active, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		results = append(results, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return results, nil
}

// ListCategoryArticles retrieves live articles in a category.
func (r *Repo) ListCategoryArticles(ctx context.Context, tenantID, categoryID uuid.UUID) ([]Article, error) {
	query := `SELECT` + articleColumns + articleFrom + `
		WHERE a.tenant_id = $1 AND a.category_id = $2
			AND a.active = true AND a.published = true` + articleOrder

	rows, err := r.pool.Query(ctx, query, tenantID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list category articles: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// GetArticle retrieves one live article by id.
func (r *Repo) GetArticle(ctx context.Context, tenantID, id uuid.UUID) (Article, error) {
	query := `SELECT` + articleColumns + articleFrom + `
		WHERE a.id = $1 AND a.tenant_id = $2
			AND a.active = true AND a.published = true`

	rows, err := r.pool.Query(ctx, query, id, tenantID)
	if err != nil {
		return Article{}, fmt.Errorf("get article: %w", err)
	}
	defer rows.Close()

	articles, err := scanArticles(rows)
	if err != nil {
		return Article{}, err
	}
	if len(articles) == 0 {
		return Article{}, apperr.NotFound(articleNotFoundMessage)
	}

	return articles[0], nil
}

// InsertSearchLog appends one row to the search log.
func (r *Repo) InsertSearchLog(ctx context.Context, entry SearchLogEntry) error {
	query := `
		INSERT INTO search_log (tenant_id, query, result_count, user_agent, ip)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query, entry.TenantID, entry.Query, entry.ResultCount, entry.UserAgent, entry.IP)
	if err != nil {
		return fmt.Errorf("insert search log: %w", err)
	}
	return nil
}

// TenantsWithMisses lists tenants that logged zero-result searches since
// the given time.
func (r *Repo) TenantsWithMisses(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT tenant_id
		FROM search_log
		WHERE result_count = 0 AND created_at >= $1`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("tenants with misses: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan tenant id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenant ids: %w", err)
	}

	return ids, nil
}

// MissSummaries aggregates a tenant's zero-result queries since the given
// time, most frequent first.
func (r *Repo) MissSummaries(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]MissSummary, error) {
	query := `
		SELECT query, COUNT(*) AS occurrences, MAX(created_at) AS last_seen
		FROM search_log
		WHERE tenant_id = $1 AND result_count = 0 AND created_at >= $2
		GROUP BY query
		ORDER BY occurrences DESC, last_seen DESC
		LIMIT 50`

	rows, err := r.pool.Query(ctx, query, tenantID, since)
	if err != nil {
		return nil, fmt.Errorf("miss summaries: %w", err)
	}
	defer rows.Close()

	var results []MissSummary
	for rows.Next() {
		var ms MissSummary
		if err := rows.Scan(&ms.Query, &ms.Occurrences, &ms.LastSeen); err != nil {
			return nil, fmt.Errorf("scan miss summary: %w", err)
		}
		results = append(results, ms)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate miss summaries: %w", err)
	}

	return results, nil
}

// scanArticles is a helper to scan multiple rows into an Article slice.
func scanArticles(rows pgx.Rows) ([]Article, error) {
	var results []Article

	for rows.Next() {
		var a Article
		err := rows.Scan(
			&a.ID, &a.TenantID, &a.CategoryID, &a.Title, &a.Body, &a.Keywords, &a.Tags,
			&a.Locale, &a.ArticleType, &a.Active, &a.Published, &a.DisplayOrder,
			&a.LastReviewedAt, &a.CreatedAt, &a.UpdatedAt, &a.CategoryName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		results = append(results, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}

	return results, nil
}
