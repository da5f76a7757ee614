package transport

import "github.com/google/uuid"

// SearchRequest binds the search query parameters. An empty or too-short
// query is not a client error; the engine answers with zero snippets.
type SearchRequest struct {
	Query string `form:"q"`
	Limit int    `form:"limit"`
}

// Snippet is one search hit shaped for chat display. Content is plain
// text, trimmed for the widget.
type Snippet struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ArticleType string    `json:"articleType"`
	Category    string    `json:"category,omitempty"`
	Stale       bool      `json:"stale,omitempty"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Items []Snippet `json:"items"`
	Total int       `json:"total"`
}

// CategoryResponse represents a knowledge category for browsing.
type CategoryResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	DisplayOrder int       `json:"displayOrder"`
}

// CategoryListResponse wraps the tenant's categories.
type CategoryListResponse struct {
	Items []CategoryResponse `json:"items"`
	Total int                `json:"total"`
}

// ArticleSummary lists an article inside a category.
type ArticleSummary struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	ArticleType string    `json:"articleType"`
	Stale       bool      `json:"stale,omitempty"`
	UpdatedAt   string    `json:"updatedAt"`
}

// ArticleListResponse wraps a category's articles.
type ArticleListResponse struct {
	Items []ArticleSummary `json:"items"`
	Total int              `json:"total"`
}

// ArticleResponse is a full article read, body included.
type ArticleResponse struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	ArticleType    string    `json:"articleType"`
	Category       string    `json:"category,omitempty"`
	Locale         string    `json:"locale"`
	Tags           []string  `json:"tags,omitempty"`
	Stale          bool      `json:"stale"`
	LastReviewedAt *string   `json:"lastReviewedAt,omitempty"`
	UpdatedAt      string    `json:"updatedAt"`
}
