// Package service implements the layered knowledge retrieval engine:
// sanitize, resolve search terms (intent table, keyword extraction, broad
// fallback), then execute the tiered article queries and log the call.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"concierge_backend/internal/knowledge/repository"
	"concierge_backend/internal/knowledge/transport"
	"concierge_backend/platform/apperr"
	"concierge_backend/platform/logger"
	"concierge_backend/platform/sanitize"
)

// Strategy names recorded in logs for retrieval tuning.
const (
	strategyIntent   = "intent"
	strategyKeywords = "keywords"
	strategyFallback = "fallback"
	strategyRejected = "rejected"
)

const (
	minSearchLimit  = 1
	maxSearchLimit  = 50
	maxSnippetRunes = 500

	// staleAfter marks articles whose last review is older than this.
	// Stale articles still appear in search; the flag is for curators.
	staleAfter = 180 * 24 * time.Hour
)

// ClientMeta carries request context into the search log.
type ClientMeta struct {
	UserAgent string
	IP        string
}

// Service implements the retrieval engine over the article repository.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new knowledge service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Search answers a free-text question with ranked knowledge snippets.
// Strategies run in order; the first one yielding articles wins. Every
// call appends exactly one search_log row, including rejected and empty
// searches, and a log write failure never fails the search itself.
func (s *Service) Search(ctx context.Context, tenantID uuid.UUID, rawQuery string, limit int, meta ClientMeta) ([]transport.Snippet, error) {
	if limit < minSearchLimit {
		limit = minSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	start := time.Now()

	cleaned, ok := sanitize.CleanSearchQuery(rawQuery)
	if !ok {
		s.appendLog(ctx, tenantID, rawQuery, 0, meta)
		s.log.KnowledgeSearch(tenantID.String(), strategyRejected, 0, elapsedMs(start))
		return []transport.Snippet{}, nil
	}

	terms, strategy := resolveTerms(cleaned)

	articles, err := s.runTiers(ctx, tenantID, terms, strategy == strategyFallback)
	if err != nil {
		s.appendLog(ctx, tenantID, rawQuery, 0, meta)
		appErr := apperr.Internal("search failed").WithOp("knowledge.Search")
		appErr.Err = err
		return nil, appErr
	}

	articles = dedupeByID(articles)
	if len(articles) > limit {
		articles = articles[:limit]
	}

	snippets := make([]transport.Snippet, 0, len(articles))
	for _, a := range articles {
		snippets = append(snippets, toSnippet(a))
	}

	s.appendLog(ctx, tenantID, rawQuery, len(snippets), meta)
	s.log.KnowledgeSearch(tenantID.String(), strategy, len(snippets), elapsedMs(start))

	return snippets, nil
}

// resolveTerms picks the term set and names the strategy that produced it.
func resolveTerms(cleaned string) ([]string, string) {
	folded := strings.ToLower(cleaned)

	if terms, ok := matchIntent(folded); ok {
		return terms, strategyIntent
	}
	if keywords := extractKeywords(folded); len(keywords) > 0 {
		return keywords, strategyKeywords
	}
	return []string{cleaned}, strategyFallback
}

// runTiers executes the three-tier query ladder: title matches first, then
// the curated FAQ category, then everything. Later tiers exclude earlier
// ids so concatenation preserves tier precedence.
func (s *Service) runTiers(ctx context.Context, tenantID uuid.UUID, terms []string, matchCategoryName bool) ([]repository.Article, error) {
	patterns := likePatterns(terms)

	tier1, err := s.repo.SearchTitle(ctx, tenantID, patterns)
	if err != nil {
		return nil, err
	}

	seen := articleIDs(tier1)
	tier2, err := s.repo.SearchFAQ(ctx, tenantID, patterns, seen)
	if err != nil {
		return nil, err
	}

	seen = append(seen, articleIDs(tier2)...)
	tier3, err := s.repo.SearchBroad(ctx, tenantID, patterns, seen, matchCategoryName)
	if err != nil {
		return nil, err
	}

	combined := make([]repository.Article, 0, len(tier1)+len(tier2)+len(tier3))
	combined = append(combined, tier1...)
	combined = append(combined, tier2...)
	combined = append(combined, tier3...)

	return combined, nil
}

// appendLog records the call in the search log. Failures are logged and
// swallowed: analytics must never break retrieval.
func (s *Service) appendLog(ctx context.Context, tenantID uuid.UUID, rawQuery string, count int, meta ClientMeta) {
	query := rawQuery
	if runes := []rune(query); len(runes) > sanitize.MaxQueryLength {
		query = string(runes[:sanitize.MaxQueryLength])
	}

	entry := repository.SearchLogEntry{
		TenantID:    tenantID,
		Query:       query,
		ResultCount: count,
		UserAgent:   meta.UserAgent,
		IP:          meta.IP,
	}
	if err := s.repo.InsertSearchLog(ctx, entry); err != nil {
		s.log.Error("search log append failed", "tenantId", tenantID, "error", err)
	}
}

// ListCategories returns the tenant's active categories for browsing.
func (s *Service) ListCategories(ctx context.Context, tenantID uuid.UUID) (transport.CategoryListResponse, error) {
	categories, err := s.repo.ListCategories(ctx, tenantID)
	if err != nil {
		return transport.CategoryListResponse{}, err
	}

	items := make([]transport.CategoryResponse, 0, len(categories))
	for _, cat := range categories {
		items = append(items, transport.CategoryResponse{
			ID:           cat.ID,
			Name:         cat.Name,
			Description:  cat.Description,
			DisplayOrder: cat.DisplayOrder,
		})
	}

	return transport.CategoryListResponse{Items: items, Total: len(items)}, nil
}

// ListCategoryArticles returns the published articles of one category.
func (s *Service) ListCategoryArticles(ctx context.Context, tenantID, categoryID uuid.UUID) (transport.ArticleListResponse, error) {
	articles, err := s.repo.ListCategoryArticles(ctx, tenantID, categoryID)
	if err != nil {
		return transport.ArticleListResponse{}, err
	}

	items := make([]transport.ArticleSummary, 0, len(articles))
	for _, a := range articles {
		items = append(items, transport.ArticleSummary{
			ID:          a.ID,
			Title:       a.Title,
			ArticleType: a.ArticleType,
			Stale:       isStale(a.LastReviewedAt),
			UpdatedAt:   a.UpdatedAt.Format(time.RFC3339),
		})
	}

	return transport.ArticleListResponse{Items: items, Total: len(items)}, nil
}

// GetArticle returns one published article with its staleness flag.
func (s *Service) GetArticle(ctx context.Context, tenantID, id uuid.UUID) (transport.ArticleResponse, error) {
	a, err := s.repo.GetArticle(ctx, tenantID, id)
	if err != nil {
		return transport.ArticleResponse{}, err
	}

	resp := transport.ArticleResponse{
		ID:          a.ID,
		Title:       a.Title,
		Body:        a.Body,
		ArticleType: a.ArticleType,
		Category:    a.CategoryName,
		Locale:      a.Locale,
		Tags:        a.Tags,
		Stale:       isStale(a.LastReviewedAt),
		UpdatedAt:   a.UpdatedAt.Format(time.RFC3339),
	}
	if a.LastReviewedAt != nil {
		reviewed := a.LastReviewedAt.Format(time.RFC3339)
		resp.LastReviewedAt = &reviewed
	}

	return resp, nil
}

// LogSearchMissDigest aggregates zero-result queries per tenant over the
// window and writes one info line per tenant for content curators. Tenants
// are processed concurrently; one failing tenant fails the digest run so
// the scheduler retries it.
func (s *Service) LogSearchMissDigest(ctx context.Context, window time.Duration) error {
	since := time.Now().Add(-window)

	tenantIDs, err := s.repo.TenantsWithMisses(ctx, since)
	if err != nil {
		return err
	}
	if len(tenantIDs) == 0 {
		s.log.Info("search miss digest: no unanswered queries", "window", window.String())
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, tenantID := range tenantIDs {
		tenantID := tenantID
		g.Go(func() error {
			summaries, err := s.repo.MissSummaries(gctx, tenantID, since)
			if err != nil {
				return err
			}
			for _, ms := range summaries {
				s.log.Info("unanswered search query",
					"tenantId", tenantID,
					"query", ms.Query,
					"occurrences", ms.Occurrences,
					"lastSeen", ms.LastSeen.Format(time.RFC3339),
				)
			}
			return nil
		})
	}

	return g.Wait()
}

// likePatterns wraps each term for substring ILIKE matching, escaping the
// LIKE metacharacters so user text is matched literally.
func likePatterns(terms []string) []string {
	patterns := make([]string, 0, len(terms))
	for _, term := range terms {
		patterns = append(patterns, "%"+escapeLike(term)+"%")
	}
	return patterns
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// dedupeByID keeps the first occurrence of each article id.
func dedupeByID(articles []repository.Article) []repository.Article {
	seen := make(map[uuid.UUID]struct{}, len(articles))
	result := articles[:0]
	for _, a := range articles {
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}
		result = append(result, a)
	}
	return result
}

func articleIDs(articles []repository.Article) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(articles))
	for _, a := range articles {
		ids = append(ids, a.ID)
	}
	return ids
}

func toSnippet(a repository.Article) transport.Snippet {
	return transport.Snippet{
		ID:          a.ID,
		Title:       a.Title,
		Content:     snippetText(htmlToText(a.Body), maxSnippetRunes),
		ArticleType: a.ArticleType,
		Category:    a.CategoryName,
		Stale:       isStale(a.LastReviewedAt),
	}
}

func isStale(lastReviewedAt *time.Time) bool {
	if lastReviewedAt == nil {
		return false
	}
	return time.Since(*lastReviewedAt) > staleAfter
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
