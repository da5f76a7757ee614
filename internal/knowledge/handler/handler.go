package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"concierge_backend/internal/knowledge/service"
	"concierge_backend/internal/knowledge/transport"
	"concierge_backend/platform/httpkit"
)

// Handler handles HTTP requests for the knowledge base.
type Handler struct {
	svc *service.Service
}

const (
	msgInvalidRequest    = "invalid request"
	msgInvalidCategoryID = "invalid category ID"
	msgInvalidArticleID  = "invalid article ID"
)

// New creates a new knowledge handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Search answers a free-text question with knowledge snippets.
// GET /api/v1/knowledge/search?q=...&limit=...
func (h *Handler) Search(c *gin.Context) {
	var req transport.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	meta := service.ClientMeta{
		UserAgent: c.Request.UserAgent(),
		IP:        c.ClientIP(),
	}

	snippets, err := h.svc.Search(c.Request.Context(), identity.TenantID(), req.Query, req.Limit, meta)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.SearchResponse{Items: snippets, Total: len(snippets)})
}

// ListCategories retrieves the tenant's categories for browsing.
// GET /api/v1/knowledge/categories
func (h *Handler) ListCategories(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ListCategories(c.Request.Context(), identity.TenantID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListCategoryArticles retrieves the published articles of a category.
// GET /api/v1/knowledge/categories/:id/articles
func (h *Handler) ListCategoryArticles(c *gin.Context) {
	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidCategoryID, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ListCategoryArticles(c.Request.Context(), identity.TenantID(), categoryID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetArticle retrieves a single published article.
// GET /api/v1/knowledge/articles/:id
func (h *Handler) GetArticle(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidArticleID, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.GetArticle(c.Request.Context(), identity.TenantID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
