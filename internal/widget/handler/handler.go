package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"concierge_backend/internal/widget/service"
	"concierge_backend/internal/widget/transport"
	"concierge_backend/platform/httpkit"
	"concierge_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request payload"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// CreateSession exchanges tenant credentials for a chat token.
// POST /api/v1/widget/session
func (h *Handler) CreateSession(c *gin.Context) {
	var req transport.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.CreateSession(c.Request.Context(), req.TenantSlug, req.WidgetKey)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}
