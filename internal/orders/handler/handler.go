package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"concierge_backend/internal/orders/service"
	"concierge_backend/internal/orders/transport"
	"concierge_backend/platform/httpkit"
	"concierge_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request payload"
	msgValidationFailed = "validation failed"
)

// Handler exposes the widget-facing order endpoints: the two-phase
// image upload and the order status read. Field collection itself goes
// through the conversation, not HTTP.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// CreateUploadURL hands out a presigned PUT URL for the ID image.
// POST /api/v1/orders/session/image/upload-url
func (h *Handler) CreateUploadURL(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.CreateUploadURL(c.Request.Context(), identity.TenantID(), identity.VisitorID(), req.FileName, req.ContentType, req.FileSize)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ConfirmImageUpload records a completed upload on the session.
// POST /api/v1/orders/session/image/confirm
func (h *Handler) ConfirmImageUpload(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.ImageConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.MarkImageUploaded(c.Request.Context(), identity.TenantID(), identity.VisitorID(), req.FileKey)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetOrder returns one of the visitor's confirmed orders by reference.
// GET /api/v1/orders/:reference
func (h *Handler) GetOrder(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	reference := c.Param("reference")
	if reference == "" {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.GetOrderStatus(c.Request.Context(), identity.TenantID(), identity.VisitorID(), reference)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
