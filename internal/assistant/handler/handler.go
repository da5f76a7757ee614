package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"concierge_backend/internal/assistant/agent"
	"concierge_backend/platform/httpkit"
	"concierge_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request payload"
	msgValidationFailed = "validation failed"
)

// ChatRequest is one visitor turn.
type ChatRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

// ChatResponse carries the assistant's reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// Handler exposes the conversation endpoint.
type Handler struct {
	assistant *agent.Assistant
	val       *validator.Validator
}

func New(assistant *agent.Assistant, val *validator.Validator) *Handler {
	return &Handler{assistant: assistant, val: val}
}

// Chat runs one assistant turn for the authenticated visitor.
// POST /api/v1/chat
func (h *Handler) Chat(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	reply, err := h.assistant.Chat(c.Request.Context(), identity.TenantID(), identity.VisitorID(), req.Message)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, ChatResponse{Reply: reply})
}
