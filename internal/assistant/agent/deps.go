package agent

import (
	"context"
	"sync"

	"github.com/google/uuid"

	catalogtransport "concierge_backend/internal/catalog/transport"
	knowledgeservice "concierge_backend/internal/knowledge/service"
	knowledgetransport "concierge_backend/internal/knowledge/transport"
	"concierge_backend/internal/orders/domain"
	orderstransport "concierge_backend/internal/orders/transport"
	"concierge_backend/platform/logger"
)

// KnowledgeService answers free-text questions with ranked snippets.
type KnowledgeService interface {
	Search(ctx context.Context, tenantID uuid.UUID, rawQuery string, limit int, meta knowledgeservice.ClientMeta) ([]knowledgetransport.Snippet, error)
}

// CatalogService lists the tenant's orderable services.
type CatalogService interface {
	ListOrderable(ctx context.Context, tenantID uuid.UUID) (catalogtransport.ServiceListResponse, error)
}

// OrdersService is the guided data-collection surface the tools drive.
type OrdersService interface {
	SelectService(ctx context.Context, tenantID, visitorID, serviceID uuid.UUID) (orderstransport.StepResult, error)
	Collect(ctx context.Context, tenantID, visitorID uuid.UUID, field domain.Field, raw string) (orderstransport.StepResult, error)
	MarkImageUploaded(ctx context.Context, tenantID, visitorID uuid.UUID, fileKey string) (orderstransport.StepResult, error)
	VerifyImageUpload(ctx context.Context, tenantID, visitorID uuid.UUID) (orderstransport.StepResult, error)
	Status(ctx context.Context, tenantID, visitorID uuid.UUID) (orderstransport.StepResult, error)
	Validate(ctx context.Context, tenantID, visitorID uuid.UUID) (orderstransport.StepResult, error)
	ConfirmOrder(ctx context.Context, tenantID, visitorID uuid.UUID, confirmationText string) (orderstransport.StepResult, error)
	GetOrderStatus(ctx context.Context, tenantID, visitorID uuid.UUID, reference string) (orderstransport.OrderStatusResponse, error)
}

// ToolDependencies contains the services the tools dispatch into plus
// the identity of the conversation currently running. The runtime sets
// the identity before each turn and holds the turn lock for its
// duration, so at most one identity is live at a time.
type ToolDependencies struct {
	Knowledge KnowledgeService
	Catalog   CatalogService
	Orders    OrdersService
	Log       *logger.Logger

	mu        sync.RWMutex
	tenantID  *uuid.UUID
	visitorID *uuid.UUID
}

// SetIdentity pins the tool calls of the current turn to one visitor.
func (d *ToolDependencies) SetIdentity(tenantID, visitorID uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tenantID = &tenantID
	d.visitorID = &visitorID
}

// Identity returns the active conversation identity, if one is set.
func (d *ToolDependencies) Identity() (uuid.UUID, uuid.UUID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.tenantID == nil || d.visitorID == nil {
		return uuid.Nil, uuid.Nil, false
	}
	return *d.tenantID, *d.visitorID, true
}

func (d *ToolDependencies) logCall(tool string, tenantID, visitorID uuid.UUID, status string) {
	d.Log.ToolCall(tool, tenantID.String(), visitorID.String(), status)
}
