package service

import (
	"context"

	"github.com/google/uuid"

	"concierge_backend/internal/catalog/repository"
	"concierge_backend/internal/catalog/transport"
	"concierge_backend/platform/logger"
)

// Service provides read access to the tenant service catalog.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new catalog service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// GetOrderable returns the domain record for a service that can currently be
// ordered by the tenant's visitors. Used by the order flow to validate a
// service selection.
func (s *Service) GetOrderable(ctx context.Context, tenantID, id uuid.UUID) (repository.Service, error) {
	return s.repo.GetOrderable(ctx, tenantID, id)
}

// ListOrderable returns the tenant's orderable services for display.
func (s *Service) ListOrderable(ctx context.Context, tenantID uuid.UUID) (transport.ServiceListResponse, error) {
	items, err := s.repo.ListOrderable(ctx, tenantID)
	if err != nil {
		return transport.ServiceListResponse{}, err
	}

	responses := make([]transport.ServiceResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, toResponse(item))
	}

	return transport.ServiceListResponse{Items: responses, Total: len(responses)}, nil
}

// GetByID returns a single orderable service for display.
func (s *Service) GetByID(ctx context.Context, tenantID, id uuid.UUID) (transport.ServiceResponse, error) {
	svc, err := s.repo.GetOrderable(ctx, tenantID, id)
	if err != nil {
		return transport.ServiceResponse{}, err
	}
	return toResponse(svc), nil
}

func toResponse(svc repository.Service) transport.ServiceResponse {
	return transport.ServiceResponse{
		ID:          svc.ID,
		Name:        svc.Name,
		Description: svc.Description,
		Price:       svc.Price,
	}
}
