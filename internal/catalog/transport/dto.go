package transport

import "github.com/google/uuid"

// ServiceResponse represents an orderable service in API responses.
type ServiceResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       *float64  `json:"price,omitempty"`
}

// ServiceListResponse wraps a list of orderable services.
type ServiceListResponse struct {
	Items []ServiceResponse `json:"items"`
	Total int               `json:"total"`
}
