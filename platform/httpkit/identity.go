// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity represents the conversation identity behind a request.
// This interface abstracts identity extraction from the web framework,
// allowing handlers to access visitor and tenant information without
// depending on Gin.
type Identity interface {
	// VisitorID returns the visitor driving the conversation.
	VisitorID() uuid.UUID
	// TenantID returns the tenant the conversation belongs to.
	TenantID() uuid.UUID
	// IsAuthenticated returns true if a valid chat token was presented.
	IsAuthenticated() bool
}

// identity is the concrete implementation of Identity.
type identity struct {
	visitorID     uuid.UUID
	tenantID      uuid.UUID
	authenticated bool
}

func (i *identity) VisitorID() uuid.UUID {
	return i.visitorID
}

func (i *identity) TenantID() uuid.UUID {
	return i.tenantID
}

func (i *identity) IsAuthenticated() bool {
	return i.authenticated
}

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if no chat token was validated.
func GetIdentity(c *gin.Context) Identity {
	visitorRaw, visitorOK := c.Get(ContextVisitorIDKey)
	tenantRaw, tenantOK := c.Get(ContextTenantIDKey)

	if !visitorOK || !tenantOK {
		return &identity{authenticated: false}
	}

	visitorID, ok := visitorRaw.(uuid.UUID)
	if !ok {
		return &identity{authenticated: false}
	}

	tenantID, ok := tenantRaw.(uuid.UUID)
	if !ok {
		return &identity{authenticated: false}
	}

	return &identity{
		visitorID:     visitorID,
		tenantID:      tenantID,
		authenticated: true,
	}
}

// MustGetIdentity extracts the Identity from a Gin context.
// If no valid chat token was presented, it aborts with 401 Unauthorized
// and returns nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	return id
}
