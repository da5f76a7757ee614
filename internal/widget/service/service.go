// Package service implements widget session issuance: the tenant's
// public slug plus its widget key are exchanged for a short-lived chat
// token bound to a fresh anonymous visitor id.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"concierge_backend/internal/widget/repository"
	"concierge_backend/internal/widget/transport"
	"concierge_backend/platform/apperr"
	"concierge_backend/platform/config"
	"concierge_backend/platform/httpkit"
	"concierge_backend/platform/logger"
)

// One message for unknown slug, inactive tenant, and key mismatch, so
// the endpoint cannot be used to probe which slugs exist.
const msgInvalidCredentials = "invalid tenant or widget key"

type Service struct {
	repo repository.Repository
	cfg  config.WidgetAuthConfig
	log  *logger.Logger
}

func New(repo repository.Repository, cfg config.WidgetAuthConfig, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, log: log}
}

// CreateSession authenticates the widget and mints a chat token for a
// new visitor identity. Every call starts a fresh conversation; the
// widget persists the token for the day, not the visitor.
func (s *Service) CreateSession(ctx context.Context, tenantSlug, widgetKey string) (transport.SessionResponse, error) {
	slug := strings.ToLower(strings.TrimSpace(tenantSlug))

	tenant, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return transport.SessionResponse{}, apperr.Unauthorized(msgInvalidCredentials)
		}
		return transport.SessionResponse{}, err
	}
	if !tenant.Active {
		return transport.SessionResponse{}, apperr.Unauthorized(msgInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(tenant.WidgetKeyHash), []byte(widgetKey)); err != nil {
		s.log.Warn("widget key rejected", "tenantSlug", slug)
		return transport.SessionResponse{}, apperr.Unauthorized(msgInvalidCredentials)
	}

	visitorID := uuid.New()
	token, expiresAt, err := s.signChatToken(visitorID, tenant.ID)
	if err != nil {
		return transport.SessionResponse{}, err
	}

	s.log.SessionEvent("widget_session_issued", tenant.ID.String(), visitorID.String())

	return transport.SessionResponse{
		Token:      token,
		VisitorID:  visitorID,
		TenantName: tenant.Name,
		ExpiresAt:  expiresAt.Format(time.RFC3339),
	}, nil
}

// GetTenant returns a tenant by id for cross-module consumers such as
// the order notification mailer.
func (s *Service) GetTenant(ctx context.Context, id uuid.UUID) (repository.Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) signChatToken(visitorID, tenantID uuid.UUID) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.GetChatTokenTTL())

	claims := jwt.MapClaims{
		"sub":       visitorID.String(),
		"tenant_id": tenantID.String(),
		"type":      httpkit.TokenTypeChat,
		"exp":       expiresAt.Unix(),
		"iat":       now.Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tokenObj.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign chat token: %w", err)
	}
	return signed, expiresAt, nil
}
