// Package notification reacts to domain events with side effects the
// order flow itself must not depend on: QR generation, storage writes,
// and back-office email. The visitor's order is already committed when
// these handlers run; failures here are logged and absorbed by the bus.
package notification

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"concierge_backend/internal/adapters/storage"
	"concierge_backend/internal/email"
	"concierge_backend/internal/events"
	widgetrepo "concierge_backend/internal/widget/repository"
	"concierge_backend/platform/config"
	"concierge_backend/platform/logger"
	"concierge_backend/platform/phone"
)

// qrSize is the pixel width of the generated reference QR.
const qrSize = 256

// TenantReader resolves the tenant's ops inbox for notifications.
type TenantReader interface {
	GetTenant(ctx context.Context, id uuid.UUID) (widgetrepo.Tenant, error)
}

// Module wires order events to tenant notifications.
type Module struct {
	sender  email.Sender
	store   storage.StorageService
	bucket  string
	tenants TenantReader
	baseURL string
	log     *logger.Logger
}

// NewModule creates the notification module. The bucket is the customer
// uploads bucket; reference QRs land next to the order's ID image.
func NewModule(sender email.Sender, store storage.StorageService, bucket string, tenants TenantReader, cfg config.NotificationConfig, log *logger.Logger) *Module {
	return &Module{
		sender:  sender,
		store:   store,
		bucket:  bucket,
		tenants: tenants,
		baseURL: strings.TrimRight(cfg.GetAppBaseURL(), "/"),
		log:     log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "notification" }

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.OrderConfirmed{}.EventName(), m)
	bus.Subscribe(events.SessionsSwept{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.OrderConfirmed:
		return m.handleOrderConfirmed(ctx, e)
	case events.SessionsSwept:
		m.log.Info("expired collection sessions reclaimed", "count", e.Count)
		return nil
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleOrderConfirmed(ctx context.Context, e events.OrderConfirmed) error {
	png, err := qrcode.Encode(e.Reference, qrcode.Medium, qrSize)
	if err != nil {
		// The email still goes out without the QR attachment.
		m.log.Error("failed to encode order reference QR",
			"orderId", e.OrderID,
			"reference", e.Reference,
			"error", err,
		)
		png = nil
	}

	if png != nil {
		m.storeQR(ctx, e, png)
	}

	tenant, err := m.tenants.GetTenant(ctx, e.TenantID)
	if err != nil {
		m.log.Error("failed to resolve tenant for order notification",
			"orderId", e.OrderID,
			"tenantId", e.TenantID,
			"error", err,
		)
		return err
	}
	if tenant.OpsEmail == "" {
		m.log.Warn("tenant has no ops inbox, skipping order notification",
			"orderId", e.OrderID,
			"tenantId", e.TenantID,
		)
		return nil
	}

	var attachments []email.Attachment
	if png != nil {
		attachments = append(attachments, email.Attachment{
			Content:  png,
			FileName: fmt.Sprintf("order-%s.png", e.Reference),
			MIMEType: "image/png",
		})
	}

	reviewURL := fmt.Sprintf("%s/orders/%s", m.baseURL, e.Reference)
	confirmedAt := e.ConfirmedAt.Format(time.RFC3339)
	customerPhone := phone.NormalizeE164(e.CustomerPhone)

	if err := m.sender.SendOrderConfirmedEmail(ctx, tenant.OpsEmail, e.Reference, e.ServiceName, e.CustomerName, customerPhone, confirmedAt, reviewURL, attachments...); err != nil {
		m.log.Error("failed to send order confirmation email",
			"orderId", e.OrderID,
			"reference", e.Reference,
			"email", tenant.OpsEmail,
			"error", err,
		)
		return err
	}

	m.log.Info("order confirmation email sent",
		"orderId", e.OrderID,
		"reference", e.Reference,
		"email", tenant.OpsEmail,
	)
	return nil
}

// storeQR uploads the reference QR into the order's upload folder so
// the back office finds it next to the customer's ID image.
func (m *Module) storeQR(ctx context.Context, e events.OrderConfirmed, png []byte) {
	folder := fmt.Sprintf("%s/%s", e.TenantID, e.VisitorID)
	fileName := fmt.Sprintf("order-%s.png", e.Reference)

	if _, err := m.store.UploadFile(ctx, m.bucket, folder, fileName, "image/png", bytes.NewReader(png), int64(len(png))); err != nil {
		m.log.Error("failed to store order reference QR",
			"orderId", e.OrderID,
			"reference", e.Reference,
			"error", err,
		)
	}
}
