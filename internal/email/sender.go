// Package email delivers transactional mail to tenant back offices.
// Rendering is template-based; delivery goes through the tenant's SMTP
// relay. A NoopSender stands in when mail is disabled in config.
package email

import (
	"context"

	"concierge_backend/platform/config"
)

// Attachment represents a file attachment for an email.
type Attachment struct {
	Content  []byte // raw file bytes
	FileName string // e.g. "order-SO-1A2B3C4D.png"
	MIMEType string // e.g. "image/png"
}

type Sender interface {
	SendOrderConfirmedEmail(ctx context.Context, toEmail, reference, serviceName, customerName, customerPhone, confirmedAt, reviewURL string, attachments ...Attachment) error
}

type NoopSender struct{}

func (NoopSender) SendOrderConfirmedEmail(ctx context.Context, toEmail, reference, serviceName, customerName, customerPhone, confirmedAt, reviewURL string, attachments ...Attachment) error {
	return nil
}

// NewSender returns the SMTP sender when email is enabled, otherwise a
// NoopSender so callers never branch on config themselves.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}

	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	), nil
}
