package notification

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"concierge_backend/internal/adapters/storage"
	"concierge_backend/internal/email"
	"concierge_backend/internal/events"
	widgetrepo "concierge_backend/internal/widget/repository"
	"concierge_backend/platform/logger"
)

type fakeSender struct {
	err         error
	sent        int
	to          string
	reference   string
	serviceName string
	reviewURL   string
	attachments []email.Attachment
}

func (f *fakeSender) SendOrderConfirmedEmail(ctx context.Context, toEmail, reference, serviceName, customerName, customerPhone, confirmedAt, reviewURL string, attachments ...email.Attachment) error {
	if f.err != nil {
		return f.err
	}
	f.sent++
	f.to = toEmail
	f.reference = reference
	f.serviceName = serviceName
	f.reviewURL = reviewURL
	f.attachments = attachments
	return nil
}

type fakeStore struct {
	uploadErr  error
	uploads    int
	lastFolder string
	lastName   string
	lastSize   int64
}

func (f *fakeStore) GenerateUploadURL(ctx context.Context, bucket, folder, fileName, contentType string, sizeBytes int64) (*storage.PresignedURL, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*storage.PresignedURL, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) DownloadFile(ctx context.Context, bucket, fileKey string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) ObjectExists(ctx context.Context, bucket, fileKey string) (bool, error) {
	return false, nil
}

func (f *fakeStore) DeleteObject(ctx context.Context, bucket, fileKey string) error { return nil }

func (f *fakeStore) UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads++
	f.lastFolder = folder
	f.lastName = fileName
	f.lastSize = size
	return folder + "/" + fileName, nil
}

func (f *fakeStore) EnsureBucketExists(ctx context.Context, bucket string) error { return nil }
func (f *fakeStore) ValidateContentType(contentType string) error                { return nil }
func (f *fakeStore) ValidateFileSize(sizeBytes int64) error                      { return nil }
func (f *fakeStore) GetMaxFileSize() int64                                       { return 10 << 20 }

type fakeTenants struct {
	tenant widgetrepo.Tenant
	err    error
}

func (f *fakeTenants) GetTenant(ctx context.Context, id uuid.UUID) (widgetrepo.Tenant, error) {
	return f.tenant, f.err
}

type cfgStub struct{}

func (cfgStub) GetAppBaseURL() string { return "https://portal.example.com/" }

func confirmedEvent() events.OrderConfirmed {
	return events.OrderConfirmed{
		BaseEvent:     events.NewBaseEvent(),
		OrderID:       uuid.New(),
		Reference:     "SO-1A2B3C4D",
		TenantID:      uuid.New(),
		VisitorID:     uuid.New(),
		ServiceName:   "Account Renewal",
		CustomerName:  "Ahmed Ali",
		CustomerPhone: "+966512345678",
		ConfirmedAt:   time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC),
	}
}

func newTestModule(sender *fakeSender, store *fakeStore, tenants *fakeTenants) *Module {
	return NewModule(sender, store, "customer-uploads", tenants, cfgStub{}, logger.New("development"))
}

func TestHandleOrderConfirmedSendsEmailWithQR(t *testing.T) {
	sender := &fakeSender{}
	store := &fakeStore{}
	tenants := &fakeTenants{tenant: widgetrepo.Tenant{OpsEmail: "ops@acme.example"}}
	m := newTestModule(sender, store, tenants)
	e := confirmedEvent()

	if err := m.Handle(context.Background(), e); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if sender.sent != 1 {
		t.Fatalf("sent %d emails, want 1", sender.sent)
	}
	if sender.to != "ops@acme.example" || sender.reference != "SO-1A2B3C4D" {
		t.Errorf("email to %q for %q", sender.to, sender.reference)
	}
	if sender.reviewURL != "https://portal.example.com/orders/SO-1A2B3C4D" {
		t.Errorf("review URL = %q", sender.reviewURL)
	}
	if len(sender.attachments) != 1 {
		t.Fatalf("attachments = %d, want 1", len(sender.attachments))
	}
	att := sender.attachments[0]
	if att.FileName != "order-SO-1A2B3C4D.png" || att.MIMEType != "image/png" || len(att.Content) == 0 {
		t.Errorf("attachment = %q %q (%d bytes)", att.FileName, att.MIMEType, len(att.Content))
	}

	if store.uploads != 1 {
		t.Fatalf("stored %d objects, want 1", store.uploads)
	}
	wantFolder := e.TenantID.String() + "/" + e.VisitorID.String()
	if store.lastFolder != wantFolder || store.lastName != "order-SO-1A2B3C4D.png" {
		t.Errorf("stored %s/%s, want %s/order-SO-1A2B3C4D.png", store.lastFolder, store.lastName, wantFolder)
	}
	if store.lastSize != int64(len(att.Content)) {
		t.Errorf("stored size %d, attachment size %d", store.lastSize, len(att.Content))
	}
}

func TestHandleOrderConfirmedNoOpsInbox(t *testing.T) {
	sender := &fakeSender{}
	store := &fakeStore{}
	tenants := &fakeTenants{tenant: widgetrepo.Tenant{}}
	m := newTestModule(sender, store, tenants)

	if err := m.Handle(context.Background(), confirmedEvent()); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if sender.sent != 0 {
		t.Errorf("sent %d emails for a tenant without an ops inbox", sender.sent)
	}
	if store.uploads != 1 {
		t.Errorf("QR still stored once, got %d uploads", store.uploads)
	}
}

func TestHandleOrderConfirmedTenantLookupFails(t *testing.T) {
	sender := &fakeSender{}
	tenants := &fakeTenants{err: errors.New("connection refused")}
	m := newTestModule(sender, &fakeStore{}, tenants)

	if err := m.Handle(context.Background(), confirmedEvent()); err == nil {
		t.Fatal("Handle() returned nil for a failed tenant lookup")
	}
	if sender.sent != 0 {
		t.Errorf("sent %d emails despite lookup failure", sender.sent)
	}
}

func TestHandleOrderConfirmedStoreFailureStillSends(t *testing.T) {
	sender := &fakeSender{}
	store := &fakeStore{uploadErr: errors.New("bucket unavailable")}
	tenants := &fakeTenants{tenant: widgetrepo.Tenant{OpsEmail: "ops@acme.example"}}
	m := newTestModule(sender, store, tenants)

	if err := m.Handle(context.Background(), confirmedEvent()); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if sender.sent != 1 {
		t.Errorf("sent %d emails, want 1 despite storage failure", sender.sent)
	}
}

func TestHandleOrderConfirmedSendFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp timeout")}
	tenants := &fakeTenants{tenant: widgetrepo.Tenant{OpsEmail: "ops@acme.example"}}
	m := newTestModule(sender, &fakeStore{}, tenants)

	err := m.Handle(context.Background(), confirmedEvent())
	if err == nil || !strings.Contains(err.Error(), "smtp timeout") {
		t.Errorf("Handle() error = %v, want smtp failure", err)
	}
}

func TestHandleIgnoresUnknownEvents(t *testing.T) {
	m := newTestModule(&fakeSender{}, &fakeStore{}, &fakeTenants{})

	if err := m.Handle(context.Background(), events.SessionsSwept{BaseEvent: events.NewBaseEvent(), Count: 3}); err != nil {
		t.Errorf("Handle(SessionsSwept) error = %v", err)
	}
}
