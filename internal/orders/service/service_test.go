package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"concierge_backend/internal/adapters/storage"
	catalogrepo "concierge_backend/internal/catalog/repository"
	"concierge_backend/internal/events"
	"concierge_backend/internal/orders/domain"
	"concierge_backend/internal/orders/repository"
	"concierge_backend/internal/orders/transport"
	"concierge_backend/platform/apperr"
	"concierge_backend/platform/logger"
)

type fakeRepo struct {
	sess       *repository.Session
	expired    bool
	orders     []repository.Order
	cleared    []uuid.UUID
	failCreate error
	sweepCount int64
}

func (r *fakeRepo) live() bool {
	return r.sess != nil && !r.expired
}

func (r *fakeRepo) UpsertForService(ctx context.Context, tenantID, visitorID, serviceID uuid.UUID, expiresAt time.Time) (repository.Session, error) {
	if r.live() {
		r.sess.ServiceID = &serviceID
		return *r.sess, nil
	}
	r.sess = &repository.Session{
		ID:        uuid.New(),
		TenantID:  tenantID,
		VisitorID: visitorID,
		ServiceID: &serviceID,
		ExpiresAt: expiresAt,
	}
	r.expired = false
	return *r.sess, nil
}

func (r *fakeRepo) GetLive(ctx context.Context, tenantID, visitorID uuid.UUID) (repository.Session, error) {
	if !r.live() {
		return repository.Session{}, apperr.Gone("No active service order session. Please select a service first.")
	}
	return *r.sess, nil
}

func (r *fakeRepo) SetName(ctx context.Context, tenantID, visitorID uuid.UUID, name string) error {
	if !r.live() {
		return apperr.Gone("no session")
	}
	r.sess.CustomerName = &name
	return nil
}

func (r *fakeRepo) SetAge(ctx context.Context, tenantID, visitorID uuid.UUID, age int) error {
	if !r.live() {
		return apperr.Gone("no session")
	}
	r.sess.CustomerAge = &age
	return nil
}

func (r *fakeRepo) SetIDNumber(ctx context.Context, tenantID, visitorID uuid.UUID, idNumber string) error {
	if !r.live() {
		return apperr.Gone("no session")
	}
	r.sess.CustomerIDNumber = &idNumber
	return nil
}

func (r *fakeRepo) SetPhone(ctx context.Context, tenantID, visitorID uuid.UUID, phone string) error {
	if !r.live() {
		return apperr.Gone("no session")
	}
	r.sess.CustomerPhone = &phone
	return nil
}

func (r *fakeRepo) MarkImageUploaded(ctx context.Context, tenantID, visitorID uuid.UUID, fileKey *string) error {
	if !r.live() {
		return apperr.Gone("no session")
	}
	r.sess.ImageUploaded = true
	if fileKey != nil {
		r.sess.ImageKey = fileKey
	}
	return nil
}

func (r *fakeRepo) MarkImageVerified(ctx context.Context, tenantID, visitorID uuid.UUID, capturedAt *time.Time) error {
	if !r.live() {
		return apperr.Gone("no session")
	}
	r.sess.ImageVerified = true
	if capturedAt != nil {
		r.sess.ImageCapturedAt = capturedAt
	}
	return nil
}

func (r *fakeRepo) CreateOrderAndClearSession(ctx context.Context, order repository.Order, sessionID uuid.UUID) error {
	if r.failCreate != nil {
		return r.failCreate
	}
	r.orders = append(r.orders, order)
	r.cleared = append(r.cleared, sessionID)
	r.sess = nil
	return nil
}

func (r *fakeRepo) GetLatestOrder(ctx context.Context, tenantID, visitorID uuid.UUID) (repository.Order, error) {
	if len(r.orders) == 0 {
		return repository.Order{}, apperr.NotFound("Order not found.")
	}
	latest := r.orders[0]
	for _, o := range r.orders[1:] {
		if o.CreatedAt.After(latest.CreatedAt) {
			latest = o
		}
	}
	return latest, nil
}

func (r *fakeRepo) GetOrderByReference(ctx context.Context, tenantID, visitorID uuid.UUID, reference string) (repository.Order, error) {
	for _, o := range r.orders {
		if o.Reference == reference {
			return o, nil
		}
	}
	return repository.Order{}, apperr.NotFound("Order not found.")
}

func (r *fakeRepo) DeleteExpired(ctx context.Context) (int64, error) {
	return r.sweepCount, nil
}

type fakeCatalog struct {
	services map[uuid.UUID]catalogrepo.Service
}

func (c *fakeCatalog) GetOrderable(ctx context.Context, tenantID, id uuid.UUID) (catalogrepo.Service, error) {
	svc, ok := c.services[id]
	if !ok || svc.TenantID != tenantID {
		return catalogrepo.Service{}, apperr.NotFound("service not found or not orderable")
	}
	return svc, nil
}

type fakeLocker struct {
	busy  bool
	calls int
}

func (l *fakeLocker) WithLock(ctx context.Context, tenantID, visitorID uuid.UUID, fn func(ctx context.Context) error) error {
	if l.busy {
		return apperr.Conflict("Another step of your order is still being processed. Please try again.")
	}
	l.calls++
	return fn(ctx)
}

type fakeStore struct {
	exists     bool
	objectData []byte
}

func (s *fakeStore) GenerateUploadURL(ctx context.Context, bucket, folder, fileName, contentType string, sizeBytes int64) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{
		URL:       "https://minio.test/" + bucket + "/" + folder + "/" + fileName,
		FileKey:   folder + "/" + fileName,
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}, nil
}

func (s *fakeStore) GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://minio.test/" + bucket + "/" + fileKey}, nil
}

func (s *fakeStore) DownloadFile(ctx context.Context, bucket, fileKey string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.objectData)), nil
}

func (s *fakeStore) ObjectExists(ctx context.Context, bucket, fileKey string) (bool, error) {
	return s.exists, nil
}

func (s *fakeStore) DeleteObject(ctx context.Context, bucket, fileKey string) error { return nil }

func (s *fakeStore) UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error) {
	return folder + "/" + fileName, nil
}

func (s *fakeStore) EnsureBucketExists(ctx context.Context, bucket string) error { return nil }

func (s *fakeStore) ValidateContentType(contentType string) error {
	if strings.HasPrefix(contentType, "image/") {
		return nil
	}
	return fmt.Errorf("content type %s not allowed", contentType)
}

func (s *fakeStore) ValidateFileSize(sizeBytes int64) error {
	if sizeBytes > 10<<20 {
		return fmt.Errorf("file size exceeds limit")
	}
	return nil
}

func (s *fakeStore) GetMaxFileSize() int64 { return 10 << 20 }

type fakeBus struct {
	published []events.Event
}

func (b *fakeBus) Publish(ctx context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *fakeBus) PublishSync(ctx context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *fakeBus) Subscribe(eventName string, handler events.Handler) {}

type fixture struct {
	svc     *Service
	repo    *fakeRepo
	catalog *fakeCatalog
	locker  *fakeLocker
	store   *fakeStore
	bus     *fakeBus

	tenantID  uuid.UUID
	visitorID uuid.UUID
	serviceID uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		repo:      &fakeRepo{},
		locker:    &fakeLocker{},
		store:     &fakeStore{exists: true},
		bus:       &fakeBus{},
		tenantID:  uuid.New(),
		visitorID: uuid.New(),
		serviceID: uuid.New(),
	}
	f.catalog = &fakeCatalog{services: map[uuid.UUID]catalogrepo.Service{}}
	f.catalog.services[f.serviceID] = catalogrepo.Service{
		ID:        f.serviceID,
		TenantID:  f.tenantID,
		Name:      "Account Renewal",
		Active:    true,
		Orderable: true,
	}
	f.svc = New(f.repo, f.catalog, f.locker, f.store, "customer-uploads", f.bus, 30*time.Minute, logger.New("development"))
	return f
}

// seedSession installs a live session with the given fields filled.
func (f *fixture) seedSession(name string, age int, idNumber, phone string) *repository.Session {
	sess := &repository.Session{
		ID:        uuid.New(),
		TenantID:  f.tenantID,
		VisitorID: f.visitorID,
		ServiceID: &f.serviceID,
		ExpiresAt: time.Now().Add(20 * time.Minute),
	}
	if name != "" {
		sess.CustomerName = &name
	}
	if age != 0 {
		sess.CustomerAge = &age
	}
	if idNumber != "" {
		sess.CustomerIDNumber = &idNumber
	}
	if phone != "" {
		sess.CustomerPhone = &phone
	}
	f.repo.sess = sess
	return sess
}

func (f *fixture) seedCompleteSession() *repository.Session {
	sess := f.seedSession("Ali Hassan", 30, "1234567890", "+966512345678")
	sess.ImageUploaded = true
	sess.ImageVerified = true
	key := fmt.Sprintf("%s/%s/id-card.jpg", f.tenantID, f.visitorID)
	sess.ImageKey = &key
	return sess
}

func TestSelectServiceStartsSession(t *testing.T) {
	f := newFixture()

	result, err := f.svc.SelectService(context.Background(), f.tenantID, f.visitorID, f.serviceID)
	if err != nil {
		t.Fatalf("SelectService() error = %v", err)
	}

	if result.Status != transport.StatusSuccess {
		t.Errorf("Status = %q, want %q", result.Status, transport.StatusSuccess)
	}
	if result.NextStep != domain.StepCollectName {
		t.Errorf("NextStep = %q, want %q", result.NextStep, domain.StepCollectName)
	}
	wantMissing := []string{"name", "age", "id", "phone", "image"}
	if len(result.MissingFields) != len(wantMissing) {
		t.Fatalf("MissingFields = %v, want %v", result.MissingFields, wantMissing)
	}
	for i, w := range wantMissing {
		if result.MissingFields[i] != w {
			t.Errorf("MissingFields[%d] = %q, want %q", i, result.MissingFields[i], w)
		}
	}
	if result.Collected == nil || result.Collected.Service != "Account Renewal" {
		t.Errorf("Collected = %+v, want service name set", result.Collected)
	}
	if f.locker.calls != 1 {
		t.Errorf("lock acquisitions = %d, want 1", f.locker.calls)
	}
	if f.repo.sess == nil {
		t.Fatal("no session row created")
	}
}

func TestSelectServiceUnknownService(t *testing.T) {
	f := newFixture()

	_, err := f.svc.SelectService(context.Background(), f.tenantID, f.visitorID, uuid.New())
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("error kind = %v, want not found", apperr.GetKind(err))
	}
	if f.locker.calls != 0 {
		t.Errorf("lock acquired for unknown service")
	}
	if f.repo.sess != nil {
		t.Errorf("session created for unknown service")
	}
}

func TestSelectServicePreservesCollectedFields(t *testing.T) {
	f := newFixture()
	f.seedSession("Ali Hassan", 30, "", "")

	otherID := uuid.New()
	f.catalog.services[otherID] = catalogrepo.Service{ID: otherID, TenantID: f.tenantID, Name: "License Upgrade", Active: true, Orderable: true}

	result, err := f.svc.SelectService(context.Background(), f.tenantID, f.visitorID, otherID)
	if err != nil {
		t.Fatalf("SelectService() error = %v", err)
	}

	if result.NextStep != domain.StepCollectID {
		t.Errorf("NextStep = %q, want %q", result.NextStep, domain.StepCollectID)
	}
	if f.repo.sess.CustomerName == nil || *f.repo.sess.CustomerName != "Ali Hassan" {
		t.Error("collected name lost on re-selection")
	}
	if f.repo.sess.ServiceID == nil || *f.repo.sess.ServiceID != otherID {
		t.Error("service was not re-targeted")
	}
}

func TestSelectServiceRecyclesExpiredSession(t *testing.T) {
	f := newFixture()
	f.seedSession("Ali Hassan", 30, "1234567890", "+966512345678")
	f.repo.expired = true

	result, err := f.svc.SelectService(context.Background(), f.tenantID, f.visitorID, f.serviceID)
	if err != nil {
		t.Fatalf("SelectService() error = %v", err)
	}

	if result.NextStep != domain.StepCollectName {
		t.Errorf("NextStep = %q, want fresh session starting at %q", result.NextStep, domain.StepCollectName)
	}
	if f.repo.sess.CustomerName != nil {
		t.Error("expired session fields were not cleared")
	}
}

func TestCollectRequiresLiveSession(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Collect(context.Background(), f.tenantID, f.visitorID, domain.FieldAge, "17")
	if apperr.GetKind(err) != apperr.KindGone {
		t.Fatalf("error kind = %v, want gone", apperr.GetKind(err))
	}
}

func TestCollectValidatesBeforePersist(t *testing.T) {
	f := newFixture()
	f.seedSession("", 0, "", "")

	_, err := f.svc.Collect(context.Background(), f.tenantID, f.visitorID, domain.FieldAge, "17")
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("error kind = %v, want validation", apperr.GetKind(err))
	}
	if f.repo.sess.CustomerAge != nil {
		t.Error("invalid age reached the session row")
	}
}

func TestCollectProgression(t *testing.T) {
	f := newFixture()
	f.seedSession("", 0, "", "")

	steps := []struct {
		field domain.Field
		value string
		next  string
	}{
		{domain.FieldName, "Ali Hassan", domain.StepCollectAge},
		{domain.FieldAge, "30", domain.StepCollectID},
		{domain.FieldID, "1234567890", domain.StepCollectPhone},
		{domain.FieldPhone, "0512345678", domain.StepCollectImage},
	}

	for _, step := range steps {
		result, err := f.svc.Collect(context.Background(), f.tenantID, f.visitorID, step.field, step.value)
		if err != nil {
			t.Fatalf("Collect(%s) error = %v", step.field, err)
		}
		if result.Status != transport.StatusSuccess {
			t.Errorf("Collect(%s) status = %q, want success", step.field, result.Status)
		}
		if result.NextStep != step.next {
			t.Errorf("Collect(%s) next_step = %q, want %q", step.field, result.NextStep, step.next)
		}
	}

	if f.repo.sess.CustomerPhone == nil || *f.repo.sess.CustomerPhone != "+966512345678" {
		t.Errorf("stored phone = %v, want canonical +966512345678", f.repo.sess.CustomerPhone)
	}
}

func TestCollectUnknownField(t *testing.T) {
	f := newFixture()
	f.seedSession("", 0, "", "")

	_, err := f.svc.Collect(context.Background(), f.tenantID, f.visitorID, domain.Field("email"), "x@y.z")
	if apperr.GetKind(err) != apperr.KindBadRequest {
		t.Fatalf("error kind = %v, want bad request", apperr.GetKind(err))
	}
}

func TestMarkImageUploadedRequiresCompleteScalars(t *testing.T) {
	f := newFixture()
	f.seedSession("Ali Hassan", 30, "1234567890", "")

	result, err := f.svc.MarkImageUploaded(context.Background(), f.tenantID, f.visitorID, "")
	if err != nil {
		t.Fatalf("MarkImageUploaded() error = %v", err)
	}
	if result.Status != transport.StatusError {
		t.Errorf("Status = %q, want error", result.Status)
	}
	if f.repo.sess.ImageUploaded {
		t.Error("image marked uploaded despite incomplete scalars")
	}
	if result.NextStep != domain.StepCollectPhone {
		t.Errorf("NextStep = %q, want %q", result.NextStep, domain.StepCollectPhone)
	}
}

func TestMarkImageUploadedRecordsKey(t *testing.T) {
	f := newFixture()
	f.seedSession("Ali Hassan", 30, "1234567890", "+966512345678")

	key := fmt.Sprintf("%s/%s/id-card.jpg", f.tenantID, f.visitorID)
	result, err := f.svc.MarkImageUploaded(context.Background(), f.tenantID, f.visitorID, key)
	if err != nil {
		t.Fatalf("MarkImageUploaded() error = %v", err)
	}
	if result.Status != transport.StatusSuccess {
		t.Errorf("Status = %q, want success", result.Status)
	}
	if !f.repo.sess.ImageUploaded || f.repo.sess.ImageKey == nil || *f.repo.sess.ImageKey != key {
		t.Errorf("session image state = uploaded %v key %v", f.repo.sess.ImageUploaded, f.repo.sess.ImageKey)
	}
}

func TestMarkImageUploadedRejectsForeignKey(t *testing.T) {
	f := newFixture()
	f.seedSession("Ali Hassan", 30, "1234567890", "+966512345678")

	_, err := f.svc.MarkImageUploaded(context.Background(), f.tenantID, f.visitorID, "other-tenant/other-visitor/file.jpg")
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("error kind = %v, want forbidden", apperr.GetKind(err))
	}
	if f.repo.sess.ImageUploaded {
		t.Error("foreign key accepted")
	}
}

func TestVerifyImagePendingWithoutUpload(t *testing.T) {
	f := newFixture()
	f.seedSession("Ali Hassan", 30, "1234567890", "+966512345678")

	result, err := f.svc.VerifyImageUpload(context.Background(), f.tenantID, f.visitorID)
	if err != nil {
		t.Fatalf("VerifyImageUpload() error = %v", err)
	}
	if result.Status != transport.StatusPending {
		t.Errorf("Status = %q, want pending", result.Status)
	}
	if f.repo.sess.ImageVerified {
		t.Error("image verified without an upload")
	}
}

func TestVerifyImageObjectMissing(t *testing.T) {
	f := newFixture()
	sess := f.seedSession("Ali Hassan", 30, "1234567890", "+966512345678")
	sess.ImageUploaded = true
	key := fmt.Sprintf("%s/%s/id-card.jpg", f.tenantID, f.visitorID)
	sess.ImageKey = &key
	f.store.exists = false

	result, err := f.svc.VerifyImageUpload(context.Background(), f.tenantID, f.visitorID)
	if err != nil {
		t.Fatalf("VerifyImageUpload() error = %v", err)
	}
	if result.Status != transport.StatusError {
		t.Errorf("Status = %q, want error", result.Status)
	}
	if f.repo.sess.ImageVerified {
		t.Error("missing object still marked verified")
	}
}

func TestVerifyImageMarksVerified(t *testing.T) {
	f := newFixture()
	sess := f.seedSession("Ali Hassan", 30, "1234567890", "+966512345678")
	sess.ImageUploaded = true
	key := fmt.Sprintf("%s/%s/id-card.jpg", f.tenantID, f.visitorID)
	sess.ImageKey = &key
	f.store.objectData = []byte("not a real jpeg")

	result, err := f.svc.VerifyImageUpload(context.Background(), f.tenantID, f.visitorID)
	if err != nil {
		t.Fatalf("VerifyImageUpload() error = %v", err)
	}
	if result.Status != transport.StatusSuccess {
		t.Errorf("Status = %q, want success", result.Status)
	}
	if !f.repo.sess.ImageVerified {
		t.Error("image not marked verified")
	}
	if result.NextStep != domain.StepReadyToConfirm {
		t.Errorf("NextStep = %q, want %q", result.NextStep, domain.StepReadyToConfirm)
	}
	// Garbage bytes carry no EXIF; the capture time is simply absent.
	if f.repo.sess.ImageCapturedAt != nil {
		t.Error("capture time set from garbage data")
	}
}

// Verification without an object key trusts the flag alone.
func TestVerifyImageFlagOnly(t *testing.T) {
	f := newFixture()
	sess := f.seedSession("Ali Hassan", 30, "1234567890", "+966512345678")
	sess.ImageUploaded = true

	result, err := f.svc.VerifyImageUpload(context.Background(), f.tenantID, f.visitorID)
	if err != nil {
		t.Fatalf("VerifyImageUpload() error = %v", err)
	}
	if result.Status != transport.StatusSuccess {
		t.Errorf("Status = %q, want success", result.Status)
	}
	if !f.repo.sess.ImageVerified {
		t.Error("image not marked verified")
	}
}

func TestConfirmOrderNonAffirmativeCancels(t *testing.T) {
	f := newFixture()
	f.seedCompleteSession()

	result, err := f.svc.ConfirmOrder(context.Background(), f.tenantID, f.visitorID, "hmm let me think")
	if err != nil {
		t.Fatalf("ConfirmOrder() error = %v", err)
	}
	if result.Status != transport.StatusCancelled {
		t.Errorf("Status = %q, want cancelled", result.Status)
	}
	if result.Message != msgOrderCancelled {
		t.Errorf("Message = %q, want %q", result.Message, msgOrderCancelled)
	}
	if len(f.repo.orders) != 0 {
		t.Error("order created despite non-affirmative reply")
	}
	if f.repo.sess == nil {
		t.Error("session deleted despite non-affirmative reply")
	}
	if len(f.bus.published) != 0 {
		t.Error("event published on cancelled confirmation")
	}
}

func TestConfirmOrderIncompleteData(t *testing.T) {
	f := newFixture()
	f.seedSession("Ali Hassan", 30, "1234567890", "")

	result, err := f.svc.ConfirmOrder(context.Background(), f.tenantID, f.visitorID, "yes")
	if err != nil {
		t.Fatalf("ConfirmOrder() error = %v", err)
	}
	if result.Status != transport.StatusError {
		t.Errorf("Status = %q, want error", result.Status)
	}
	found := false
	for _, field := range result.MissingFields {
		if field == "phone" {
			found = true
		}
	}
	if !found {
		t.Errorf("MissingFields = %v, want to include phone", result.MissingFields)
	}
	if len(f.repo.orders) != 0 {
		t.Error("order created from incomplete session")
	}
}

func TestConfirmOrderRequiresVerifiedImage(t *testing.T) {
	f := newFixture()
	sess := f.seedSession("Ali Hassan", 30, "1234567890", "+966512345678")
	sess.ImageUploaded = true

	result, err := f.svc.ConfirmOrder(context.Background(), f.tenantID, f.visitorID, "yes")
	if err != nil {
		t.Fatalf("ConfirmOrder() error = %v", err)
	}
	if result.Status != transport.StatusError {
		t.Errorf("Status = %q, want error", result.Status)
	}
	if len(f.repo.orders) != 0 {
		t.Error("order created without verified image")
	}
}

func TestConfirmOrderCreatesOrderAndPublishes(t *testing.T) {
	f := newFixture()
	sess := f.seedCompleteSession()
	sess.ServiceName = "Account Renewal"

	result, err := f.svc.ConfirmOrder(context.Background(), f.tenantID, f.visitorID, " نعم ")
	if err != nil {
		t.Fatalf("ConfirmOrder() error = %v", err)
	}
	if result.Status != transport.StatusSuccess {
		t.Fatalf("Status = %q, want success", result.Status)
	}

	refPattern := regexp.MustCompile(`^SO-[0-9A-F]{8}$`)
	if !refPattern.MatchString(result.Reference) {
		t.Errorf("Reference = %q, want SO- prefix with 8 uppercase hex", result.Reference)
	}

	if len(f.repo.orders) != 1 {
		t.Fatalf("orders created = %d, want 1", len(f.repo.orders))
	}
	order := f.repo.orders[0]
	if order.Status != repository.StatusUnderReview {
		t.Errorf("order status = %q, want %q", order.Status, repository.StatusUnderReview)
	}
	if order.ServiceName != "Account Renewal" {
		t.Errorf("order service name = %q, want snapshot", order.ServiceName)
	}
	if order.CustomerPhone != "+966512345678" {
		t.Errorf("order phone = %q, want E.164", order.CustomerPhone)
	}
	if order.Reference != result.Reference {
		t.Errorf("order reference %q does not match envelope %q", order.Reference, result.Reference)
	}

	var meta map[string]any
	if err := json.Unmarshal(order.SessionMeta, &meta); err != nil {
		t.Fatalf("session_meta is not valid JSON: %v", err)
	}
	if meta["session_id"] != sess.ID.String() {
		t.Errorf("session_meta session_id = %v, want %s", meta["session_id"], sess.ID)
	}

	if len(f.repo.cleared) != 1 || f.repo.cleared[0] != sess.ID {
		t.Errorf("cleared sessions = %v, want [%s]", f.repo.cleared, sess.ID)
	}

	if len(f.bus.published) != 1 {
		t.Fatalf("events published = %d, want 1", len(f.bus.published))
	}
	confirmed, ok := f.bus.published[0].(events.OrderConfirmed)
	if !ok {
		t.Fatalf("published event type = %T, want OrderConfirmed", f.bus.published[0])
	}
	if confirmed.Reference != result.Reference {
		t.Errorf("event reference = %q, want %q", confirmed.Reference, result.Reference)
	}
}

func TestConfirmOrderFailureKeepsSession(t *testing.T) {
	f := newFixture()
	f.seedCompleteSession()
	f.repo.failCreate = fmt.Errorf("insert order: connection reset")

	_, err := f.svc.ConfirmOrder(context.Background(), f.tenantID, f.visitorID, "yes")
	if err == nil {
		t.Fatal("ConfirmOrder() expected error")
	}
	if f.repo.sess == nil {
		t.Error("session lost after failed finalize")
	}
	if len(f.bus.published) != 0 {
		t.Error("event published after failed finalize")
	}
}

func TestGetOrderStatus(t *testing.T) {
	f := newFixture()
	f.repo.orders = []repository.Order{
		{Reference: "SO-AAAA1111", ServiceName: "Old Service", Status: repository.StatusCompleted, CreatedAt: time.Now().Add(-time.Hour), ConfirmedAt: time.Now().Add(-time.Hour)},
		{Reference: "SO-BBBB2222", ServiceName: "Account Renewal", Status: repository.StatusUnderReview, CreatedAt: time.Now(), ConfirmedAt: time.Now()},
	}

	latest, err := f.svc.GetOrderStatus(context.Background(), f.tenantID, f.visitorID, "")
	if err != nil {
		t.Fatalf("GetOrderStatus() error = %v", err)
	}
	if latest.Reference != "SO-BBBB2222" {
		t.Errorf("latest reference = %q, want SO-BBBB2222", latest.Reference)
	}

	byRef, err := f.svc.GetOrderStatus(context.Background(), f.tenantID, f.visitorID, " so-aaaa1111 ")
	if err != nil {
		t.Fatalf("GetOrderStatus(by reference) error = %v", err)
	}
	if byRef.Reference != "SO-AAAA1111" {
		t.Errorf("reference lookup = %q, want SO-AAAA1111", byRef.Reference)
	}

	_, err = f.svc.GetOrderStatus(context.Background(), f.tenantID, f.visitorID, "SO-MISSING1")
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Errorf("unknown reference kind = %v, want not found", apperr.GetKind(err))
	}
}

func TestCreateUploadURL(t *testing.T) {
	f := newFixture()

	// No session yet.
	_, err := f.svc.CreateUploadURL(context.Background(), f.tenantID, f.visitorID, "id.jpg", "image/jpeg", 1024)
	if apperr.GetKind(err) != apperr.KindGone {
		t.Fatalf("error kind = %v, want gone", apperr.GetKind(err))
	}

	// Incomplete scalars.
	f.seedSession("Ali Hassan", 30, "", "")
	_, err = f.svc.CreateUploadURL(context.Background(), f.tenantID, f.visitorID, "id.jpg", "image/jpeg", 1024)
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("error kind = %v, want conflict", apperr.GetKind(err))
	}

	// Wrong content type fails before any session lookup.
	_, err = f.svc.CreateUploadURL(context.Background(), f.tenantID, f.visitorID, "id.pdf", "application/pdf", 1024)
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("error kind = %v, want validation", apperr.GetKind(err))
	}

	// Complete session gets a key scoped to the identity.
	f.seedSession("Ali Hassan", 30, "1234567890", "+966512345678")
	result, err := f.svc.CreateUploadURL(context.Background(), f.tenantID, f.visitorID, "id.jpg", "image/jpeg", 1024)
	if err != nil {
		t.Fatalf("CreateUploadURL() error = %v", err)
	}
	wantPrefix := fmt.Sprintf("%s/%s/", f.tenantID, f.visitorID)
	if !strings.HasPrefix(result.FileKey, wantPrefix) {
		t.Errorf("FileKey = %q, want prefix %q", result.FileKey, wantPrefix)
	}
	if result.URL == "" || result.ExpiresAt == "" {
		t.Errorf("incomplete response: %+v", result)
	}
}

func TestSweepExpiredSessions(t *testing.T) {
	f := newFixture()
	f.repo.sweepCount = 3

	count, err := f.svc.SweepExpiredSessions(context.Background())
	if err != nil {
		t.Fatalf("SweepExpiredSessions() error = %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
	if len(f.bus.published) != 1 {
		t.Fatalf("events published = %d, want 1", len(f.bus.published))
	}
	swept, ok := f.bus.published[0].(events.SessionsSwept)
	if !ok || swept.Count != 3 {
		t.Errorf("published = %+v, want SessionsSwept{Count: 3}", f.bus.published[0])
	}

	// Nothing reclaimed, nothing published.
	f.bus.published = nil
	f.repo.sweepCount = 0
	if _, err := f.svc.SweepExpiredSessions(context.Background()); err != nil {
		t.Fatalf("SweepExpiredSessions() error = %v", err)
	}
	if len(f.bus.published) != 0 {
		t.Error("event published for empty sweep")
	}
}

func TestBusyLockSurfacesConflict(t *testing.T) {
	f := newFixture()
	f.seedSession("", 0, "", "")
	f.locker.busy = true

	_, err := f.svc.Collect(context.Background(), f.tenantID, f.visitorID, domain.FieldName, "Ali Hassan")
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("error kind = %v, want conflict", apperr.GetKind(err))
	}
	if f.repo.sess.CustomerName != nil {
		t.Error("field stored while lock was busy")
	}
}
