// Package service implements the guided data-collection state machine.
// All state lives in the session row; every operation derives progress
// from it, validates before persisting, and runs under the visitor's
// Redis lock so concurrent messages cannot interleave half-applied
// steps.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
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

const (
	msgOrderCancelled      = "Order cancelled. Say 'yes' or 'تأكيد' to confirm your order."
	msgUploadFirst         = "No image upload recorded yet. Please upload your ID image first."
	msgImageMissing        = "The uploaded image could not be found in storage. Please upload it again."
	msgCompleteBeforeImage = "Please complete all required information before uploading the image."
	msgMissingInfo         = "Your order is still missing required information."
	msgImageBeforeConfirm  = "Please upload and verify your ID image before confirming."
	msgAllCollected        = "All required information has been collected. Say 'yes' to confirm your order."
	msgUnknownFileKey      = "Unrecognized file key."
)

// Catalog is the slice of the service catalog the state machine needs:
// resolving a tenant's active, orderable service.
type Catalog interface {
	GetOrderable(ctx context.Context, tenantID, id uuid.UUID) (catalogrepo.Service, error)
}

// Locker serializes session read-modify-write cycles per visitor.
type Locker interface {
	WithLock(ctx context.Context, tenantID, visitorID uuid.UUID, fn func(ctx context.Context) error) error
}

// Service drives the collection state machine over the session
// repository.
type Service struct {
	repo    repository.Repository
	catalog Catalog
	locker  Locker
	store   storage.StorageService
	bucket  string
	bus     events.Bus
	ttl     time.Duration
	log     *logger.Logger
}

// New creates a new orders service. ttl is the fixed session lifetime
// assigned at creation; it is never extended by later steps.
func New(repo repository.Repository, catalog Catalog, locker Locker, store storage.StorageService, bucket string, bus events.Bus, ttl time.Duration, log *logger.Logger) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		locker:  locker,
		store:   store,
		bucket:  bucket,
		bus:     bus,
		ttl:     ttl,
		log:     log,
	}
}

// SelectService starts (or re-targets) the visitor's collection
// session for an orderable service of the tenant. Re-selecting on a
// live session keeps the fields already collected; an expired session
// is recycled empty with a fresh deadline.
func (s *Service) SelectService(ctx context.Context, tenantID, visitorID, serviceID uuid.UUID) (transport.StepResult, error) {
	svc, err := s.catalog.GetOrderable(ctx, tenantID, serviceID)
	if err != nil {
		return transport.StepResult{}, err
	}

	var result transport.StepResult
	err = s.locker.WithLock(ctx, tenantID, visitorID, func(ctx context.Context) error {
		sess, err := s.repo.UpsertForService(ctx, tenantID, visitorID, svc.ID, time.Now().Add(s.ttl))
		if err != nil {
			return err
		}
		// The upsert does not join the catalog; fill the name from the
		// service we just validated.
		sess.ServiceName = svc.Name
		result = stepSuccess(sess, fmt.Sprintf("Service order session started for %s.", svc.Name))
		return nil
	})
	if err != nil {
		return transport.StepResult{}, err
	}

	s.log.SessionEvent("session_selected", tenantID.String(), visitorID.String())
	return result, nil
}

// Collect validates one customer detail and stores it on the live
// session. Invalid input never reaches the row.
func (s *Service) Collect(ctx context.Context, tenantID, visitorID uuid.UUID, field domain.Field, raw string) (transport.StepResult, error) {
	desc, ok := descriptorFor(field)
	if !ok {
		return transport.StepResult{}, apperr.BadRequest(fmt.Sprintf("unknown field %q", field))
	}

	var result transport.StepResult
	err := s.locker.WithLock(ctx, tenantID, visitorID, func(ctx context.Context) error {
		sess, err := s.repo.GetLive(ctx, tenantID, visitorID)
		if err != nil {
			return err
		}

		value, err := desc.Validate(raw)
		if err != nil {
			return err
		}

		if err := s.persistField(ctx, tenantID, visitorID, field, value, &sess); err != nil {
			return err
		}

		result = stepSuccess(sess, fmt.Sprintf("Your %s has been recorded.", fieldLabel(field)))
		return nil
	})
	if err != nil {
		return transport.StepResult{}, err
	}
	return result, nil
}

// MarkImageUploaded flags the session's ID image as uploaded,
// recording the object key when the caller supplied one. The image is
// the last collection step: the four scalar fields must be complete
// first.
func (s *Service) MarkImageUploaded(ctx context.Context, tenantID, visitorID uuid.UUID, fileKey string) (transport.StepResult, error) {
	fileKey = strings.TrimSpace(fileKey)
	if fileKey != "" {
		prefix := fmt.Sprintf("%s/%s/", tenantID, visitorID)
		if !strings.HasPrefix(fileKey, prefix) {
			// The key names a folder outside this conversation.
			return transport.StepResult{}, apperr.Forbidden(msgUnknownFileKey)
		}
	}

	var result transport.StepResult
	err := s.locker.WithLock(ctx, tenantID, visitorID, func(ctx context.Context) error {
		sess, err := s.repo.GetLive(ctx, tenantID, visitorID)
		if err != nil {
			return err
		}

		p := progressOf(sess)
		if !p.ScalarsComplete() {
			result = stepOutcome(sess, transport.StatusError, msgCompleteBeforeImage)
			return nil
		}

		var keyPtr *string
		if fileKey != "" {
			keyPtr = &fileKey
		}
		if err := s.repo.MarkImageUploaded(ctx, tenantID, visitorID, keyPtr); err != nil {
			return err
		}
		sess.ImageUploaded = true
		if keyPtr != nil {
			sess.ImageKey = keyPtr
		}

		result = stepSuccess(sess, "Image upload recorded. It will be verified next.")
		return nil
	})
	if err != nil {
		return transport.StepResult{}, err
	}
	return result, nil
}

// VerifyImageUpload checks the uploaded image and marks it verified.
// When an object key is known the object must exist in storage; its
// EXIF capture time is extracted best effort. Without a key the flag
// alone is trusted.
func (s *Service) VerifyImageUpload(ctx context.Context, tenantID, visitorID uuid.UUID) (transport.StepResult, error) {
	var result transport.StepResult
	err := s.locker.WithLock(ctx, tenantID, visitorID, func(ctx context.Context) error {
		sess, err := s.repo.GetLive(ctx, tenantID, visitorID)
		if err != nil {
			return err
		}

		if !sess.ImageUploaded {
			result = stepOutcome(sess, transport.StatusPending, msgUploadFirst)
			return nil
		}

		var capturedAt *time.Time
		if sess.ImageKey != nil {
			exists, err := s.store.ObjectExists(ctx, s.bucket, *sess.ImageKey)
			if err != nil {
				return fmt.Errorf("check image object: %w", err)
			}
			if !exists {
				result = stepOutcome(sess, transport.StatusError, msgImageMissing)
				return nil
			}
			capturedAt = s.captureTime(ctx, *sess.ImageKey)
		}

		if err := s.repo.MarkImageVerified(ctx, tenantID, visitorID, capturedAt); err != nil {
			return err
		}
		sess.ImageVerified = true
		if capturedAt != nil {
			sess.ImageCapturedAt = capturedAt
		}

		message := "Your ID image has been verified."
		if progressOf(sess).Complete() {
			message = "Your ID image has been verified. " + msgAllCollected
		}
		result = stepSuccess(sess, message)
		return nil
	})
	if err != nil {
		return transport.StepResult{}, err
	}

	s.log.SessionEvent("image_verified", tenantID.String(), visitorID.String())
	return result, nil
}

// captureTime reads the EXIF DateTime of the stored image. Any failure
// just loses the timestamp.
func (s *Service) captureTime(ctx context.Context, fileKey string) *time.Time {
	reader, err := s.store.DownloadFile(ctx, s.bucket, fileKey)
	if err != nil {
		s.log.Warn("could not download image for EXIF inspection", "fileKey", fileKey, "error", err)
		return nil
	}
	defer reader.Close()
	return storage.ExtractCaptureTime(reader)
}

// Status reports the session's collected fields, what is still
// missing, and the next step.
func (s *Service) Status(ctx context.Context, tenantID, visitorID uuid.UUID) (transport.StepResult, error) {
	sess, err := s.repo.GetLive(ctx, tenantID, visitorID)
	if err != nil {
		return transport.StepResult{}, err
	}

	message := "Order session is active."
	if sess.ServiceName != "" {
		message = fmt.Sprintf("Order session active for %s.", sess.ServiceName)
	}
	return stepSuccess(sess, message), nil
}

// Validate re-checks completeness and tells the caller whether the
// order can be confirmed.
func (s *Service) Validate(ctx context.Context, tenantID, visitorID uuid.UUID) (transport.StepResult, error) {
	sess, err := s.repo.GetLive(ctx, tenantID, visitorID)
	if err != nil {
		return transport.StepResult{}, err
	}

	if progressOf(sess).Complete() {
		return stepSuccess(sess, msgAllCollected), nil
	}
	return stepOutcome(sess, transport.StatusPending, msgMissingInfo), nil
}

// ConfirmOrder finalizes the session into an order. The reply must be
// an exact affirmative; anything else cancels the attempt without
// touching the session. On success the order insert and the session
// delete commit in one transaction, then OrderConfirmed is published.
func (s *Service) ConfirmOrder(ctx context.Context, tenantID, visitorID uuid.UUID, confirmationText string) (transport.StepResult, error) {
	var (
		result    transport.StepResult
		confirmed *events.OrderConfirmed
	)

	err := s.locker.WithLock(ctx, tenantID, visitorID, func(ctx context.Context) error {
		sess, err := s.repo.GetLive(ctx, tenantID, visitorID)
		if err != nil {
			return err
		}

		if !domain.IsAffirmative(confirmationText) {
			result = stepOutcome(sess, transport.StatusCancelled, msgOrderCancelled)
			return nil
		}

		p := progressOf(sess)
		if !p.ScalarsComplete() {
			result = stepOutcome(sess, transport.StatusError, msgMissingInfo)
			return nil
		}
		if !p.ImageVerified {
			result = stepOutcome(sess, transport.StatusError, msgImageBeforeConfirm)
			return nil
		}

		orderID := uuid.New()
		now := time.Now().UTC()
		meta, err := json.Marshal(sessionMeta{
			SessionID:       sess.ID,
			ConfirmedAt:     now,
			ImageUploaded:   sess.ImageUploaded,
			ImageVerified:   sess.ImageVerified,
			ImageCapturedAt: sess.ImageCapturedAt,
		})
		if err != nil {
			return fmt.Errorf("marshal session meta: %w", err)
		}

		order := repository.Order{
			ID:               orderID,
			Reference:        domain.Reference(orderID),
			TenantID:         tenantID,
			VisitorID:        visitorID,
			ServiceID:        sess.ServiceID,
			ServiceName:      sess.ServiceName,
			CustomerName:     *sess.CustomerName,
			CustomerAge:      *sess.CustomerAge,
			CustomerIDNumber: *sess.CustomerIDNumber,
			CustomerPhone:    *sess.CustomerPhone,
			ImageKey:         sess.ImageKey,
			Status:           repository.StatusUnderReview,
			SessionMeta:      meta,
			ConfirmedAt:      now,
		}

		if err := s.repo.CreateOrderAndClearSession(ctx, order, sess.ID); err != nil {
			return err
		}

		confirmed = &events.OrderConfirmed{
			BaseEvent:        events.NewBaseEvent(),
			OrderID:          order.ID,
			Reference:        order.Reference,
			TenantID:         tenantID,
			VisitorID:        visitorID,
			ServiceName:      order.ServiceName,
			CustomerName:     order.CustomerName,
			CustomerPhone:    order.CustomerPhone,
			CustomerIDNumber: order.CustomerIDNumber,
			ImageKey:         order.ImageKey,
			ConfirmedAt:      order.ConfirmedAt,
			ImageCapturedAt:  sess.ImageCapturedAt,
		}

		result = transport.StepResult{
			Status:    transport.StatusSuccess,
			Message:   fmt.Sprintf("Order confirmed! Your reference number is %s. Our team will review it and contact you shortly.", order.Reference),
			Reference: order.Reference,
			Collected: collectedOf(sess),
		}
		return nil
	})
	if err != nil {
		return transport.StepResult{}, err
	}

	if confirmed != nil {
		s.bus.Publish(ctx, *confirmed)
		s.log.SessionEvent("order_confirmed", tenantID.String(), visitorID.String())
	}
	return result, nil
}

// GetOrderStatus returns the visitor's latest order, or the one named
// by reference.
func (s *Service) GetOrderStatus(ctx context.Context, tenantID, visitorID uuid.UUID, reference string) (transport.OrderStatusResponse, error) {
	reference = strings.ToUpper(strings.TrimSpace(reference))

	var (
		order repository.Order
		err   error
	)
	if reference == "" {
		order, err = s.repo.GetLatestOrder(ctx, tenantID, visitorID)
	} else {
		order, err = s.repo.GetOrderByReference(ctx, tenantID, visitorID, reference)
	}
	if err != nil {
		return transport.OrderStatusResponse{}, err
	}

	return transport.OrderStatusResponse{
		Reference:   order.Reference,
		ServiceName: order.ServiceName,
		Status:      order.Status,
		ConfirmedAt: order.ConfirmedAt.Format(time.RFC3339),
	}, nil
}

// CreateUploadURL hands the widget a presigned PUT target for the ID
// image, scoped to the caller's live session.
func (s *Service) CreateUploadURL(ctx context.Context, tenantID, visitorID uuid.UUID, fileName, contentType string, sizeBytes int64) (transport.UploadURLResponse, error) {
	if err := s.store.ValidateContentType(contentType); err != nil {
		return transport.UploadURLResponse{}, apperr.Validation(err.Error())
	}
	if err := s.store.ValidateFileSize(sizeBytes); err != nil {
		return transport.UploadURLResponse{}, apperr.Validation(err.Error())
	}

	sess, err := s.repo.GetLive(ctx, tenantID, visitorID)
	if err != nil {
		return transport.UploadURLResponse{}, err
	}
	if !progressOf(sess).ScalarsComplete() {
		return transport.UploadURLResponse{}, apperr.Conflict(msgCompleteBeforeImage)
	}

	folder := fmt.Sprintf("%s/%s", tenantID, visitorID)
	presigned, err := s.store.GenerateUploadURL(ctx, s.bucket, folder, fileName, contentType, sizeBytes)
	if err != nil {
		return transport.UploadURLResponse{}, fmt.Errorf("generate upload url: %w", err)
	}

	return transport.UploadURLResponse{
		URL:       presigned.URL,
		FileKey:   presigned.FileKey,
		ExpiresAt: presigned.ExpiresAt.Format(time.RFC3339),
	}, nil
}

// SweepExpiredSessions deletes sessions past their deadline and
// reports the count. The scheduler calls this periodically; liveness
// checks never depend on it.
func (s *Service) SweepExpiredSessions(ctx context.Context) (int64, error) {
	count, err := s.repo.DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.bus.Publish(ctx, events.SessionsSwept{BaseEvent: events.NewBaseEvent(), Count: int(count)})
	}
	return count, nil
}

// sessionMeta is the snapshot stored on the order row for audit.
type sessionMeta struct {
	SessionID       uuid.UUID  `json:"session_id"`
	ConfirmedAt     time.Time  `json:"confirmed_at"`
	ImageUploaded   bool       `json:"image_uploaded"`
	ImageVerified   bool       `json:"image_verified"`
	ImageCapturedAt *time.Time `json:"image_captured_at,omitempty"`
}

func (s *Service) persistField(ctx context.Context, tenantID, visitorID uuid.UUID, field domain.Field, value string, sess *repository.Session) error {
	switch field {
	case domain.FieldName:
		if err := s.repo.SetName(ctx, tenantID, visitorID, value); err != nil {
			return err
		}
		sess.CustomerName = &value
	case domain.FieldAge:
		age, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parse validated age: %w", err)
		}
		if err := s.repo.SetAge(ctx, tenantID, visitorID, age); err != nil {
			return err
		}
		sess.CustomerAge = &age
	case domain.FieldID:
		if err := s.repo.SetIDNumber(ctx, tenantID, visitorID, value); err != nil {
			return err
		}
		sess.CustomerIDNumber = &value
	case domain.FieldPhone:
		if err := s.repo.SetPhone(ctx, tenantID, visitorID, value); err != nil {
			return err
		}
		sess.CustomerPhone = &value
	default:
		return apperr.BadRequest(fmt.Sprintf("field %q cannot be collected directly", field))
	}
	return nil
}

func descriptorFor(field domain.Field) (domain.Descriptor, bool) {
	for _, d := range domain.Descriptors {
		if d.Field == field {
			return d, true
		}
	}
	return domain.Descriptor{}, false
}

func fieldLabel(field domain.Field) string {
	switch field {
	case domain.FieldName:
		return "name"
	case domain.FieldAge:
		return "age"
	case domain.FieldID:
		return "ID number"
	case domain.FieldPhone:
		return "phone number"
	case domain.FieldImage:
		return "ID image"
	}
	return string(field)
}

func progressOf(sess repository.Session) domain.Progress {
	return domain.Progress{
		HasService:    sess.ServiceID != nil,
		HasName:       sess.CustomerName != nil,
		HasAge:        sess.CustomerAge != nil,
		HasID:         sess.CustomerIDNumber != nil,
		HasPhone:      sess.CustomerPhone != nil,
		ImageUploaded: sess.ImageUploaded,
		ImageVerified: sess.ImageVerified,
	}
}

func collectedOf(sess repository.Session) *transport.CollectedData {
	c := &transport.CollectedData{
		Service:       sess.ServiceName,
		ImageUploaded: sess.ImageUploaded,
		ImageVerified: sess.ImageVerified,
	}
	if sess.CustomerName != nil {
		c.Name = *sess.CustomerName
	}
	if sess.CustomerAge != nil {
		c.Age = sess.CustomerAge
	}
	if sess.CustomerIDNumber != nil {
		c.IDNumber = *sess.CustomerIDNumber
	}
	if sess.CustomerPhone != nil {
		c.Phone = *sess.CustomerPhone
	}
	return c
}

func fieldNames(fields []domain.Field) []string {
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return names
}

func stepSuccess(sess repository.Session, message string) transport.StepResult {
	return stepOutcome(sess, transport.StatusSuccess, message)
}

func stepOutcome(sess repository.Session, status, message string) transport.StepResult {
	p := progressOf(sess)
	return transport.StepResult{
		Status:        status,
		Message:       message,
		MissingFields: fieldNames(p.MissingFields()),
		NextStep:      p.NextStep(),
		Collected:     collectedOf(sess),
	}
}
