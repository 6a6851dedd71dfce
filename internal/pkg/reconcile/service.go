package reconcile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/JFernandezWeb/LumenLMS/app/models"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/payments"
)

var ErrPaymentNotConfirmed = errors.New("payment is not in a confirmed state")

// StripeGateway is the slice of the Stripe client the service needs.
type StripeGateway interface {
	RetrievePaymentIntent(ctx context.Context, intentID string) (*payments.StripePaymentIntent, error)
}

// PayPalGateway is the slice of the PayPal client the service needs.
type PayPalGateway interface {
	CaptureOrder(ctx context.Context, orderID string) (*payments.PayPalCapture, error)
}

// Service turns confirmed payments into enrollment and transaction
// rows. Every write path funnels through the same find-or-create so
// webhook retries, concurrent deliveries and the synchronous
// confirmation flow all land on a single enrollment per payment.
type Service struct {
	repo   Repository
	stripe StripeGateway
	paypal PayPalGateway
}

func NewService(repo Repository, stripe StripeGateway, paypal PayPalGateway) *Service {
	return &Service{repo: repo, stripe: stripe, paypal: paypal}
}

// NewServiceFromDB creates a reconciliation service from a GORM DB
// handle with gateway clients configured from the environment.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db), payments.NewStripeClientFromEnv(), payments.NewPayPalClientFromEnv())
}

// RecordEvent persists a webhook delivery idempotently. An event
// without a provider id is keyed by a payload hash so the row still
// dedupes on redelivery of the identical body.
func (s *Service) RecordEvent(ctx context.Context, provider, eventID, eventType string, payload []byte, signatureValid bool) (bool, *models.WebhookEvent, error) {
	_ = ctx
	p := strings.ToLower(strings.TrimSpace(provider))
	if p == "" {
		return false, nil, errors.New("provider is required")
	}
	id := strings.TrimSpace(eventID)
	if id == "" {
		sum := sha256.Sum256(payload)
		id = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.WebhookEvent{
		Provider:        p,
		ProviderEventID: id,
		EventType:       strings.TrimSpace(eventType),
		PayloadJSON:     string(payload),
		SignatureValid:  signatureValid,
		Status:          models.WebhookStatusReceived,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// ProcessEvent is the webhook path: log the delivery, short-circuit
// already-processed duplicates, apply the ledger effect, and stamp the
// outcome on the log row. The returned bool reports whether this
// delivery was fresh.
func (s *Service) ProcessEvent(ctx context.Context, ev *payments.PaymentEvent, payload []byte, signatureValid bool) (bool, error) {
	created, stored, err := s.RecordEvent(ctx, ev.Provider, ev.EventID, ev.RawType, payload, signatureValid)
	if err != nil {
		return false, err
	}
	if !created {
		if stored.Status == models.WebhookStatusProcessed {
			log.Infof("[Reconcile] duplicate %s event %s acknowledged without reprocessing", ev.Provider, ev.EventID)
			return false, nil
		}
		// Providers redeliver under the same event id after an error
		// response. A row still in received or failed state means the
		// ledger effect never landed, so run it again.
		log.Infof("[Reconcile] reprocessing %s event %s left in status %s", ev.Provider, ev.EventID, stored.Status)
	}

	applyErr := s.Apply(ctx, ev)
	status := models.WebhookStatusProcessed
	errMsg := ""
	if applyErr != nil {
		status = models.WebhookStatusFailed
		errMsg = applyErr.Error()
	}
	if err := s.repo.MarkWebhookProcessed(stored.ID, status, errMsg); err != nil {
		log.Errorf("[Reconcile] failed to mark webhook event %d: %v", stored.ID, err)
	}
	return true, applyErr
}

// RecordFailure logs a delivery that could not even be parsed, so the
// audit trail still holds the raw payload and the reason.
func (s *Service) RecordFailure(ctx context.Context, provider, eventType string, payload []byte, signatureValid bool, cause error) {
	created, stored, err := s.RecordEvent(ctx, provider, "", eventType, payload, signatureValid)
	if err != nil {
		log.Errorf("[Reconcile] failed to record unparseable %s webhook: %v", provider, err)
		return
	}
	if !created {
		return
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if err := s.repo.MarkWebhookProcessed(stored.ID, models.WebhookStatusFailed, msg); err != nil {
		log.Errorf("[Reconcile] failed to mark webhook event %d: %v", stored.ID, err)
	}
}

// Apply executes one normalized event against the ledger.
func (s *Service) Apply(ctx context.Context, ev *payments.PaymentEvent) error {
	_ = ctx
	switch ev.Kind {
	case payments.EventSucceeded:
		_, err := s.recordSuccess(ev.Provider, ev.PaymentID, ev.UserID, ev.CourseID, ev.AmountCents, ev.Currency)
		return err
	case payments.EventFailed:
		return s.recordFailed(ev)
	case payments.EventRefunded:
		return s.recordRefund(ev)
	case payments.EventDisputed:
		return s.recordDispute(ev)
	default:
		return fmt.Errorf("%w: %s", payments.ErrUnhandledEventType, ev.RawType)
	}
}

// recordSuccess is the shared happy path for webhooks and synchronous
// confirmation: one completed enrollment per payment, one succeeded
// transaction entry per fresh confirmation.
func (s *Service) recordSuccess(provider, paymentID string, userID, courseID uint64, amountCents int64, currency string) (*models.PaidEnrollment, error) {
	amount := float64(amountCents) / 100

	created, enrollment, err := s.repo.FindOrCreateEnrollment(&models.PaidEnrollment{
		UserID:        userID,
		CourseID:      courseID,
		PaymentID:     paymentID,
		PaymentMethod: provider,
		PaymentStatus: models.PaymentStatusCompleted,
		AmountPaid:    amount,
		Currency:      currency,
	})
	if err != nil {
		return nil, err
	}

	if !created {
		// A pending row from checkout initiation gets promoted; a row
		// that is already completed means this payment was reconciled
		// before and the entry must not be double-booked.
		if enrollment.PaymentStatus == models.PaymentStatusCompleted {
			return enrollment, nil
		}
		if err := s.repo.UpdateEnrollmentFields(enrollment.ID, map[string]interface{}{
			"payment_status": models.PaymentStatusCompleted,
			"amount_paid":    amount,
			"currency":       currency,
		}); err != nil {
			return nil, err
		}
		enrollment.PaymentStatus = models.PaymentStatusCompleted
	}

	if err := s.repo.CreateTransaction(&models.PaymentTransaction{
		UserID:            userID,
		EnrollmentID:      &enrollment.ID,
		PaymentIntentID:   paymentID,
		Amount:            amount,
		Currency:          currency,
		Status:            models.TransactionStatusSucceeded,
		PaymentMethodType: provider,
	}); err != nil {
		return nil, err
	}
	return enrollment, nil
}

func (s *Service) recordFailed(ev *payments.PaymentEvent) error {
	enrollment, err := s.repo.GetEnrollmentByPayment(ev.PaymentID, ev.Provider)
	if err != nil {
		return err
	}

	entry := &models.PaymentTransaction{
		UserID:            ev.UserID,
		PaymentIntentID:   ev.PaymentID,
		Amount:            float64(ev.AmountCents) / 100,
		Currency:          ev.Currency,
		Status:            models.TransactionStatusFailed,
		PaymentMethodType: ev.Provider,
	}
	if enrollment != nil {
		entry.EnrollmentID = &enrollment.ID
		if enrollment.PaymentStatus == models.PaymentStatusPending {
			if err := s.repo.UpdateEnrollmentFields(enrollment.ID, map[string]interface{}{
				"payment_status": models.PaymentStatusFailed,
			}); err != nil {
				return err
			}
		}
	}
	return s.repo.CreateTransaction(entry)
}

func (s *Service) recordRefund(ev *payments.PaymentEvent) error {
	enrollment, err := s.repo.GetEnrollmentByPayment(ev.PaymentID, ev.Provider)
	if err != nil {
		return err
	}
	if enrollment == nil {
		return fmt.Errorf("refund for unknown payment %s/%s", ev.Provider, ev.PaymentID)
	}

	if err := s.repo.UpdateEnrollmentFields(enrollment.ID, map[string]interface{}{
		"payment_status": models.PaymentStatusRefunded,
		"access_revoked": true,
	}); err != nil {
		return err
	}
	return s.repo.CreateTransaction(&models.PaymentTransaction{
		UserID:            enrollment.UserID,
		EnrollmentID:      &enrollment.ID,
		PaymentIntentID:   ev.PaymentID,
		Amount:            float64(ev.AmountCents) / 100,
		Currency:          ev.Currency,
		Status:            models.TransactionStatusRefunded,
		PaymentMethodType: ev.Provider,
	})
}

func (s *Service) recordDispute(ev *payments.PaymentEvent) error {
	enrollment, err := s.repo.GetEnrollmentByPayment(ev.PaymentID, ev.Provider)
	if err != nil {
		return err
	}
	if enrollment == nil {
		return fmt.Errorf("dispute for unknown payment %s/%s", ev.Provider, ev.PaymentID)
	}
	return s.repo.UpdateEnrollmentFields(enrollment.ID, map[string]interface{}{
		"payment_status": models.PaymentStatusDisputed,
	})
}

// ConfirmStripePayment verifies a payment intent directly with Stripe
// and books the enrollment only on a confirmed success. Retrieval
// happens before any ledger write so a spoofed client callback cannot
// grant access.
func (s *Service) ConfirmStripePayment(ctx context.Context, intentID string) (*models.PaidEnrollment, error) {
	intent, err := s.stripe.RetrievePaymentIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if intent.Status != "succeeded" {
		return nil, fmt.Errorf("%w: stripe intent %s is %s", ErrPaymentNotConfirmed, intent.ID, intent.Status)
	}
	userID, courseID, err := payments.ParseStripeMetadata(intent.Metadata)
	if err != nil {
		return nil, err
	}
	return s.recordSuccess(models.PaymentProviderStripe, intent.ID, userID, courseID, intent.Amount, strings.ToUpper(intent.Currency))
}

// CapturePayPalOrder captures an approved order and books the
// enrollment only on a completed capture.
func (s *Service) CapturePayPalOrder(ctx context.Context, orderID string) (*models.PaidEnrollment, error) {
	capture, err := s.paypal.CaptureOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if capture.Status != "COMPLETED" {
		return nil, fmt.Errorf("%w: paypal capture %s is %s", ErrPaymentNotConfirmed, capture.CaptureID, capture.Status)
	}
	userID, courseID, err := payments.ParsePayPalCustomID(capture.CustomID)
	if err != nil {
		return nil, err
	}
	amountCents := payments.AmountCents(capture.Amount)
	return s.recordSuccess(models.PaymentProviderPayPal, capture.CaptureID, userID, courseID, amountCents, capture.Currency)
}

// HasAccess reports whether the user currently holds a valid paid
// enrollment for the course.
func (s *Service) HasAccess(ctx context.Context, userID, courseID uint64) (bool, error) {
	_ = ctx
	enrollment, err := s.repo.GetEnrollmentByUserCourse(userID, courseID)
	if err != nil {
		return false, err
	}
	if enrollment == nil {
		return false, nil
	}
	return enrollment.GrantsAccess(), nil
}
