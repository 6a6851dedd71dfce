package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/JFernandezWeb/LumenLMS/app/models"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/payments"
)

type paymentKey struct {
	paymentID     string
	paymentMethod string
}

type fakeRepo struct {
	enrollments map[paymentKey]*models.PaidEnrollment
	nextID      uint64

	transactions []models.PaymentTransaction
	events       map[string]*models.WebhookEvent
	nextEventID  uint64
	marks        []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		enrollments: make(map[paymentKey]*models.PaidEnrollment),
		events:      make(map[string]*models.WebhookEvent),
		nextID:      1,
		nextEventID: 1,
	}
}

func (f *fakeRepo) FindOrCreateEnrollment(e *models.PaidEnrollment) (bool, *models.PaidEnrollment, error) {
	key := paymentKey{e.PaymentID, e.PaymentMethod}
	if existing, ok := f.enrollments[key]; ok {
		copied := *existing
		return false, &copied, nil
	}
	e.ID = f.nextID
	f.nextID++
	copied := *e
	f.enrollments[key] = &copied
	result := *e
	return true, &result, nil
}

func (f *fakeRepo) GetEnrollmentByPayment(paymentID, paymentMethod string) (*models.PaidEnrollment, error) {
	if e, ok := f.enrollments[paymentKey{paymentID, paymentMethod}]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeRepo) GetEnrollmentByUserCourse(userID, courseID uint64) (*models.PaidEnrollment, error) {
	for _, e := range f.enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			copied := *e
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) UpdateEnrollmentFields(id uint64, fields map[string]interface{}) error {
	for _, e := range f.enrollments {
		if e.ID != id {
			continue
		}
		if v, ok := fields["payment_status"]; ok {
			e.PaymentStatus = v.(string)
		}
		if v, ok := fields["access_revoked"]; ok {
			e.AccessRevoked = v.(bool)
		}
		if v, ok := fields["amount_paid"]; ok {
			e.AmountPaid = v.(float64)
		}
		if v, ok := fields["currency"]; ok {
			e.Currency = v.(string)
		}
		return nil
	}
	return errors.New("no such enrollment")
}

func (f *fakeRepo) CreateTransaction(entry *models.PaymentTransaction) error {
	f.transactions = append(f.transactions, *entry)
	return nil
}

func (f *fakeRepo) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	key := event.Provider + "/" + event.ProviderEventID
	if existing, ok := f.events[key]; ok {
		copied := *existing
		return false, &copied, nil
	}
	event.ID = f.nextEventID
	f.nextEventID++
	copied := *event
	f.events[key] = &copied
	result := *event
	return true, &result, nil
}

func (f *fakeRepo) MarkWebhookProcessed(id uint64, status, processingError string) error {
	f.marks = append(f.marks, status)
	for _, ev := range f.events {
		if ev.ID == id {
			ev.Status = status
			ev.ErrorMessage = processingError
		}
	}
	return nil
}

type fakeStripe struct {
	intent *payments.StripePaymentIntent
	err    error
}

func (f *fakeStripe) RetrievePaymentIntent(ctx context.Context, id string) (*payments.StripePaymentIntent, error) {
	return f.intent, f.err
}

type fakePayPal struct {
	capture *payments.PayPalCapture
	err     error
}

func (f *fakePayPal) CaptureOrder(ctx context.Context, orderID string) (*payments.PayPalCapture, error) {
	return f.capture, f.err
}

func succeededEvent() *payments.PaymentEvent {
	return &payments.PaymentEvent{
		Provider:    models.PaymentProviderStripe,
		EventID:     "evt_1",
		RawType:     "payment_intent.succeeded",
		Kind:        payments.EventSucceeded,
		PaymentID:   "pi_1",
		UserID:      7,
		CourseID:    12,
		AmountCents: 4999,
		Currency:    "EUR",
	}
}

func TestProcessEventSucceededCreatesEnrollmentAndTransaction(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)

	fresh, err := svc.ProcessEvent(context.Background(), succeededEvent(), []byte(`{}`), true)
	if err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}
	if !fresh {
		t.Fatal("first delivery must be fresh")
	}

	e, _ := repo.GetEnrollmentByPayment("pi_1", models.PaymentProviderStripe)
	if e == nil {
		t.Fatal("no enrollment created")
	}
	if e.PaymentStatus != models.PaymentStatusCompleted || e.AmountPaid != 49.99 {
		t.Fatalf("unexpected enrollment: %+v", e)
	}
	if len(repo.transactions) != 1 || repo.transactions[0].Status != models.TransactionStatusSucceeded {
		t.Fatalf("expected one succeeded transaction, got %+v", repo.transactions)
	}
	if repo.transactions[0].EnrollmentID == nil || *repo.transactions[0].EnrollmentID != e.ID {
		t.Fatal("transaction not linked to enrollment")
	}
	if len(repo.marks) != 1 || repo.marks[0] != models.WebhookStatusProcessed {
		t.Fatalf("event not marked processed: %v", repo.marks)
	}
}

func TestProcessEventDuplicateDeliveryIsAcknowledgedOnce(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	if _, err := svc.ProcessEvent(ctx, succeededEvent(), []byte(`{}`), true); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	fresh, err := svc.ProcessEvent(ctx, succeededEvent(), []byte(`{}`), true)
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if fresh {
		t.Fatal("redelivery must not count as fresh")
	}
	if len(repo.enrollments) != 1 {
		t.Fatalf("expected 1 enrollment after redelivery, got %d", len(repo.enrollments))
	}
	if len(repo.transactions) != 1 {
		t.Fatalf("expected 1 transaction after redelivery, got %d", len(repo.transactions))
	}
}

func TestProcessEventRedeliveryAfterFailureIsReprocessed(t *testing.T) {
	// A refund that arrives before its payment fails to apply. The
	// provider redelivers it under the same event id after booking
	// succeeds; the redelivery must re-run the effect instead of being
	// swallowed as a duplicate.
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	refund := succeededEvent()
	refund.EventID = "evt_refund_1"
	refund.Kind = payments.EventRefunded
	refund.RawType = "charge.refunded"

	fresh, err := svc.ProcessEvent(ctx, refund, []byte(`{}`), true)
	if err == nil {
		t.Fatal("refund for unknown payment must fail")
	}
	if !fresh {
		t.Fatal("first delivery must be fresh")
	}
	if len(repo.marks) != 1 || repo.marks[0] != models.WebhookStatusFailed {
		t.Fatalf("failed delivery not stamped: %v", repo.marks)
	}

	if _, err := svc.ProcessEvent(ctx, succeededEvent(), []byte(`{}`), true); err != nil {
		t.Fatalf("success delivery: %v", err)
	}

	fresh, err = svc.ProcessEvent(ctx, refund, []byte(`{}`), true)
	if err != nil {
		t.Fatalf("redelivered refund: %v", err)
	}
	if fresh {
		t.Fatal("redelivery must not count as fresh")
	}

	e, _ := repo.GetEnrollmentByPayment("pi_1", models.PaymentProviderStripe)
	if e.PaymentStatus != models.PaymentStatusRefunded || !e.AccessRevoked {
		t.Fatalf("redelivered refund not applied: %+v", e)
	}
	if ok, _ := svc.HasAccess(ctx, 7, 12); ok {
		t.Fatal("refunded enrollment must not grant access")
	}
	if repo.marks[len(repo.marks)-1] != models.WebhookStatusProcessed {
		t.Fatalf("redelivery not stamped processed: %v", repo.marks)
	}
}

func TestProcessEventProcessedDuplicateDoesNotReapply(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	if _, err := svc.ProcessEvent(ctx, succeededEvent(), []byte(`{}`), true); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if _, err := svc.ProcessEvent(ctx, succeededEvent(), []byte(`{}`), true); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if len(repo.marks) != 1 {
		t.Fatalf("processed duplicate must not re-run Apply, marks: %v", repo.marks)
	}
}

func TestApplySucceededTwiceWithDistinctEventsBooksOnce(t *testing.T) {
	// Same payment arriving under two different event ids must still
	// collapse to one enrollment and one booking.
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	first := succeededEvent()
	second := succeededEvent()
	second.EventID = "evt_2"

	if _, err := svc.ProcessEvent(ctx, first, []byte(`{}`), true); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := svc.ProcessEvent(ctx, second, []byte(`{}`), true); err != nil {
		t.Fatalf("second: %v", err)
	}
	if len(repo.enrollments) != 1 {
		t.Fatalf("expected 1 enrollment, got %d", len(repo.enrollments))
	}
	if len(repo.transactions) != 1 {
		t.Fatalf("completed payment must not be double-booked, got %d transactions", len(repo.transactions))
	}
}

func TestApplyRefundRevokesAccess(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	if err := svc.Apply(ctx, succeededEvent()); err != nil {
		t.Fatalf("success: %v", err)
	}

	refund := succeededEvent()
	refund.Kind = payments.EventRefunded
	refund.RawType = "charge.refunded"
	if err := svc.Apply(ctx, refund); err != nil {
		t.Fatalf("refund: %v", err)
	}

	e, _ := repo.GetEnrollmentByPayment("pi_1", models.PaymentProviderStripe)
	if e.PaymentStatus != models.PaymentStatusRefunded || !e.AccessRevoked {
		t.Fatalf("refund not applied: %+v", e)
	}
	if e.GrantsAccess() {
		t.Fatal("refunded enrollment must not grant access")
	}
	if len(repo.transactions) != 2 || repo.transactions[1].Status != models.TransactionStatusRefunded {
		t.Fatalf("expected refunded transaction entry, got %+v", repo.transactions)
	}
}

func TestApplyDisputeOnlyFlipsStatus(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	if err := svc.Apply(ctx, succeededEvent()); err != nil {
		t.Fatalf("success: %v", err)
	}
	dispute := succeededEvent()
	dispute.Kind = payments.EventDisputed
	if err := svc.Apply(ctx, dispute); err != nil {
		t.Fatalf("dispute: %v", err)
	}

	e, _ := repo.GetEnrollmentByPayment("pi_1", models.PaymentProviderStripe)
	if e.PaymentStatus != models.PaymentStatusDisputed {
		t.Fatalf("status = %s, want disputed", e.PaymentStatus)
	}
	if len(repo.transactions) != 1 {
		t.Fatal("dispute must not append a transaction entry")
	}
}

func TestApplyFailedWithoutEnrollmentStillLogsTransaction(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)

	failed := succeededEvent()
	failed.Kind = payments.EventFailed
	if err := svc.Apply(context.Background(), failed); err != nil {
		t.Fatalf("failed event: %v", err)
	}
	if len(repo.transactions) != 1 || repo.transactions[0].Status != models.TransactionStatusFailed {
		t.Fatalf("expected failed transaction entry, got %+v", repo.transactions)
	}
	if repo.transactions[0].EnrollmentID != nil {
		t.Fatal("no enrollment existed, entry must not be linked")
	}
}

func TestConfirmStripePaymentRequiresSucceededIntent(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeStripe{intent: &payments.StripePaymentIntent{
		ID:     "pi_9",
		Status: "requires_payment_method",
	}}, nil)

	_, err := svc.ConfirmStripePayment(context.Background(), "pi_9")
	if !errors.Is(err, ErrPaymentNotConfirmed) {
		t.Fatalf("expected ErrPaymentNotConfirmed, got %v", err)
	}
	if len(repo.enrollments) != 0 || len(repo.transactions) != 0 {
		t.Fatal("unconfirmed payment must not write ledger rows")
	}
}

func TestConfirmStripePaymentBooksOnSuccess(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeStripe{intent: &payments.StripePaymentIntent{
		ID:       "pi_9",
		Status:   "succeeded",
		Amount:   4999,
		Currency: "eur",
		Metadata: map[string]string{"userId": "7", "courseId": "12"},
	}}, nil)

	e, err := svc.ConfirmStripePayment(context.Background(), "pi_9")
	if err != nil {
		t.Fatalf("ConfirmStripePayment: %v", err)
	}
	if e.UserID != 7 || e.CourseID != 12 || e.PaymentStatus != models.PaymentStatusCompleted {
		t.Fatalf("unexpected enrollment: %+v", e)
	}
	if e.Currency != "EUR" {
		t.Fatalf("currency = %s, want EUR", e.Currency)
	}
}

func TestCapturePayPalOrderBooksOnCompleted(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, &fakePayPal{capture: &payments.PayPalCapture{
		OrderID:   "ORD-1",
		CaptureID: "CAP-1",
		Status:    "COMPLETED",
		CustomID:  "7-12",
		Amount:    "49.99",
		Currency:  "EUR",
	}})

	e, err := svc.CapturePayPalOrder(context.Background(), "ORD-1")
	if err != nil {
		t.Fatalf("CapturePayPalOrder: %v", err)
	}
	if e.PaymentID != "CAP-1" || e.PaymentMethod != models.PaymentProviderPayPal {
		t.Fatalf("unexpected enrollment: %+v", e)
	}
	if e.AmountPaid != 49.99 {
		t.Fatalf("amount = %v, want 49.99", e.AmountPaid)
	}
}

func TestHasAccess(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	ok, err := svc.HasAccess(ctx, 7, 12)
	if err != nil || ok {
		t.Fatalf("no enrollment must mean no access, got (%v, %v)", ok, err)
	}

	if err := svc.Apply(ctx, succeededEvent()); err != nil {
		t.Fatalf("success: %v", err)
	}
	ok, err = svc.HasAccess(ctx, 7, 12)
	if err != nil || !ok {
		t.Fatalf("completed enrollment must grant access, got (%v, %v)", ok, err)
	}

	refund := succeededEvent()
	refund.Kind = payments.EventRefunded
	if err := svc.Apply(ctx, refund); err != nil {
		t.Fatalf("refund: %v", err)
	}
	ok, err = svc.HasAccess(ctx, 7, 12)
	if err != nil || ok {
		t.Fatalf("revoked enrollment must not grant access, got (%v, %v)", ok, err)
	}
}
