package payments

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// EventKind is the normalized outcome a webhook reports. Every
// provider event type collapses to one of these before the ledger
// sees it.
type EventKind string

const (
	EventSucceeded EventKind = "succeeded"
	EventFailed    EventKind = "failed"
	EventRefunded  EventKind = "refunded"
	EventDisputed  EventKind = "disputed"
)

var (
	ErrUnhandledEventType = errors.New("unhandled webhook event type")
	ErrMissingMetadata    = errors.New("payment metadata missing userId or courseId")
	ErrMalformedCustomID  = errors.New("malformed custom_id, expected <userID>-<courseID>")
)

// PaymentEvent is a provider-neutral webhook event as the
// reconciliation pipeline consumes it.
type PaymentEvent struct {
	Provider    string
	EventID     string
	RawType     string
	Kind        EventKind
	PaymentID   string
	UserID      uint64
	CourseID    uint64
	AmountCents int64
	Currency    string
}

// ParseStripeMetadata extracts the enrollment target from a payment
// intent's metadata bag. Both keys must be present and numeric.
func ParseStripeMetadata(metadata map[string]string) (userID, courseID uint64, err error) {
	rawUser, okUser := metadata["userId"]
	rawCourse, okCourse := metadata["courseId"]
	if !okUser || !okCourse {
		return 0, 0, ErrMissingMetadata
	}
	userID, err = strconv.ParseUint(strings.TrimSpace(rawUser), 10, 64)
	if err != nil || userID == 0 {
		return 0, 0, fmt.Errorf("%w: bad userId %q", ErrMissingMetadata, rawUser)
	}
	courseID, err = strconv.ParseUint(strings.TrimSpace(rawCourse), 10, 64)
	if err != nil || courseID == 0 {
		return 0, 0, fmt.Errorf("%w: bad courseId %q", ErrMissingMetadata, rawCourse)
	}
	return userID, courseID, nil
}

// FormatPayPalCustomID packs the enrollment target into the single
// custom_id string PayPal carries through to capture webhooks.
func FormatPayPalCustomID(userID, courseID uint64) string {
	return fmt.Sprintf("%d-%d", userID, courseID)
}

// ParsePayPalCustomID is the inverse of FormatPayPalCustomID.
func ParsePayPalCustomID(customID string) (userID, courseID uint64, err error) {
	left, right, found := strings.Cut(strings.TrimSpace(customID), "-")
	if !found {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedCustomID, customID)
	}
	userID, err = strconv.ParseUint(left, 10, 64)
	if err != nil || userID == 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedCustomID, customID)
	}
	courseID, err = strconv.ParseUint(right, 10, 64)
	if err != nil || courseID == 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedCustomID, customID)
	}
	return userID, courseID, nil
}

// ParseStripeEvent normalizes a raw Stripe webhook body.
func ParseStripeEvent(payload []byte) (*PaymentEvent, error) {
	var raw struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID            string            `json:"id"`
				Status        string            `json:"status"`
				Amount        int64             `json:"amount"`
				AmountRefund  int64             `json:"amount_refunded"`
				Currency      string            `json:"currency"`
				Metadata      map[string]string `json:"metadata"`
				PaymentIntent string            `json:"payment_intent"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw.ID) == "" {
		return nil, errors.New("stripe event missing id")
	}

	var kind EventKind
	switch raw.Type {
	case "payment_intent.succeeded":
		kind = EventSucceeded
	case "payment_intent.payment_failed":
		kind = EventFailed
	case "charge.refunded":
		kind = EventRefunded
	case "charge.dispute.created":
		kind = EventDisputed
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnhandledEventType, raw.Type)
	}

	// Intent events carry the enrollment target in metadata. Refunds
	// and disputes link to the ledger by payment intent alone; Stripe
	// does not copy intent metadata onto charge or dispute objects.
	var userID, courseID uint64
	switch kind {
	case EventSucceeded, EventFailed:
		var err error
		userID, courseID, err = ParseStripeMetadata(raw.Data.Object.Metadata)
		if err != nil {
			return nil, err
		}
	case EventRefunded, EventDisputed:
		if strings.TrimSpace(raw.Data.Object.PaymentIntent) == "" {
			return nil, fmt.Errorf("stripe %s event missing payment_intent", raw.Type)
		}
	}

	// Charge events reference the intent; intent events are the intent.
	paymentID := raw.Data.Object.ID
	if raw.Data.Object.PaymentIntent != "" {
		paymentID = raw.Data.Object.PaymentIntent
	}

	amount := raw.Data.Object.Amount
	if kind == EventRefunded && raw.Data.Object.AmountRefund > 0 {
		amount = raw.Data.Object.AmountRefund
	}

	return &PaymentEvent{
		Provider:    "stripe",
		EventID:     raw.ID,
		RawType:     raw.Type,
		Kind:        kind,
		PaymentID:   paymentID,
		UserID:      userID,
		CourseID:    courseID,
		AmountCents: amount,
		Currency:    strings.ToUpper(raw.Data.Object.Currency),
	}, nil
}

// ParsePayPalEvent normalizes a raw PayPal webhook body.
func ParsePayPalEvent(payload []byte) (*PaymentEvent, error) {
	var raw struct {
		ID        string `json:"id"`
		EventType string `json:"event_type"`
		Resource  struct {
			ID       string `json:"id"`
			Status   string `json:"status"`
			CustomID string `json:"custom_id"`
			Amount   struct {
				CurrencyCode string `json:"currency_code"`
				Value        string `json:"value"`
			} `json:"amount"`
		} `json:"resource"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw.ID) == "" {
		return nil, errors.New("paypal event missing id")
	}

	var kind EventKind
	switch raw.EventType {
	case "PAYMENT.CAPTURE.COMPLETED":
		kind = EventSucceeded
	case "PAYMENT.CAPTURE.DENIED":
		kind = EventFailed
	case "PAYMENT.CAPTURE.REFUNDED":
		kind = EventRefunded
	case "CUSTOMER.DISPUTE.CREATED":
		kind = EventDisputed
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnhandledEventType, raw.EventType)
	}

	userID, courseID, err := ParsePayPalCustomID(raw.Resource.CustomID)
	if err != nil {
		return nil, err
	}

	return &PaymentEvent{
		Provider:    "paypal",
		EventID:     raw.ID,
		RawType:     raw.EventType,
		Kind:        kind,
		PaymentID:   raw.Resource.ID,
		UserID:      userID,
		CourseID:    courseID,
		AmountCents: AmountCents(raw.Resource.Amount.Value),
		Currency:    strings.ToUpper(raw.Resource.Amount.CurrencyCode),
	}, nil
}

// AmountCents converts PayPal's decimal string ("12.34") to integer
// cents. Malformed values yield 0 rather than an error; the ledger
// stores the raw payload either way.
func AmountCents(value string) int64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	whole, frac, _ := strings.Cut(value, ".")
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0
	}
	cents := units * 100
	if frac != "" {
		if len(frac) > 2 {
			frac = frac[:2]
		}
		for len(frac) < 2 {
			frac += "0"
		}
		sub, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0
		}
		if cents < 0 {
			cents -= sub
		} else {
			cents += sub
		}
	}
	return cents
}
