package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/JFernandezWeb/LumenLMS/app/models"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/database"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/payments"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/reconcile"
)

const webhookTimeout = 15 * time.Second

// HandleStripeWebhook ingests Stripe events. Signature verification is
// a hard gate: a delivery that fails it is logged and rejected before
// any ledger work.
func HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := c.Get("Stripe-Signature")

	stripeClient := payments.NewStripeClientFromEnv()
	svc := reconcile.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
	defer cancel()

	if !payments.VerifyStripeSignature(rawBody, signature, stripeClient.WebhookSecret, payments.DefaultSignatureTolerance, time.Now()) {
		svc.RecordFailure(ctx, models.PaymentProviderStripe, stripeEventType(rawBody), rawBody, false, errors.New("invalid webhook signature"))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature"})
	}

	ev, err := payments.ParseStripeEvent(rawBody)
	if err != nil {
		svc.RecordFailure(ctx, models.PaymentProviderStripe, stripeEventType(rawBody), rawBody, true, err)
		if errors.Is(err, payments.ErrUnhandledEventType) {
			// Events outside the handled set are acknowledged so the
			// provider stops retrying them.
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	fresh, err := svc.ProcessEvent(ctx, ev, rawBody, true)
	if err != nil {
		// 500 tells the provider to retry; the event log row already
		// holds the failure.
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": !fresh})
}

// HandlePayPalWebhook ingests PayPal events. Verification goes through
// PayPal's verification API; enforcement is configurable with enforce
// as the default.
func HandlePayPalWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)

	paypalClient := payments.NewPayPalClientFromEnv()
	svc := reconcile.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
	defer cancel()

	verified, verifyErr := paypalClient.VerifyWebhookSignature(ctx, payments.WebhookVerificationInput{
		TransmissionID:   firstHeaderValue(c, "Paypal-Transmission-Id"),
		TransmissionTime: firstHeaderValue(c, "Paypal-Transmission-Time"),
		TransmissionSig:  firstHeaderValue(c, "Paypal-Transmission-Sig"),
		CertURL:          firstHeaderValue(c, "Paypal-Cert-Url"),
		AuthAlgo:         firstHeaderValue(c, "Paypal-Auth-Algo"),
		Event:            json.RawMessage(rawBody),
	})
	if verifyErr != nil {
		log.Errorf("[Webhook] paypal signature verification errored: %v", verifyErr)
	}
	if !verified {
		if paypalClient.EnforceWebhookVerification {
			svc.RecordFailure(ctx, models.PaymentProviderPayPal, paypalEventType(rawBody), rawBody, false, errors.New("invalid webhook signature"))
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature"})
		}
		log.Warnf("[Webhook] paypal signature verification failed, continuing in log-only mode")
	}

	ev, err := payments.ParsePayPalEvent(rawBody)
	if err != nil {
		svc.RecordFailure(ctx, models.PaymentProviderPayPal, paypalEventType(rawBody), rawBody, verified, err)
		if errors.Is(err, payments.ErrUnhandledEventType) {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	fresh, err := svc.ProcessEvent(ctx, ev, rawBody, verified)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": !fresh})
}

func stripeEventType(payload []byte) string {
	var head struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(payload, &head)
	return head.Type
}

func paypalEventType(payload []byte) string {
	var head struct {
		EventType string `json:"event_type"`
	}
	_ = json.Unmarshal(payload, &head)
	return head.EventType
}
