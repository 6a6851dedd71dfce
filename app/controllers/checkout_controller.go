package controllers

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/JFernandezWeb/LumenLMS/app/models"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/database"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/payments"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/reconcile"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/usercontext"
)

const checkoutTimeout = 15 * time.Second

type checkoutRequest struct {
	CourseID uint64 `json:"course_id"`
}

// HandleCreateStripeIntent opens a Stripe payment for a published
// course. The price comes from the course row, never the client.
func HandleCreateStripeIntent(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login_required"})
	}

	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil || req.CourseID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}

	course, err := models.FindPublishedCourse(database.GetDB(), req.CourseID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "course_not_found"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkoutTimeout)
	defer cancel()

	client := payments.NewStripeClientFromEnv()
	intent, err := client.CreatePaymentIntent(ctx, amountToCents(course.Price), course.Currency, userCtx.UserID, course.ID)
	if err != nil {
		log.Errorf("[Checkout] stripe intent for user %d course %d: %v", userCtx.UserID, course.ID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "payment_unavailable"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"payment_intent_id": intent.ID,
		"client_secret":     intent.ClientSecret,
		"amount":            intent.Amount,
		"currency":          intent.Currency,
	})
}

// HandleConfirmStripePayment books the enrollment after the client
// reports success. The server re-checks the intent with Stripe first.
func HandleConfirmStripePayment(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login_required"})
	}

	var req struct {
		PaymentIntentID string `json:"payment_intent_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.PaymentIntentID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkoutTimeout)
	defer cancel()

	svc := reconcile.NewServiceFromDB(database.GetDB())
	enrollment, err := svc.ConfirmStripePayment(ctx, req.PaymentIntentID)
	if err != nil {
		log.Errorf("[Checkout] stripe confirm %s: %v", req.PaymentIntentID, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "payment_not_confirmed"})
	}
	if enrollment.UserID != userCtx.UserID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "payment_not_confirmed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"enrollment_id": enrollment.ID,
		"course_id":     enrollment.CourseID,
		"status":        enrollment.PaymentStatus,
	})
}

// HandleCreatePayPalOrder opens a PayPal order for a published course.
func HandleCreatePayPalOrder(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login_required"})
	}

	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil || req.CourseID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}

	course, err := models.FindPublishedCourse(database.GetDB(), req.CourseID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "course_not_found"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkoutTimeout)
	defer cancel()

	client := payments.NewPayPalClientFromEnv()
	order, err := client.CreateOrder(ctx, fmt.Sprintf("%.2f", course.Price), course.Currency, userCtx.UserID, course.ID)
	if err != nil {
		log.Errorf("[Checkout] paypal order for user %d course %d: %v", userCtx.UserID, course.ID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "payment_unavailable"})
	}

	approveURL := ""
	for _, link := range order.Links {
		if link.Rel == "approve" {
			approveURL = link.Href
			break
		}
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"order_id":    order.ID,
		"status":      order.Status,
		"approve_url": approveURL,
	})
}

// HandleCapturePayPalOrder captures an approved order and books the
// enrollment on a completed capture.
func HandleCapturePayPalOrder(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login_required"})
	}

	var req struct {
		OrderID string `json:"order_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.OrderID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkoutTimeout)
	defer cancel()

	svc := reconcile.NewServiceFromDB(database.GetDB())
	enrollment, err := svc.CapturePayPalOrder(ctx, req.OrderID)
	if err != nil {
		log.Errorf("[Checkout] paypal capture %s: %v", req.OrderID, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "payment_not_confirmed"})
	}
	if enrollment.UserID != userCtx.UserID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "payment_not_confirmed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"enrollment_id": enrollment.ID,
		"course_id":     enrollment.CourseID,
		"status":        enrollment.PaymentStatus,
	})
}

func amountToCents(price float64) int64 {
	return int64(math.Round(price * 100))
}
