package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/JFernandezWeb/LumenLMS/app/controllers"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// Account
	api.Post("/account/register", controllers.HandleRegister)
	api.Get("/account/me", middleware.RequireAuth, controllers.HandleGetMe)
	api.Post("/account/api-key/rotate", middleware.RequireAuth, controllers.HandleRotateAPIKey)

	// Checkout
	api.Post("/checkout/stripe/intent", middleware.RequireAuth, controllers.HandleCreateStripeIntent)
	api.Post("/checkout/stripe/confirm", middleware.RequireAuth, controllers.HandleConfirmStripePayment)
	api.Post("/checkout/paypal/order", middleware.RequireAuth, controllers.HandleCreatePayPalOrder)
	api.Post("/checkout/paypal/capture", middleware.RequireAuth, controllers.HandleCapturePayPalOrder)

	// Provider webhooks. Signature checks happen in the controllers,
	// not here; unauthenticated by nature.
	api.Post("/webhooks/stripe", controllers.HandleStripeWebhook)
	api.Post("/webhooks/paypal", controllers.HandlePayPalWebhook)

	// Learning
	api.Post("/quizzes/:id/submit", middleware.RequireAuth, controllers.HandleSubmitQuiz)
	api.Post("/lessons/:lessonId/progress", middleware.RequireAuth, controllers.HandleSaveLessonProgress)
	api.Get("/courses/:courseId/progress", middleware.RequireAuth, controllers.HandleGetCourseProgress)

	// Certificates
	api.Post("/courses/:courseId/certificate", middleware.RequireAuth, controllers.HandleIssueCertificate)
	api.Get("/certificates", middleware.RequireAuth, controllers.HandleListMyCertificates)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
