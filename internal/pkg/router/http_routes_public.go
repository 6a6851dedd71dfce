package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/JFernandezWeb/LumenLMS/app/controllers"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Published content. Visibility is decided at read time, so these
	// routes need no auth.
	app.Get("/blog", controllers.HandleListBlogPosts)
	app.Get("/blog/:slug", controllers.HandleGetBlogPost)

	app.Get("/courses", controllers.HandleListCourses)
	app.Get("/courses/:id", controllers.HandleGetCourse)

	// Certificate verification is public by design; the code is the
	// only credential.
	app.Get("/certificates/verify/:code", controllers.HandleVerifyCertificate)

	// Story submissions accept anonymous uploads.
	app.Post("/stories", controllers.HandleSubmitStory)
}
