package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/JFernandezWeb/LumenLMS/app/controllers"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/middleware"
)

func (h HttpRouter) registerAdminRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin", middleware.RequireAdmin)

	// Blog management over the publishing workflow
	adminGroup.Post("/blog", controllers.HandleAdminCreateBlogPost)
	adminGroup.Put("/blog/:id", controllers.HandleAdminUpdateBlogPost)
	adminGroup.Get("/blog/:id/editor", controllers.HandleAdminGetBlogEditor)
	adminGroup.Get("/blog/:id/versions", controllers.HandleAdminListBlogVersions)
	adminGroup.Post("/blog/:id/versions/:versionId/restore", controllers.HandleAdminRestoreBlogVersion)
	adminGroup.Delete("/blog/:id/versions/:versionId", controllers.HandleAdminDeleteBlogVersion)
	adminGroup.Delete("/blog/:id/drafts", controllers.HandleAdminDiscardBlogDrafts)
	adminGroup.Get("/blog/:id/versions/:fromId/diff/:toId", controllers.HandleAdminDiffBlogVersions)

	// Course management
	adminGroup.Post("/courses", controllers.HandleAdminCreateCourse)
	adminGroup.Put("/courses/:id", controllers.HandleAdminUpdateCourse)
	adminGroup.Post("/courses/:id/lessons", controllers.HandleAdminCreateLesson)
	adminGroup.Get("/courses/:id/versions", controllers.HandleAdminListCourseVersions)

	// Story moderation
	adminGroup.Get("/stories", controllers.HandleListStoriesForModeration)
	adminGroup.Post("/stories/:id/moderate", controllers.HandleModerateStory)
}
