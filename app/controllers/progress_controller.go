package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/JFernandezWeb/LumenLMS/app/repository"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/certificates"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/database"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/progress"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/reconcile"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/usercontext"
)

func progressService() *progress.Service {
	repos := repository.GetGlobalRepositories()
	return progress.NewService(repos.Progress, repos.Course, certificates.NewServiceFromDB(database.GetDB()))
}

// HandleSaveLessonProgress upserts the caller's progress for a lesson.
func HandleSaveLessonProgress(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login_required"})
	}
	lessonID, err := parseIDParam(c, "lessonId")
	if err != nil {
		return err
	}

	var req struct {
		Completed          bool   `json:"completed"`
		ProgressPercentage int    `json:"progress_percentage"`
		TimeSpent          int    `json:"time_spent"`
		LastPosition       int    `json:"last_position"`
		Notes              string `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	lesson, err := repository.GetGlobalRepositories().Course.GetLessonByID(lessonID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "load_failed"})
	}
	if lesson == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "lesson_not_found"})
	}
	if !lesson.IsPreview {
		access := reconcile.NewServiceFromDB(database.GetDB())
		hasAccess, err := access.HasAccess(ctx, userCtx.UserID, lesson.CourseID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "load_failed"})
		}
		if !hasAccess {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "enrollment_required"})
		}
	}

	row, summary, err := progressService().SaveLessonProgress(ctx, userCtx.UserID, lessonID, progress.Input{
		Completed:          req.Completed,
		ProgressPercentage: req.ProgressPercentage,
		TimeSpent:          req.TimeSpent,
		LastPosition:       req.LastPosition,
		Notes:              req.Notes,
	})
	if err != nil {
		if errors.Is(err, progress.ErrLessonNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "lesson_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "save_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"progress": row, "course": summary})
}

// HandleGetCourseProgress reports the caller's standing in a course.
func HandleGetCourseProgress(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login_required"})
	}
	courseID, err := parseIDParam(c, "courseId")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	summary, err := progressService().CourseSummary(ctx, userCtx.UserID, courseID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "load_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(summary)
}
