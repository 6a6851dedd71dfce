package controllers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/JFernandezWeb/LumenLMS/app/models"
	"github.com/JFernandezWeb/LumenLMS/app/repository"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/database"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/dbgateway"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/reconcile"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/usercontext"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/versioning"
)

func versioningService() (*versioning.Service, error) {
	gw, err := dbgateway.NewFromGorm(database.GetDB())
	if err != nil {
		return nil, err
	}
	return versioning.NewService(gw), nil
}

// HandleListCourses serves the public course catalog.
func HandleListCourses(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * defaultPageSize

	courses, err := repository.GetGlobalRepositories().Course.GetPublished(offset, defaultPageSize)
	if err != nil {
		log.Errorf("[Course] catalog load failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "load_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"courses": courses, "page": page})
}

// HandleGetCourse serves one published course with its published
// lessons. Lesson content stays hidden unless the lesson is a preview
// or the caller owns an active enrollment.
func HandleGetCourse(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	course, err := models.FindPublishedCourse(database.GetDB(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
		}
		log.Errorf("[Course] load failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "load_failed"})
	}

	lessons, err := repository.GetGlobalRepositories().Course.GetLessonsByCourse(id)
	if err != nil {
		log.Errorf("[Course] lesson load failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "load_failed"})
	}

	hasAccess := false
	if userCtx := usercontext.GetUserContext(c); userCtx.IsLoggedIn {
		ctx, cancel := context.WithTimeout(context.Background(), adminTimeout)
		defer cancel()
		svc := reconcile.NewServiceFromDB(database.GetDB())
		hasAccess, _ = svc.HasAccess(ctx, userCtx.UserID, id)
	}
	visible := make([]models.Lesson, 0, len(lessons))
	for _, lesson := range lessons {
		if !lesson.Published {
			continue
		}
		if !hasAccess && !lesson.IsPreview {
			lesson.Content = ""
			lesson.VideoURL = ""
		}
		visible = append(visible, lesson)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"course":   course,
		"lessons":  visible,
		"enrolled": hasAccess,
	})
}

// HandleAdminCreateCourse creates a course and records its first
// version snapshot.
func HandleAdminCreateCourse(c *fiber.Ctx) error {
	userCtx, errResp := requireAdmin(c)
	if errResp != nil {
		return errResp
	}

	var course models.Course
	if err := c.BodyParser(&course); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}
	course.ID = 0
	if err := course.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}

	if err := repository.GetGlobalRepositories().Course.Create(&course); err != nil {
		log.Errorf("[Course] create failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "create_failed"})
	}

	if err := recordCourseVersion(&course, userCtx.UserID); err != nil {
		log.Errorf("[Course] version snapshot failed for course %d: %v", course.ID, err)
	}
	return c.Status(fiber.StatusCreated).JSON(course)
}

// HandleAdminUpdateCourse updates the live course row and appends a
// version snapshot of the new state.
func HandleAdminUpdateCourse(c *fiber.Ctx) error {
	userCtx, errResp := requireAdmin(c)
	if errResp != nil {
		return errResp
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	repo := repository.GetGlobalRepositories().Course
	course, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
		}
		log.Errorf("[Course] load failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "load_failed"})
	}

	if err := c.BodyParser(course); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}
	course.ID = id
	if err := course.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}

	if err := repo.Update(course); err != nil {
		log.Errorf("[Course] update failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "update_failed"})
	}
	if err := recordCourseVersion(course, userCtx.UserID); err != nil {
		log.Errorf("[Course] version snapshot failed for course %d: %v", course.ID, err)
	}
	return c.Status(fiber.StatusOK).JSON(course)
}

// HandleAdminCreateLesson adds a lesson to a course.
func HandleAdminCreateLesson(c *fiber.Ctx) error {
	if _, errResp := requireAdmin(c); errResp != nil {
		return errResp
	}
	courseID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	repo := repository.GetGlobalRepositories().Course
	if _, err := repo.GetByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "load_failed"})
	}

	var lesson models.Lesson
	if err := c.BodyParser(&lesson); err != nil || lesson.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}
	lesson.ID = 0
	lesson.CourseID = courseID

	if err := repo.CreateLesson(&lesson); err != nil {
		log.Errorf("[Course] lesson create failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "create_failed"})
	}
	return c.Status(fiber.StatusCreated).JSON(lesson)
}

// HandleAdminListCourseVersions lists the version history of a course.
func HandleAdminListCourseVersions(c *fiber.Ctx) error {
	if _, errResp := requireAdmin(c); errResp != nil {
		return errResp
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	svc, err := versioningService()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "service_unavailable"})
	}
	ctx, cancel := context.WithTimeout(context.Background(), adminTimeout)
	defer cancel()

	versions, err := svc.GetVersions(ctx, versioning.EntityCourse, id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "load_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"versions": versions})
}

func recordCourseVersion(course *models.Course, authorID uint64) error {
	svc, err := versioningService()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), adminTimeout)
	defer cancel()

	status := "draft"
	if course.Published {
		status = "published"
	}
	payload := map[string]string{
		"slug":            course.Slug,
		"title":           course.Title,
		"subtitle":        course.Subtitle,
		"description":     course.Description,
		"duration_weeks":  strconv.Itoa(course.DurationWeeks),
		"level":           course.Level,
		"price":           strconv.FormatFloat(course.Price, 'f', 2, 64),
		"currency":        course.Currency,
		"featured_image":  course.FeaturedImage,
		"instructor_name": course.InstructorName,
		"instructor_bio":  course.InstructorBio,
		"what_you_learn":  course.WhatYouLearn,
		"course_content":  course.CourseContent,
		"requirements":    course.Requirements,
		"target_audience": course.TargetAudience,
		"testimonials":    course.Testimonials,
	}
	_, err = svc.CreateVersion(ctx, versioning.EntityCourse, course.ID, payload, status, &authorID)
	return err
}
