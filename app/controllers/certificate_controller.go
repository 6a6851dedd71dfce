package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/JFernandezWeb/LumenLMS/internal/pkg/certificates"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/database"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/usercontext"
)

// HandleIssueCertificate issues (or returns the existing) certificate
// for the caller's completed course.
func HandleIssueCertificate(c *fiber.Ctx) error {
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

	svc := certificates.NewServiceFromDB(database.GetDB())
	cert, err := svc.Issue(ctx, userCtx.UserID, courseID)
	if err != nil {
		if errors.Is(err, certificates.ErrEnrollmentNotEligible) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "course_not_completed"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "issue_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(cert)
}

// HandleVerifyCertificate resolves a public certificate code. No auth:
// verification links are shared with third parties.
func HandleVerifyCertificate(c *fiber.Ctx) error {
	code := c.Params("code")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	svc := certificates.NewServiceFromDB(database.GetDB())
	cert, err := svc.Verify(ctx, code)
	if err != nil {
		if errors.Is(err, certificates.ErrCertificateNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "certificate_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "load_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"certificate_code": cert.CertificateCode,
		"course_id":        cert.CourseID,
		"issue_date":       cert.IssueDate,
		"verified":         cert.Verified,
	})
}

// HandleListMyCertificates lists the caller's certificates.
func HandleListMyCertificates(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login_required"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	svc := certificates.NewServiceFromDB(database.GetDB())
	certs, err := svc.ListForUser(ctx, userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "load_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"certificates": certs})
}
