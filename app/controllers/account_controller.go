package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/JFernandezWeb/LumenLMS/app/models"
	"github.com/JFernandezWeb/LumenLMS/app/repository"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/usercontext"
)

type registerRequest struct {
	Name  string `json:"name" form:"name"`
	Email string `json:"email" form:"email"`
}

// HandleRegister creates an account and returns its API key. The raw
// key is only ever returned here; afterwards the server knows just the
// hash.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	user := models.User{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
		Role:  models.RoleStudent,
	}
	if err := user.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	repo := repository.GetGlobalRepositories().User
	if existing, err := repo.GetByEmail(user.Email); err == nil && existing != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "email_taken"})
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Errorf("[Account] email lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "registration_failed"})
	}

	rawKey, err := user.AssignNewAPIKey()
	if err != nil {
		log.Errorf("[Account] api key generation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "registration_failed"})
	}
	if err := repo.Create(&user); err != nil {
		log.Errorf("[Account] user create failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "registration_failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":    user,
		"api_key": rawKey,
	})
}

// HandleGetMe returns the authenticated account.
func HandleGetMe(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	if !uc.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}
	user, err := repository.GetGlobalRepositories().User.GetByID(uc.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
		}
		log.Errorf("[Account] user lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "load_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"user": user})
}

// HandleRotateAPIKey replaces the caller's API key and returns the new
// raw key once. The previous key stops working immediately.
func HandleRotateAPIKey(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	if !uc.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}
	repo := repository.GetGlobalRepositories().User
	user, err := repo.GetByID(uc.UserID)
	if err != nil {
		log.Errorf("[Account] user lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "rotation_failed"})
	}
	rawKey, err := user.AssignNewAPIKey()
	if err != nil {
		log.Errorf("[Account] api key generation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "rotation_failed"})
	}
	if err := repo.Update(user); err != nil {
		log.Errorf("[Account] api key update failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "rotation_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"api_key": rawKey})
}
