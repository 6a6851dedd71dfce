package middleware

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

// UserContextMiddleware resolves the caller from an API key and sets
// the request user context. Requests without a key (or with an invalid
// one) continue as anonymous; route guards decide whether that is
// acceptable.
func UserContextMiddleware(c *fiber.Ctx) error {
	apiKey := extractAPIKeyFromHeader(c)
	if apiKey == "" {
		setAnonymous(c)
		return c.Next()
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByAPIKeyHash(models.HashAPIKey(apiKey))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Errorf("[UserContext] api key lookup failed: %v", err)
		}
		setAnonymous(c)
		return c.Next()
	}

	usercontext.SetUserContext(c, usercontext.UserContext{
		UserID:     user.ID,
		Username:   user.Name,
		IsLoggedIn: true,
		IsAdmin:    user.IsAdmin(),
	})
	c.Locals(usercontext.AuthKey, true)
	c.Locals(usercontext.KeyUserID, user.ID)
	c.Locals(usercontext.KeyUsername, user.Name)
	c.Locals(usercontext.KeyIsAdmin, user.IsAdmin())

	return c.Next()
}

func setAnonymous(c *fiber.Ctx) {
	usercontext.SetUserContext(c, usercontext.UserContext{
		IsLoggedIn: false,
		IsAdmin:    false,
	})
	c.Locals(usercontext.AuthKey, false)
	c.Locals(usercontext.KeyIsAdmin, false)
}

func extractAPIKeyFromHeader(c *fiber.Ctx) string {
	apiKey := strings.TrimSpace(c.Get("X-API-Key"))
	if apiKey != "" {
		return apiKey
	}
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
