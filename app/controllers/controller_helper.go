package controllers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// parseIDParam reads a positive numeric route parameter.
func parseIDParam(c *fiber.Ctx, name string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Params(name)), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// firstHeaderValue returns the first non-empty header among keys.
func firstHeaderValue(c *fiber.Ctx, keys ...string) string {
	for _, k := range keys {
		v := strings.TrimSpace(c.Get(k))
		if v != "" {
			return v
		}
	}
	return ""
}

// GetClientIP determines the actual client IP address considering proxies.
func GetClientIP(c *fiber.Ctx) string {
	if cfIP := strings.TrimSpace(c.Get("CF-Connecting-IP")); cfIP != "" {
		return cfIP
	}
	xff := strings.Split(c.Get("X-Forwarded-For"), ",")
	if len(xff) > 0 {
		if ip := strings.TrimSpace(xff[0]); ip != "" {
			return ip
		}
	}
	return c.IP()
}
