package controllers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/JFernandezWeb/LumenLMS/app/repository"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/cache"
)

const defaultPageSize = 20

const blogListCacheTTL = 60 * time.Second

// HandleListBlogPosts serves the public post list. Only posts visible
// at request time appear; scheduling is evaluated here, not by a job.
// Pages are cached briefly, which also bounds how stale a scheduled
// post's appearance can be.
func HandleListBlogPosts(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * defaultPageSize

	cacheKey := fmt.Sprintf("blog:list:p%d", page)
	if cached, err := cache.Get(cacheKey); err == nil && cached != "" {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Status(fiber.StatusOK).SendString(cached)
	}

	posts, err := repository.GetGlobalRepositories().Blog.GetVisible(time.Now(), offset, defaultPageSize)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "load_failed"})
	}

	body := fiber.Map{"posts": posts, "page": page}
	if encoded, err := json.Marshal(body); err == nil {
		_ = cache.Set(cacheKey, string(encoded), blogListCacheTTL)
	}
	return c.Status(fiber.StatusOK).JSON(body)
}

// HandleGetBlogPost serves one public post by slug. Unpublished and
// future-scheduled posts 404 identically so their existence leaks
// nothing.
func HandleGetBlogPost(c *fiber.Ctx) error {
	slug := c.Params("slug")
	repo := repository.GetGlobalRepositories().Blog

	post, err := repo.GetBySlug(slug)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "load_failed"})
	}
	if post == nil || !post.VisibleAt(time.Now()) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "post_not_found"})
	}

	_ = repo.IncrementViews(post.ID)
	return c.Status(fiber.StatusOK).JSON(post)
}
