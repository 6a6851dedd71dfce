package controllers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/JFernandezWeb/LumenLMS/app/models"
	"github.com/JFernandezWeb/LumenLMS/app/repository"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/hcaptcha"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/mediastore"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/usercontext"
)

const maxStorySize = 20 << 20 // 20 MB

// HandleSubmitStory accepts a story document upload. Duplicate files
// are detected by content hash before anything hits object storage.
func HandleSubmitStory(c *fiber.Ctx) error {
	// Captcha gate for anonymous submitters, active only when a secret
	// is configured.
	if hcaptcha.Enabled() && !usercontext.IsLoggedIn(c) {
		ok, err := hcaptcha.Verify(c.FormValue("h-captcha-response"))
		if err != nil || !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "captcha_failed"})
		}
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file_required"})
	}
	if fileHeader.Size > maxStorySize {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "file_too_large"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_file"})
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxStorySize+1))
	if err != nil || int64(len(data)) > maxStorySize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_file"})
	}

	sum := sha256.Sum256(data)
	fileHash := hex.EncodeToString(sum[:])

	repos := repository.GetGlobalRepositories()
	if existing, err := repos.Story.GetByFileHash(fileHash); err == nil && existing != nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"story_id":  existing.ID,
			"status":    existing.Status,
			"duplicate": true,
		})
	}

	cfg, err := mediastore.LoadConfig()
	if err != nil || !cfg.IsEnabled() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "storage_unavailable"})
	}
	client, err := mediastore.NewClient(cfg)
	if err != nil {
		log.Errorf("[Story] media store init: %v", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "storage_unavailable"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now()
	objectKey := cfg.StoryObjectKey(uuid.New().String(), fileHeader.Filename, now)
	if _, err := client.Put(ctx, objectKey, data, fileHeader.Filename); err != nil {
		log.Errorf("[Story] upload %s: %v", objectKey, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upload_failed"})
	}

	story := &models.Story{
		Status:           models.StoryStatusPending,
		StorageKey:       objectKey,
		OriginalFilename: fileHeader.Filename,
		FileHash:         fileHash,
		SubmitterAlias:   c.FormValue("alias"),
		MetaTitle:        c.FormValue("title"),
		MetaAuthor:       c.FormValue("author"),
		IPAddress:        GetClientIP(c),
	}
	if userCtx := usercontext.GetUserContext(c); userCtx.IsLoggedIn {
		userID := userCtx.UserID
		story.UserID = &userID
	}
	if err := repos.Story.Create(story); err != nil {
		// Roll back the orphaned object; the DB row is the source of
		// truth for what exists.
		if delErr := client.Delete(ctx, objectKey); delErr != nil {
			log.Errorf("[Story] orphan cleanup %s: %v", objectKey, delErr)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "save_failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"story_id": story.ID,
		"status":   story.Status,
	})
}

// HandleModerateStory updates a story's moderation status.
func HandleModerateStory(c *fiber.Ctx) error {
	if _, errResp := requireAdmin(c); errResp != nil {
		return errResp
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}
	switch req.Status {
	case models.StoryStatusApproved, models.StoryStatusRejected, models.StoryStatusPending:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_status"})
	}

	repos := repository.GetGlobalRepositories()
	story, err := repos.Story.GetByID(id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "load_failed"})
	}
	if story == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "story_not_found"})
	}

	if err := repos.Story.UpdateStatus(id, req.Status, req.Notes); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "save_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"story_id": id, "status": req.Status})
}

// HandleListStoriesForModeration lists stories by status for the
// moderation queue.
func HandleListStoriesForModeration(c *fiber.Ctx) error {
	if _, errResp := requireAdmin(c); errResp != nil {
		return errResp
	}

	status := c.Query("status", models.StoryStatusPending)
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	stories, err := repository.GetGlobalRepositories().Story.GetByStatus(status, (page-1)*defaultPageSize, defaultPageSize)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "load_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"stories": stories, "page": page})
}
