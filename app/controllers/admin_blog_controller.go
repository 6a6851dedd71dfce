package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/JFernandezWeb/LumenLMS/app/repository"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/database"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/dbgateway"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/publishing"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/usercontext"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/versioning"
)

const adminTimeout = 10 * time.Second

type blogPostRequest struct {
	Title       *string `json:"title"`
	Slug        *string `json:"slug"`
	Content     *string `json:"content"`
	Excerpt     *string `json:"excerpt"`
	ImageURL    *string `json:"image_url"`
	Hashtags    *string `json:"hashtags"`
	ScheduledAt *string `json:"scheduled_at"`
	Action      string  `json:"action"`
}

func publishingService() (*publishing.Service, error) {
	gw, err := dbgateway.NewFromGorm(database.GetDB())
	if err != nil {
		return nil, err
	}
	versions := versioning.NewService(gw)
	posts := repository.GetGlobalRepositories().Blog
	return publishing.NewService(posts, versions), nil
}

func requireAdmin(c *fiber.Ctx) (usercontext.UserContext, error) {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return userCtx, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login_required"})
	}
	if !userCtx.IsAdmin {
		return userCtx, c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin_required"})
	}
	return userCtx, nil
}

func (r blogPostRequest) toInput() (publishing.PostInput, publishing.Action, error) {
	input := publishing.PostInput{
		Title:    r.Title,
		Slug:     r.Slug,
		Content:  r.Content,
		Excerpt:  r.Excerpt,
		ImageURL: r.ImageURL,
		Hashtags: r.Hashtags,
	}
	if r.ScheduledAt != nil && *r.ScheduledAt != "" {
		t, err := time.Parse(time.RFC3339, *r.ScheduledAt)
		if err != nil {
			return input, "", errors.New("scheduled_at must be RFC3339")
		}
		input.ScheduledAt = &t
	}

	action := publishing.Action(r.Action)
	if action == "" {
		action = publishing.ActionDraft
	}
	return input, action, nil
}

// HandleAdminCreateBlogPost creates a post, published or as a draft
// per the request's action.
func HandleAdminCreateBlogPost(c *fiber.Ctx) error {
	userCtx, errResp := requireAdmin(c)
	if errResp != nil {
		return errResp
	}

	var req blogPostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}
	input, action, err := req.toInput()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	svc, err := publishingService()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "service_unavailable"})
	}
	ctx, cancel := context.WithTimeout(context.Background(), adminTimeout)
	defer cancel()

	authorID := userCtx.UserID
	post, err := svc.CreatePost(ctx, input, action, &authorID)
	if err != nil {
		if errors.Is(err, publishing.ErrMissingRequired) || errors.Is(err, publishing.ErrUnknownAction) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "create_failed"})
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// HandleAdminUpdateBlogPost applies an edit: publish writes the live
// row, draft only appends history.
func HandleAdminUpdateBlogPost(c *fiber.Ctx) error {
	userCtx, errResp := requireAdmin(c)
	if errResp != nil {
		return errResp
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req blogPostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}
	input, action, err := req.toInput()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	svc, err := publishingService()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "service_unavailable"})
	}
	ctx, cancel := context.WithTimeout(context.Background(), adminTimeout)
	defer cancel()

	authorID := userCtx.UserID
	post, err := svc.UpdatePost(ctx, id, input, action, &authorID)
	if err != nil {
		if errors.Is(err, publishing.ErrPostNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "post_not_found"})
		}
		if errors.Is(err, publishing.ErrUnknownAction) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "update_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

// HandleAdminGetBlogEditor returns the live row with the newest draft
// overlaid, which is what the edit form renders.
func HandleAdminGetBlogEditor(c *fiber.Ctx) error {
	if _, errResp := requireAdmin(c); errResp != nil {
		return errResp
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	svc, err := publishingService()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "service_unavailable"})
	}
	ctx, cancel := context.WithTimeout(context.Background(), adminTimeout)
	defer cancel()

	view, err := svc.EditorViewFor(ctx, id)
	if err != nil {
		if errors.Is(err, publishing.ErrPostNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "post_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "load_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(view)
}

// HandleAdminListBlogVersions lists a post's history, newest first.
func HandleAdminListBlogVersions(c *fiber.Ctx) error {
	if _, errResp := requireAdmin(c); errResp != nil {
		return errResp
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	svc, err := publishingService()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "service_unavailable"})
	}
	ctx, cancel := context.WithTimeout(context.Background(), adminTimeout)
	defer cancel()

	versions, err := svc.Versions(ctx, id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "load_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"versions": versions})
}

// HandleAdminRestoreBlogVersion appends an old version's payload as a
// fresh draft.
func HandleAdminRestoreBlogVersion(c *fiber.Ctx) error {
	userCtx, errResp := requireAdmin(c)
	if errResp != nil {
		return errResp
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	versionID, err := parseIDParam(c, "versionId")
	if err != nil {
		return err
	}

	svc, err := publishingService()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "service_unavailable"})
	}
	ctx, cancel := context.WithTimeout(context.Background(), adminTimeout)
	defer cancel()

	authorID := userCtx.UserID
	draftID, err := svc.RestoreVersion(ctx, id, versionID, &authorID)
	if err != nil {
		if errors.Is(err, versioning.ErrVersionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "version_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "restore_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"draft_version_id": draftID})
}

// HandleAdminDiscardBlogDrafts deletes every draft of the post.
func HandleAdminDiscardBlogDrafts(c *fiber.Ctx) error {
	if _, errResp := requireAdmin(c); errResp != nil {
		return errResp
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	svc, err := publishingService()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "service_unavailable"})
	}
	ctx, cancel := context.WithTimeout(context.Background(), adminTimeout)
	defer cancel()

	deleted, err := svc.DiscardDrafts(ctx, id)
	if err != nil {
		if errors.Is(err, publishing.ErrNoDraftVersions) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no_drafts"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "discard_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"discarded": deleted})
}

// HandleAdminDeleteBlogVersion hard-deletes one snapshot. The live
// post is untouched.
func HandleAdminDeleteBlogVersion(c *fiber.Ctx) error {
	if _, errResp := requireAdmin(c); errResp != nil {
		return errResp
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	versionID, err := parseIDParam(c, "versionId")
	if err != nil {
		return err
	}

	gw, err := dbgateway.NewFromGorm(database.GetDB())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "service_unavailable"})
	}
	versions := versioning.NewService(gw)
	ctx, cancel := context.WithTimeout(context.Background(), adminTimeout)
	defer cancel()

	version, err := versions.GetVersion(ctx, versioning.EntityBlogPost, versionID)
	if err != nil || version.EntityID != id {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "version_not_found"})
	}
	if err := versions.DeleteVersion(ctx, versioning.EntityBlogPost, versionID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "delete_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"deleted_version_id": versionID})
}

// HandleAdminDiffBlogVersions renders a word-level HTML diff between
// two versions' content.
func HandleAdminDiffBlogVersions(c *fiber.Ctx) error {
	if _, errResp := requireAdmin(c); errResp != nil {
		return errResp
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	fromID, err := parseIDParam(c, "fromId")
	if err != nil {
		return err
	}
	toID, err := parseIDParam(c, "toId")
	if err != nil {
		return err
	}

	gw, err := dbgateway.NewFromGorm(database.GetDB())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "service_unavailable"})
	}
	versions := versioning.NewService(gw)
	ctx, cancel := context.WithTimeout(context.Background(), adminTimeout)
	defer cancel()

	from, err := versions.GetVersion(ctx, versioning.EntityBlogPost, fromID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "version_not_found"})
	}
	to, err := versions.GetVersion(ctx, versioning.EntityBlogPost, toID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "version_not_found"})
	}
	if from.EntityID != id || to.EntityID != id {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "version_not_found"})
	}

	diff := versioning.CompareText(from.Payload["content"], to.Payload["content"])
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"diff_html": diff})
}
