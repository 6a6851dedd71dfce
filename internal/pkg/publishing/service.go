package publishing

import (
	"context"
	"errors"
	"time"

	"github.com/JFernandezWeb/LumenLMS/app/models"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/versioning"
)

// Action selects what a save does: publish writes the live row, draft
// only appends to the version history.
type Action string

const (
	ActionPublish Action = "publish"
	ActionDraft   Action = "draft"
)

var (
	ErrPostNotFound    = errors.New("blog post not found")
	ErrNoDraftVersions = errors.New("no draft versions to discard")
	ErrUnknownAction   = errors.New("unknown publish action")
	ErrMissingRequired = errors.New("title, slug and content are required")
)

const timeLayout = "2006-01-02 15:04:05"

// PostInput carries the editable fields of a post. Nil pointers mean
// "field not touched in this save"; only present fields reach the
// live row and the version payload.
type PostInput struct {
	Title       *string
	Slug        *string
	Content     *string
	Excerpt     *string
	ImageURL    *string
	Hashtags    *string
	ScheduledAt *time.Time
}

// PostStore is the live-row persistence surface the workflow needs.
type PostStore interface {
	Create(post *models.BlogPost) error
	GetByID(id uint64) (*models.BlogPost, error)
	UpdateFields(id uint64, fields map[string]interface{}) error
}

// VersionStore is satisfied by the versioning engine.
type VersionStore interface {
	CreateVersion(ctx context.Context, entityType versioning.EntityType, entityID uint64, payload map[string]string, status string, authorID *uint64) (uint64, error)
	GetVersions(ctx context.Context, entityType versioning.EntityType, entityID uint64) ([]versioning.VersionRecord, error)
	GetLatestVersion(ctx context.Context, entityType versioning.EntityType, entityID uint64) (*versioning.VersionRecord, error)
	RestoreVersion(ctx context.Context, entityType versioning.EntityType, entityID, versionID uint64, authorID *uint64) (uint64, error)
	DeleteDraftVersions(ctx context.Context, entityType versioning.EntityType, entityID uint64) (int64, error)
}

// Service is the blog-post policy layer deciding when an edit becomes
// live versus staying a pending draft. It is the only writer of blog
// live rows; the versioning engine is the only writer of history rows.
type Service struct {
	posts    PostStore
	versions VersionStore
}

func NewService(posts PostStore, versions VersionStore) *Service {
	return &Service{posts: posts, versions: versions}
}

// CreatePost inserts a new live row and its first version. A draft
// save still creates the live row (unpublished) so drafts have an
// entity to attach to.
func (s *Service) CreatePost(ctx context.Context, input PostInput, action Action, authorID *uint64) (*models.BlogPost, error) {
	if input.Title == nil || input.Slug == nil || input.Content == nil {
		return nil, ErrMissingRequired
	}
	if action != ActionPublish && action != ActionDraft {
		return nil, ErrUnknownAction
	}

	post := &models.BlogPost{
		Title:       *input.Title,
		Slug:        *input.Slug,
		Content:     *input.Content,
		Published:   action == ActionPublish,
		ScheduledAt: input.ScheduledAt,
	}
	if input.Excerpt != nil {
		post.Excerpt = *input.Excerpt
	}
	if input.ImageURL != nil {
		post.ImageURL = *input.ImageURL
	}
	if input.Hashtags != nil {
		post.Hashtags = *input.Hashtags
	}
	if err := post.Validate(); err != nil {
		return nil, err
	}
	if err := s.posts.Create(post); err != nil {
		return nil, err
	}

	status := models.VersionStatusDraft
	if action == ActionPublish {
		status = models.VersionStatusPublished
	}
	if _, err := s.versions.CreateVersion(ctx, versioning.EntityBlogPost, post.ID, input.payload(), status, authorID); err != nil {
		return nil, err
	}
	return post, nil
}

// UpdatePost applies an edit. Publish updates exactly the fields
// present in the input plus the published flag, and appends a
// published version; draft leaves the live row untouched and appends
// a draft version on top of it.
func (s *Service) UpdatePost(ctx context.Context, id uint64, input PostInput, action Action, authorID *uint64) (*models.BlogPost, error) {
	post, err := s.posts.GetByID(id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	switch action {
	case ActionPublish:
		fields := input.liveFields()
		fields["published"] = true
		if err := s.posts.UpdateFields(id, fields); err != nil {
			return nil, err
		}
		if _, err := s.versions.CreateVersion(ctx, versioning.EntityBlogPost, id, input.payload(), models.VersionStatusPublished, authorID); err != nil {
			return nil, err
		}
		return s.posts.GetByID(id)
	case ActionDraft:
		if _, err := s.versions.CreateVersion(ctx, versioning.EntityBlogPost, id, input.payload(), models.VersionStatusDraft, authorID); err != nil {
			return nil, err
		}
		return post, nil
	default:
		return nil, ErrUnknownAction
	}
}

// RestoreVersion appends a new draft carrying an old version's
// payload. The live row is never touched.
func (s *Service) RestoreVersion(ctx context.Context, postID, versionID uint64, authorID *uint64) (uint64, error) {
	return s.versions.RestoreVersion(ctx, versioning.EntityBlogPost, postID, versionID, authorID)
}

// DiscardDrafts wipes every draft version of the post, reverting the
// editor view to live content. Published and archived versions stay.
func (s *Service) DiscardDrafts(ctx context.Context, postID uint64) (int64, error) {
	deleted, err := s.versions.DeleteDraftVersions(ctx, versioning.EntityBlogPost, postID)
	if err != nil {
		return 0, err
	}
	if deleted == 0 {
		return 0, ErrNoDraftVersions
	}
	return deleted, nil
}

// Versions lists the post's history, newest first.
func (s *Service) Versions(ctx context.Context, postID uint64) ([]versioning.VersionRecord, error) {
	return s.versions.GetVersions(ctx, versioning.EntityBlogPost, postID)
}

// EditorView is what the edit screen renders: the live row with the
// newest draft (if any) overlaid on top of it.
type EditorView struct {
	Post     *models.BlogPost
	HasDraft bool
	DraftID  uint64
}

// EditorViewFor loads the post and overlays the latest draft when the
// newest version has draft status. The overlay is a copy; the stored
// live row stays as-is.
func (s *Service) EditorViewFor(ctx context.Context, postID uint64) (*EditorView, error) {
	post, err := s.posts.GetByID(postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	view := &EditorView{Post: post}
	latest, err := s.versions.GetLatestVersion(ctx, versioning.EntityBlogPost, postID)
	if err != nil {
		if errors.Is(err, versioning.ErrVersionNotFound) {
			return view, nil
		}
		return nil, err
	}
	if latest.Status != models.VersionStatusDraft {
		return view, nil
	}

	overlay := *post
	applyPayload(&overlay, latest.Payload)
	view.Post = &overlay
	view.HasDraft = true
	view.DraftID = latest.ID
	return view, nil
}

// payload converts the present input fields into the versioning
// engine's column map.
func (in PostInput) payload() map[string]string {
	payload := make(map[string]string)
	if in.Title != nil {
		payload["title"] = *in.Title
	}
	if in.Slug != nil {
		payload["slug"] = *in.Slug
	}
	if in.Content != nil {
		payload["content"] = *in.Content
	}
	if in.Excerpt != nil {
		payload["excerpt"] = *in.Excerpt
	}
	if in.ImageURL != nil {
		payload["image_url"] = *in.ImageURL
	}
	if in.Hashtags != nil {
		payload["hashtags"] = *in.Hashtags
	}
	if in.ScheduledAt != nil {
		payload["scheduled_at"] = in.ScheduledAt.UTC().Format(timeLayout)
	}
	return payload
}

func (in PostInput) liveFields() map[string]interface{} {
	fields := make(map[string]interface{})
	if in.Title != nil {
		fields["title"] = *in.Title
	}
	if in.Slug != nil {
		fields["slug"] = *in.Slug
	}
	if in.Content != nil {
		fields["content"] = *in.Content
	}
	if in.Excerpt != nil {
		fields["excerpt"] = *in.Excerpt
	}
	if in.ImageURL != nil {
		fields["image_url"] = *in.ImageURL
	}
	if in.Hashtags != nil {
		fields["hashtags"] = *in.Hashtags
	}
	if in.ScheduledAt != nil {
		fields["scheduled_at"] = *in.ScheduledAt
	}
	return fields
}

func applyPayload(post *models.BlogPost, payload map[string]string) {
	if v, ok := payload["title"]; ok {
		post.Title = v
	}
	if v, ok := payload["slug"]; ok {
		post.Slug = v
	}
	if v, ok := payload["content"]; ok {
		post.Content = v
	}
	if v, ok := payload["excerpt"]; ok {
		post.Excerpt = v
	}
	if v, ok := payload["image_url"]; ok {
		post.ImageURL = v
	}
	if v, ok := payload["hashtags"]; ok {
		post.Hashtags = v
	}
	if v, ok := payload["scheduled_at"]; ok && v != "" {
		if t, err := time.Parse(timeLayout, v); err == nil {
			post.ScheduledAt = &t
		}
	}
}
