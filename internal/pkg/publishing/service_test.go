package publishing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JFernandezWeb/LumenLMS/app/models"
	"github.com/JFernandezWeb/LumenLMS/internal/pkg/versioning"
)

type fakePostStore struct {
	posts        map[uint64]*models.BlogPost
	nextID       uint64
	updateCalls  []map[string]interface{}
	updatedPosts []uint64
}

func newFakePostStore() *fakePostStore {
	return &fakePostStore{posts: make(map[uint64]*models.BlogPost), nextID: 1}
}

func (f *fakePostStore) Create(post *models.BlogPost) error {
	post.ID = f.nextID
	f.nextID++
	copied := *post
	f.posts[post.ID] = &copied
	return nil
}

func (f *fakePostStore) GetByID(id uint64) (*models.BlogPost, error) {
	p, ok := f.posts[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (f *fakePostStore) UpdateFields(id uint64, fields map[string]interface{}) error {
	f.updateCalls = append(f.updateCalls, fields)
	f.updatedPosts = append(f.updatedPosts, id)
	p, ok := f.posts[id]
	if !ok {
		return errors.New("no such post")
	}
	for k, v := range fields {
		switch k {
		case "title":
			p.Title = v.(string)
		case "slug":
			p.Slug = v.(string)
		case "content":
			p.Content = v.(string)
		case "excerpt":
			p.Excerpt = v.(string)
		case "image_url":
			p.ImageURL = v.(string)
		case "hashtags":
			p.Hashtags = v.(string)
		case "published":
			p.Published = v.(bool)
		case "scheduled_at":
			t := v.(time.Time)
			p.ScheduledAt = &t
		}
	}
	return nil
}

type createdVersion struct {
	entityID uint64
	payload  map[string]string
	status   string
}

type fakeVersionStore struct {
	created       []createdVersion
	latest        *versioning.VersionRecord
	deletedDrafts int64
	restoredID    uint64
}

func (f *fakeVersionStore) CreateVersion(ctx context.Context, et versioning.EntityType, entityID uint64, payload map[string]string, status string, authorID *uint64) (uint64, error) {
	f.created = append(f.created, createdVersion{entityID: entityID, payload: payload, status: status})
	return uint64(len(f.created)), nil
}

func (f *fakeVersionStore) GetVersions(ctx context.Context, et versioning.EntityType, entityID uint64) ([]versioning.VersionRecord, error) {
	if f.latest == nil {
		return nil, nil
	}
	return []versioning.VersionRecord{*f.latest}, nil
}

func (f *fakeVersionStore) GetLatestVersion(ctx context.Context, et versioning.EntityType, entityID uint64) (*versioning.VersionRecord, error) {
	if f.latest == nil {
		return nil, versioning.ErrVersionNotFound
	}
	return f.latest, nil
}

func (f *fakeVersionStore) RestoreVersion(ctx context.Context, et versioning.EntityType, entityID, versionID uint64, authorID *uint64) (uint64, error) {
	f.restoredID = versionID
	return 99, nil
}

func (f *fakeVersionStore) DeleteDraftVersions(ctx context.Context, et versioning.EntityType, entityID uint64) (int64, error) {
	return f.deletedDrafts, nil
}

func str(s string) *string { return &s }

func seedPost(posts *fakePostStore) uint64 {
	post := &models.BlogPost{
		Title:     "Live Title",
		Slug:      "live-title",
		Content:   "live content",
		Published: true,
	}
	posts.Create(post)
	return post.ID
}

func TestCreatePostPublishSetsLiveAndVersion(t *testing.T) {
	posts := newFakePostStore()
	versions := &fakeVersionStore{}
	svc := NewService(posts, versions)

	post, err := svc.CreatePost(context.Background(), PostInput{
		Title:   str("Hello"),
		Slug:    str("hello"),
		Content: str("body"),
	}, ActionPublish, nil)
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if !post.Published {
		t.Fatal("expected a published live row")
	}
	if len(versions.created) != 1 {
		t.Fatalf("expected 1 version, got %d", len(versions.created))
	}
	if got := versions.created[0].status; got != models.VersionStatusPublished {
		t.Fatalf("version status = %q, want published", got)
	}
}

func TestCreatePostDraftLeavesRowUnpublished(t *testing.T) {
	posts := newFakePostStore()
	versions := &fakeVersionStore{}
	svc := NewService(posts, versions)

	post, err := svc.CreatePost(context.Background(), PostInput{
		Title:   str("Hello"),
		Slug:    str("hello"),
		Content: str("body"),
	}, ActionDraft, nil)
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if post.Published {
		t.Fatal("draft create must not publish the live row")
	}
	if got := versions.created[0].status; got != models.VersionStatusDraft {
		t.Fatalf("version status = %q, want draft", got)
	}
}

func TestUpdatePostPublishTouchesOnlyPresentFields(t *testing.T) {
	posts := newFakePostStore()
	versions := &fakeVersionStore{}
	svc := NewService(posts, versions)
	id := seedPost(posts)

	_, err := svc.UpdatePost(context.Background(), id, PostInput{
		Content: str("new content"),
	}, ActionPublish, nil)
	if err != nil {
		t.Fatalf("UpdatePost: %v", err)
	}
	if len(posts.updateCalls) != 1 {
		t.Fatalf("expected 1 live update, got %d", len(posts.updateCalls))
	}
	fields := posts.updateCalls[0]
	if len(fields) != 2 {
		t.Fatalf("expected only content and published in update, got %v", fields)
	}
	if fields["content"] != "new content" || fields["published"] != true {
		t.Fatalf("unexpected update fields: %v", fields)
	}
	stored, _ := posts.GetByID(id)
	if stored.Title != "Live Title" {
		t.Fatal("untouched fields must survive a partial publish")
	}
}

func TestUpdatePostDraftNeverWritesLiveRow(t *testing.T) {
	posts := newFakePostStore()
	versions := &fakeVersionStore{}
	svc := NewService(posts, versions)
	id := seedPost(posts)

	_, err := svc.UpdatePost(context.Background(), id, PostInput{
		Title:   str("Draft Title"),
		Content: str("draft content"),
	}, ActionDraft, nil)
	if err != nil {
		t.Fatalf("UpdatePost: %v", err)
	}
	if len(posts.updateCalls) != 0 {
		t.Fatal("draft save must not touch the live row")
	}
	stored, _ := posts.GetByID(id)
	if stored.Title != "Live Title" || stored.Content != "live content" {
		t.Fatal("live row changed by a draft save")
	}
	if got := versions.created[0].status; got != models.VersionStatusDraft {
		t.Fatalf("version status = %q, want draft", got)
	}
}

func TestUpdatePostMissing(t *testing.T) {
	svc := NewService(newFakePostStore(), &fakeVersionStore{})
	_, err := svc.UpdatePost(context.Background(), 42, PostInput{Title: str("x")}, ActionDraft, nil)
	if !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestEditorViewOverlaysNewestDraft(t *testing.T) {
	posts := newFakePostStore()
	versions := &fakeVersionStore{
		latest: &versioning.VersionRecord{
			ID:     7,
			Status: models.VersionStatusDraft,
			Payload: map[string]string{
				"title":   "Draft Title",
				"content": "draft content",
			},
		},
	}
	svc := NewService(posts, versions)
	id := seedPost(posts)

	view, err := svc.EditorViewFor(context.Background(), id)
	if err != nil {
		t.Fatalf("EditorViewFor: %v", err)
	}
	if !view.HasDraft || view.DraftID != 7 {
		t.Fatalf("expected draft overlay with id 7, got %+v", view)
	}
	if view.Post.Title != "Draft Title" || view.Post.Content != "draft content" {
		t.Fatalf("draft payload not overlaid: %+v", view.Post)
	}
	if view.Post.Slug != "live-title" {
		t.Fatal("fields absent from the draft must come from the live row")
	}
	stored, _ := posts.GetByID(id)
	if stored.Title != "Live Title" {
		t.Fatal("overlay must not mutate the stored live row")
	}
}

func TestEditorViewWithoutDraft(t *testing.T) {
	posts := newFakePostStore()
	versions := &fakeVersionStore{
		latest: &versioning.VersionRecord{
			ID:      3,
			Status:  models.VersionStatusPublished,
			Payload: map[string]string{"title": "Old Published"},
		},
	}
	svc := NewService(posts, versions)
	id := seedPost(posts)

	view, err := svc.EditorViewFor(context.Background(), id)
	if err != nil {
		t.Fatalf("EditorViewFor: %v", err)
	}
	if view.HasDraft {
		t.Fatal("published newest version must not count as a draft")
	}
	if view.Post.Title != "Live Title" {
		t.Fatal("expected plain live content")
	}
}

func TestDiscardDraftsRequiresAtLeastOne(t *testing.T) {
	svc := NewService(newFakePostStore(), &fakeVersionStore{deletedDrafts: 0})
	_, err := svc.DiscardDrafts(context.Background(), 1)
	if !errors.Is(err, ErrNoDraftVersions) {
		t.Fatalf("expected ErrNoDraftVersions, got %v", err)
	}

	svc = NewService(newFakePostStore(), &fakeVersionStore{deletedDrafts: 3})
	n, err := svc.DiscardDrafts(context.Background(), 1)
	if err != nil || n != 3 {
		t.Fatalf("expected 3 discarded drafts, got %d, %v", n, err)
	}
}

func TestVisibleAtScheduling(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	cases := []struct {
		name string
		post models.BlogPost
		want bool
	}{
		{"unpublished", models.BlogPost{Published: false}, false},
		{"published no schedule", models.BlogPost{Published: true}, true},
		{"published future schedule", models.BlogPost{Published: true, ScheduledAt: &future}, false},
		{"published past schedule", models.BlogPost{Published: true, ScheduledAt: &past}, true},
		{"published schedule equals now", models.BlogPost{Published: true, ScheduledAt: &now}, true},
	}
	for _, tc := range cases {
		if got := tc.post.VisibleAt(now); got != tc.want {
			t.Errorf("%s: VisibleAt = %v, want %v", tc.name, got, tc.want)
		}
	}
}
