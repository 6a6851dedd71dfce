package versioning

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/JFernandezWeb/LumenLMS/internal/pkg/dbgateway"
)

// fakeGateway captures statements and serves canned rows.
type fakeGateway struct {
	execQueries []string
	execArgs    [][]interface{}
	execResult  dbgateway.Result

	fetchOneRow  map[string]string
	fetchAllRows []map[string]string
}

func (f *fakeGateway) Exec(_ context.Context, query string, args ...interface{}) (dbgateway.Result, error) {
	f.execQueries = append(f.execQueries, query)
	f.execArgs = append(f.execArgs, args)
	return f.execResult, nil
}

func (f *fakeGateway) FetchOne(_ context.Context, _ string, _ ...interface{}) (map[string]string, error) {
	return f.fetchOneRow, nil
}

func (f *fakeGateway) FetchAll(_ context.Context, _ string, _ ...interface{}) ([]map[string]string, error) {
	return f.fetchAllRows, nil
}

func newTestService(gw *fakeGateway) *Service {
	s := NewService(gw)
	s.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestCreateVersionFiltersUnknownColumns(t *testing.T) {
	gw := &fakeGateway{execResult: dbgateway.Result{LastInsertID: 7}}
	svc := newTestService(gw)

	id, err := svc.CreateVersion(context.Background(), EntityBlogPost, 42, map[string]string{
		"title":        "Hello",
		"content":      "Body",
		"evil_column":  "DROP TABLE",
		"payment_id":   "nope",
		"scheduled_at": "2026-04-01 00:00:00",
	}, "draft", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 7 {
		t.Fatalf("expected last insert id 7, got %d", id)
	}

	query := gw.execQueries[0]
	if !strings.Contains(query, "INSERT INTO blog_post_versions") {
		t.Fatalf("unexpected table in query: %s", query)
	}
	if strings.Contains(query, "evil_column") || strings.Contains(query, "payment_id") {
		t.Fatalf("unknown columns must be dropped, got query: %s", query)
	}
	for _, col := range []string{"post_id", "status", "title", "content", "scheduled_at"} {
		if !strings.Contains(query, col) {
			t.Fatalf("expected column %q in query: %s", col, query)
		}
	}
}

func TestCreateVersionEmptyPayloadStillInserts(t *testing.T) {
	gw := &fakeGateway{execResult: dbgateway.Result{LastInsertID: 3}}
	svc := newTestService(gw)

	id, err := svc.CreateVersion(context.Background(), EntityLesson, 5, map[string]string{"bogus": "x"}, "published", nil)
	if err != nil {
		t.Fatalf("metadata-only version must be allowed: %v", err)
	}
	if id != 3 {
		t.Fatalf("expected id 3, got %d", id)
	}
	if !strings.Contains(gw.execQueries[0], "lesson_versions") {
		t.Fatalf("unexpected query: %s", gw.execQueries[0])
	}
}

func TestCreateVersionRejectsUnknownEntityType(t *testing.T) {
	svc := newTestService(&fakeGateway{})
	_, err := svc.CreateVersion(context.Background(), EntityType("podcast"), 1, nil, "draft", nil)
	if !errors.Is(err, ErrUnsupportedEntityType) {
		t.Fatalf("expected ErrUnsupportedEntityType, got %v", err)
	}
}

func TestCreateVersionRejectsInvalidStatus(t *testing.T) {
	svc := newTestService(&fakeGateway{})
	_, err := svc.CreateVersion(context.Background(), EntityBlogPost, 1, nil, "live", nil)
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestRestoreVersionCreatesDraftFromPayload(t *testing.T) {
	gw := &fakeGateway{
		execResult: dbgateway.Result{LastInsertID: 99},
		fetchOneRow: map[string]string{
			"id":         "11",
			"post_id":    "42",
			"status":     "published",
			"created_at": "2026-01-15 08:30:00",
			"title":      "Old Title",
			"content":    "Old Body",
		},
	}
	svc := newTestService(gw)

	id, err := svc.RestoreVersion(context.Background(), EntityBlogPost, 42, 11, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 99 {
		t.Fatalf("expected new draft id 99, got %d", id)
	}

	// The restore must append an INSERT, never an UPDATE of the
	// original version or the live row.
	if len(gw.execQueries) != 1 || !strings.HasPrefix(gw.execQueries[0], "INSERT INTO blog_post_versions") {
		t.Fatalf("expected a single insert, got %v", gw.execQueries)
	}
	args := gw.execArgs[0]
	foundDraft := false
	for _, a := range args {
		if a == "draft" {
			foundDraft = true
		}
		if a == "published" {
			t.Fatalf("restored version must be forced to draft, args: %v", args)
		}
	}
	if !foundDraft {
		t.Fatalf("expected draft status in insert args: %v", args)
	}
}

func TestRestoreVersionNotFound(t *testing.T) {
	svc := newTestService(&fakeGateway{})
	_, err := svc.RestoreVersion(context.Background(), EntityBlogPost, 42, 999, nil)
	if !errors.Is(err, ErrVersionNotFound) {
		t.Fatalf("expected ErrVersionNotFound, got %v", err)
	}
}

func TestGetVersionsNewestFirstParsing(t *testing.T) {
	gw := &fakeGateway{fetchAllRows: []map[string]string{
		{"id": "3", "post_id": "42", "status": "draft", "created_at": "2026-02-02 12:00:00", "title": "B"},
		{"id": "2", "post_id": "42", "status": "published", "created_at": "2026-02-01 12:00:00", "title": "A"},
	}}
	svc := newTestService(gw)

	versions, err := svc.GetVersions(context.Background(), EntityBlogPost, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(versions))
	}
	if versions[0].ID != 3 || versions[0].Status != "draft" || versions[0].Payload["title"] != "B" {
		t.Fatalf("unexpected first record: %+v", versions[0])
	}
	if versions[0].EntityID != 42 {
		t.Fatalf("foreign key not mapped to EntityID: %+v", versions[0])
	}
	if versions[0].CreatedAt.IsZero() {
		t.Fatalf("created_at not parsed: %+v", versions[0])
	}
}

func TestDeleteDraftVersionsTargetsOnlyDrafts(t *testing.T) {
	gw := &fakeGateway{execResult: dbgateway.Result{RowsAffected: 3}}
	svc := newTestService(gw)

	n, err := svc.DeleteDraftVersions(context.Background(), EntityBlogPost, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 deleted drafts, got %d", n)
	}
	query := gw.execQueries[0]
	if !strings.Contains(query, "status = 'draft'") {
		t.Fatalf("delete must be scoped to drafts: %s", query)
	}
}
