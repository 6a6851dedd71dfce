package versioning

import (
	"errors"
	"fmt"
	"time"
)

// EntityType identifies one of the content kinds that own a version
// history. The set is closed; resolving an unknown type is an error,
// never a silent no-op.
type EntityType string

const (
	EntityBlogPost EntityType = "blog_post"
	EntityCourse   EntityType = "course"
	EntityLesson   EntityType = "lesson"
)

var (
	ErrUnsupportedEntityType = errors.New("unsupported entity type")
	ErrVersionNotFound       = errors.New("version not found")
	ErrInvalidStatus         = errors.New("invalid version status")
)

// typeSpec binds an entity type to its version table, the foreign key
// column pointing at the live row, and the allow-list of payload
// columns. Adding an entity type is a single edit here.
type typeSpec struct {
	table      string
	foreignKey string
	columns    []string
}

var typeSpecs = map[EntityType]typeSpec{
	EntityBlogPost: {
		table:      "blog_post_versions",
		foreignKey: "post_id",
		columns:    []string{"title", "slug", "content", "excerpt", "image_url", "hashtags", "scheduled_at"},
	},
	EntityCourse: {
		table:      "course_versions",
		foreignKey: "course_id",
		columns: []string{
			"slug", "title", "subtitle", "description", "duration_weeks", "level",
			"price", "currency", "featured_image", "instructor_name", "instructor_bio",
			"what_you_learn", "course_content", "requirements", "target_audience", "testimonials",
		},
	},
	EntityLesson: {
		table:      "lesson_versions",
		foreignKey: "lesson_id",
		columns: []string{
			"module_number", "lesson_number", "title", "description", "video_url",
			"video_duration", "content", "order_index", "is_preview",
		},
	},
}

func specFor(entityType EntityType) (typeSpec, error) {
	spec, ok := typeSpecs[entityType]
	if !ok {
		return typeSpec{}, fmt.Errorf("%w: %s", ErrUnsupportedEntityType, entityType)
	}
	return spec, nil
}

func validStatus(status string) bool {
	switch status {
	case "draft", "published", "archived":
		return true
	default:
		return false
	}
}

// VersionRecord is one immutable snapshot of an entity's editable
// fields. Payload holds only allow-listed columns.
type VersionRecord struct {
	ID            uint64
	EntityID      uint64
	Status        string
	CreatedBy     *uint64
	ChangeSummary string
	CreatedAt     time.Time
	Payload       map[string]string
}
