package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// BlogPost is the live row of a post: the copy currently served to the
// public. Edits land here only when they are published; draft work is
// kept in BlogPostVersion records on top of this row.
type BlogPost struct {
	ID          uint64     `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title" validate:"required,min=3,max=255"`
	Slug        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug" validate:"required,min=3,max=255"`
	Content     string     `gorm:"type:longtext;not null" json:"content" validate:"required"`
	Excerpt     string     `gorm:"type:text" json:"excerpt"`
	ImageURL    string     `gorm:"type:varchar(500)" json:"image_url"`
	Hashtags    string     `gorm:"type:varchar(500)" json:"hashtags"`
	Published   bool       `gorm:"type:tinyint(1);default:0;index" json:"published"`
	ScheduledAt *time.Time `gorm:"type:timestamp;default:null;index" json:"scheduled_at,omitempty"`
	Views       uint64     `gorm:"default:0" json:"views"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (BlogPost) TableName() string {
	return "blog_posts"
}

func (p *BlogPost) Validate() error {
	v := validator.New()
	return v.Struct(p)
}

// VisibleAt reports whether the post is publicly servable at the given
// instant. Scheduled publication is a pure read-time comparison; no
// background job ever flips a flag.
func (p *BlogPost) VisibleAt(now time.Time) bool {
	if !p.Published {
		return false
	}
	return p.ScheduledAt == nil || !p.ScheduledAt.After(now)
}
