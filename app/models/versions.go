package models

import "time"

// Version statuses. A version row is immutable once written; only a
// hard delete ever removes one.
const (
	VersionStatusDraft     = "draft"
	VersionStatusPublished = "published"
	VersionStatusArchived  = "archived"
)

// BlogPostVersion is one snapshot of a post's editable fields. The
// payload columns mirror the allow-list the versioning engine applies
// for blog posts.
type BlogPostVersion struct {
	ID            uint64    `gorm:"primaryKey" json:"id"`
	PostID        uint64    `gorm:"not null;index" json:"post_id"`
	Status        string    `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	CreatedBy     *uint64   `gorm:"index" json:"created_by,omitempty"`
	ChangeSummary string    `gorm:"type:text" json:"change_summary"`
	Title         string    `gorm:"type:varchar(255)" json:"title"`
	Slug          string    `gorm:"type:varchar(255)" json:"slug"`
	Content       string    `gorm:"type:longtext" json:"content"`
	Excerpt       string    `gorm:"type:text" json:"excerpt"`
	ImageURL      string    `gorm:"type:varchar(500)" json:"image_url"`
	Hashtags      string    `gorm:"type:varchar(500)" json:"hashtags"`
	ScheduledAt   string    `gorm:"type:varchar(64)" json:"scheduled_at"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (BlogPostVersion) TableName() string {
	return "blog_post_versions"
}

// CourseVersion snapshots the marketing/content fields of a course.
type CourseVersion struct {
	ID             uint64    `gorm:"primaryKey" json:"id"`
	CourseID       uint64    `gorm:"not null;index" json:"course_id"`
	Status         string    `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	CreatedBy      *uint64   `gorm:"index" json:"created_by,omitempty"`
	ChangeSummary  string    `gorm:"type:text" json:"change_summary"`
	Slug           string    `gorm:"type:varchar(255)" json:"slug"`
	Title          string    `gorm:"type:varchar(255)" json:"title"`
	Subtitle       string    `gorm:"type:varchar(500)" json:"subtitle"`
	Description    string    `gorm:"type:longtext" json:"description"`
	DurationWeeks  string    `gorm:"type:varchar(20)" json:"duration_weeks"`
	Level          string    `gorm:"type:varchar(50)" json:"level"`
	Price          string    `gorm:"type:varchar(20)" json:"price"`
	Currency       string    `gorm:"type:varchar(10)" json:"currency"`
	FeaturedImage  string    `gorm:"type:varchar(500)" json:"featured_image"`
	InstructorName string    `gorm:"type:varchar(255)" json:"instructor_name"`
	InstructorBio  string    `gorm:"type:text" json:"instructor_bio"`
	WhatYouLearn   string    `gorm:"type:longtext" json:"what_you_learn"`
	CourseContent  string    `gorm:"type:longtext" json:"course_content"`
	Requirements   string    `gorm:"type:text" json:"requirements"`
	TargetAudience string    `gorm:"type:text" json:"target_audience"`
	Testimonials   string    `gorm:"type:longtext" json:"testimonials"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (CourseVersion) TableName() string {
	return "course_versions"
}

// LessonVersion snapshots a lesson's editable fields.
type LessonVersion struct {
	ID            uint64    `gorm:"primaryKey" json:"id"`
	LessonID      uint64    `gorm:"not null;index" json:"lesson_id"`
	Status        string    `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	CreatedBy     *uint64   `gorm:"index" json:"created_by,omitempty"`
	ChangeSummary string    `gorm:"type:text" json:"change_summary"`
	ModuleNumber  string    `gorm:"type:varchar(20)" json:"module_number"`
	LessonNumber  string    `gorm:"type:varchar(20)" json:"lesson_number"`
	Title         string    `gorm:"type:varchar(255)" json:"title"`
	Description   string    `gorm:"type:text" json:"description"`
	VideoURL      string    `gorm:"type:varchar(500)" json:"video_url"`
	VideoDuration string    `gorm:"type:varchar(20)" json:"video_duration"`
	Content       string    `gorm:"type:longtext" json:"content"`
	OrderIndex    string    `gorm:"type:varchar(20)" json:"order_index"`
	IsPreview     string    `gorm:"type:varchar(10)" json:"is_preview"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (LessonVersion) TableName() string {
	return "lesson_versions"
}
