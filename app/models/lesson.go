package models

import "time"

// Lesson belongs to a course module. Preview lessons are watchable
// without an enrollment.
type Lesson struct {
	ID            uint64    `gorm:"primaryKey" json:"id"`
	CourseID      uint64    `gorm:"not null;index" json:"course_id"`
	ModuleNumber  int       `gorm:"default:1" json:"module_number"`
	LessonNumber  int       `gorm:"default:1" json:"lesson_number"`
	Title         string    `gorm:"type:varchar(255);not null" json:"title" validate:"required,min=1,max=255"`
	Description   string    `gorm:"type:text" json:"description"`
	VideoURL      string    `gorm:"type:varchar(500)" json:"video_url"`
	VideoDuration int       `gorm:"default:0" json:"video_duration"`
	Content       string    `gorm:"type:longtext" json:"content"`
	OrderIndex    int       `gorm:"default:0;index" json:"order_index"`
	IsPreview     bool      `gorm:"type:tinyint(1);default:0" json:"is_preview"`
	Published     bool      `gorm:"type:tinyint(1);default:0;index" json:"published"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Lesson) TableName() string {
	return "lessons"
}
