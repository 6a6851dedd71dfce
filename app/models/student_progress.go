package models

import "time"

// StudentProgress tracks per-lesson progress. One row per
// (user, lesson); writes go through upserts on that pair.
type StudentProgress struct {
	ID                 uint64     `gorm:"primaryKey" json:"id"`
	UserID             uint64     `gorm:"not null;index:ux_progress_user_lesson,unique,priority:1" json:"user_id"`
	LessonID           uint64     `gorm:"not null;index:ux_progress_user_lesson,unique,priority:2" json:"lesson_id"`
	CourseID           uint64     `gorm:"not null;index" json:"course_id"`
	Completed          bool       `gorm:"type:tinyint(1);default:0" json:"completed"`
	ProgressPercentage int        `gorm:"default:0" json:"progress_percentage"`
	TimeSpent          int        `gorm:"default:0" json:"time_spent"`
	LastPosition       int        `gorm:"default:0" json:"last_position"`
	Notes              string     `gorm:"type:text" json:"notes"`
	CompletedAt        *time.Time `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (StudentProgress) TableName() string {
	return "student_progress"
}
