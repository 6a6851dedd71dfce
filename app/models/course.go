package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Course is the live row of a paid course.
type Course struct {
	ID             uint64    `gorm:"primaryKey" json:"id"`
	Slug           string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug" validate:"required,min=3,max=255"`
	Title          string    `gorm:"type:varchar(255);not null" json:"title" validate:"required,min=3,max=255"`
	Subtitle       string    `gorm:"type:varchar(500)" json:"subtitle"`
	Description    string    `gorm:"type:longtext" json:"description"`
	DurationWeeks  int       `gorm:"default:0" json:"duration_weeks"`
	Level          string    `gorm:"type:varchar(50)" json:"level"`
	Price          float64   `gorm:"type:decimal(10,2);not null" json:"price" validate:"gte=0"`
	Currency       string    `gorm:"type:varchar(10);default:'USD'" json:"currency"`
	FeaturedImage  string    `gorm:"type:varchar(500)" json:"featured_image"`
	InstructorName string    `gorm:"type:varchar(255)" json:"instructor_name"`
	InstructorBio  string    `gorm:"type:text" json:"instructor_bio"`
	WhatYouLearn   string    `gorm:"type:longtext" json:"what_you_learn"`
	CourseContent  string    `gorm:"type:longtext" json:"course_content"`
	Requirements   string    `gorm:"type:text" json:"requirements"`
	TargetAudience string    `gorm:"type:text" json:"target_audience"`
	Testimonials   string    `gorm:"type:longtext" json:"testimonials"`
	Published      bool      `gorm:"type:tinyint(1);default:0;index" json:"published"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Course) TableName() string {
	return "courses"
}

func (c *Course) Validate() error {
	v := validator.New()
	return v.Struct(c)
}

// FindPublishedCourse loads a course only if it is purchasable.
func FindPublishedCourse(db *gorm.DB, id uint64) (*Course, error) {
	var course Course
	err := db.Where("id = ? AND published = ?", id, true).First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}
