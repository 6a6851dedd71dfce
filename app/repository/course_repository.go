package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/JFernandezWeb/LumenLMS/app/models"
)

// courseRepository implements the CourseRepository interface
type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository creates a new course repository instance
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) Create(course *models.Course) error {
	return r.db.Create(course).Error
}

func (r *courseRepository) GetByID(id uint64) (*models.Course, error) {
	var course models.Course
	err := r.db.First(&course, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) GetPublished(offset, limit int) ([]models.Course, error) {
	var courses []models.Course
	err := r.db.Where("published = ?", true).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&courses).Error
	return courses, err
}

func (r *courseRepository) GetAll(offset, limit int) ([]models.Course, error) {
	var courses []models.Course
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&courses).Error
	return courses, err
}

func (r *courseRepository) Update(course *models.Course) error {
	return r.db.Save(course).Error
}

func (r *courseRepository) Delete(id uint64) error {
	return r.db.Delete(&models.Course{}, id).Error
}

func (r *courseRepository) CreateLesson(lesson *models.Lesson) error {
	return r.db.Create(lesson).Error
}

func (r *courseRepository) GetLessonByID(id uint64) (*models.Lesson, error) {
	var lesson models.Lesson
	err := r.db.First(&lesson, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *courseRepository) GetLessonsByCourse(courseID uint64) ([]models.Lesson, error) {
	var lessons []models.Lesson
	err := r.db.Where("course_id = ?", courseID).
		Order("module_number ASC, lesson_number ASC, order_index ASC").Find(&lessons).Error
	return lessons, err
}

func (r *courseRepository) CountLessons(courseID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Lesson{}).
		Where("course_id = ? AND published = ?", courseID, true).Count(&count).Error
	return count, err
}
