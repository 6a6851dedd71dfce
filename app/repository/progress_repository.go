package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JFernandezWeb/LumenLMS/app/models"
)

// progressRepository implements the ProgressRepository interface
type progressRepository struct {
	db *gorm.DB
}

// NewProgressRepository creates a new progress repository instance
func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

// Upsert writes lesson progress keyed on (user_id, lesson_id). A
// second save for the same lesson updates the existing row instead of
// stacking duplicates.
func (r *progressRepository) Upsert(progress *models.StudentProgress) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "lesson_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"completed",
			"progress_percentage",
			"time_spent",
			"last_position",
			"notes",
			"completed_at",
			"updated_at",
		}),
	}).Create(progress).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("user_id = ? AND lesson_id = ?", progress.UserID, progress.LessonID).
		First(progress).Error
}

func (r *progressRepository) GetByUserLesson(userID, lessonID uint64) (*models.StudentProgress, error) {
	var progress models.StudentProgress
	err := r.db.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *progressRepository) ListByUserCourse(userID, courseID uint64) ([]models.StudentProgress, error) {
	var rows []models.StudentProgress
	err := r.db.Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("lesson_id ASC").Find(&rows).Error
	return rows, err
}

func (r *progressRepository) CountCompleted(userID, courseID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.StudentProgress{}).
		Where("user_id = ? AND course_id = ? AND completed = ?", userID, courseID, true).
		Count(&count).Error
	return count, err
}
