package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/JFernandezWeb/LumenLMS/app/models"
)

// storyRepository implements the StoryRepository interface
type storyRepository struct {
	db *gorm.DB
}

// NewStoryRepository creates a new story repository instance
func NewStoryRepository(db *gorm.DB) StoryRepository {
	return &storyRepository{db: db}
}

func (r *storyRepository) Create(story *models.Story) error {
	return r.db.Create(story).Error
}

func (r *storyRepository) GetByID(id uint64) (*models.Story, error) {
	var story models.Story
	err := r.db.First(&story, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &story, nil
}

// GetByFileHash finds an earlier submission of the same document so
// duplicate uploads can be short-circuited.
func (r *storyRepository) GetByFileHash(hash string) (*models.Story, error) {
	var story models.Story
	err := r.db.Where("file_hash = ?", hash).First(&story).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &story, nil
}

func (r *storyRepository) GetByStatus(status string, offset, limit int) ([]models.Story, error) {
	var stories []models.Story
	err := r.db.Where("status = ?", status).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&stories).Error
	return stories, err
}

func (r *storyRepository) UpdateStatus(id uint64, status, moderationNotes string) error {
	return r.db.Model(&models.Story{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":           status,
		"moderation_notes": moderationNotes,
	}).Error
}

func (r *storyRepository) Delete(id uint64) error {
	return r.db.Delete(&models.Story{}, id).Error
}

func (r *storyRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Story{}).Count(&count).Error
	return count, err
}
