package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/JFernandezWeb/LumenLMS/app/models"
)

// blogRepository implements the BlogRepository interface
type blogRepository struct {
	db *gorm.DB
}

// NewBlogRepository creates a new blog repository instance
func NewBlogRepository(db *gorm.DB) BlogRepository {
	return &blogRepository{db: db}
}

// Create inserts a new live row
func (r *blogRepository) Create(post *models.BlogPost) error {
	return r.db.Create(post).Error
}

// GetByID retrieves a post by its ID. A missing post returns (nil, nil)
// so callers can distinguish absence from a DB failure.
func (r *blogRepository) GetByID(id uint64) (*models.BlogPost, error) {
	var post models.BlogPost
	err := r.db.First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *blogRepository) GetBySlug(slug string) (*models.BlogPost, error) {
	var post models.BlogPost
	err := r.db.Where("slug = ?", slug).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetVisible retrieves publicly servable posts: published with no
// schedule or a schedule at or before now. Visibility is evaluated at
// read time; no job ever flips scheduled posts.
func (r *blogRepository) GetVisible(now time.Time, offset, limit int) ([]models.BlogPost, error) {
	var posts []models.BlogPost
	err := r.db.Where("published = ? AND (scheduled_at IS NULL OR scheduled_at <= ?)", true, now).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&posts).Error
	return posts, err
}

func (r *blogRepository) GetAll(offset, limit int) ([]models.BlogPost, error) {
	var posts []models.BlogPost
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&posts).Error
	return posts, err
}

// UpdateFields applies a partial update to the live row
func (r *blogRepository) UpdateFields(id uint64, fields map[string]interface{}) error {
	return r.db.Model(&models.BlogPost{}).Where("id = ?", id).Updates(fields).Error
}

func (r *blogRepository) Delete(id uint64) error {
	return r.db.Delete(&models.BlogPost{}, id).Error
}

// SlugExists checks if a slug already exists
func (r *blogRepository) SlugExists(slug string) (bool, error) {
	var count int64
	err := r.db.Model(&models.BlogPost{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// SlugExistsExceptID checks if a slug exists excluding a specific ID
func (r *blogRepository) SlugExistsExceptID(slug string, id uint64) (bool, error) {
	var count int64
	err := r.db.Model(&models.BlogPost{}).Where("slug = ? AND id != ?", slug, id).Count(&count).Error
	return count > 0, err
}

func (r *blogRepository) IncrementViews(id uint64) error {
	return r.db.Model(&models.BlogPost{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

func (r *blogRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.BlogPost{}).Count(&count).Error
	return count, err
}
