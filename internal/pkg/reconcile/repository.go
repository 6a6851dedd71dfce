package reconcile

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JFernandezWeb/LumenLMS/app/models"
)

// Repository provides the DB operations the reconciliation service
// needs.
type Repository interface {
	FindOrCreateEnrollment(enrollment *models.PaidEnrollment) (bool, *models.PaidEnrollment, error)
	GetEnrollmentByPayment(paymentID, paymentMethod string) (*models.PaidEnrollment, error)
	GetEnrollmentByUserCourse(userID, courseID uint64) (*models.PaidEnrollment, error)
	UpdateEnrollmentFields(id uint64, fields map[string]interface{}) error
	CreateTransaction(entry *models.PaymentTransaction) error
	CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(id uint64, status, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a reconciliation repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// FindOrCreateEnrollment inserts the enrollment unless a row for the
// same (payment_id, payment_method) already exists, then reloads the
// authoritative row either way. The unique index makes concurrent
// deliveries of the same payment collapse to one row.
func (r *gormRepository) FindOrCreateEnrollment(enrollment *models.PaidEnrollment) (bool, *models.PaidEnrollment, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "payment_id"},
			{Name: "payment_method"},
		},
		DoNothing: true,
	}).Create(enrollment)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.PaidEnrollment
	if err := r.db.Where("payment_id = ? AND payment_method = ?", enrollment.PaymentID, enrollment.PaymentMethod).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) GetEnrollmentByPayment(paymentID, paymentMethod string) (*models.PaidEnrollment, error) {
	var enrollment models.PaidEnrollment
	err := r.db.Where("payment_id = ? AND payment_method = ?", paymentID, paymentMethod).First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *gormRepository) GetEnrollmentByUserCourse(userID, courseID uint64) (*models.PaidEnrollment, error) {
	var enrollment models.PaidEnrollment
	err := r.db.Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("enrolled_at DESC").First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *gormRepository) UpdateEnrollmentFields(id uint64, fields map[string]interface{}) error {
	return r.db.Model(&models.PaidEnrollment{}).Where("id = ?", id).Updates(fields).Error
}

func (r *gormRepository) CreateTransaction(entry *models.PaymentTransaction) error {
	return r.db.Create(entry).Error
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint64, status, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":        status,
		"error_message": processingError,
		"processed_at":  &now,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
