package models

import "time"

// Transaction statuses mirror the processor event that produced the
// entry, not the enrollment's current state.
const (
	TransactionStatusPending   = "pending"
	TransactionStatusSucceeded = "succeeded"
	TransactionStatusFailed    = "failed"
	TransactionStatusRefunded  = "refunded"
)

// PaymentTransaction is an append-only audit entry for one processor
// event. A payment that succeeds and is later refunded produces two
// rows linked to the same enrollment.
type PaymentTransaction struct {
	ID                uint64    `gorm:"primaryKey" json:"id"`
	UserID            uint64    `gorm:"not null;index" json:"user_id"`
	EnrollmentID      *uint64   `gorm:"index" json:"enrollment_id,omitempty"`
	PaymentIntentID   string    `gorm:"type:varchar(191);index" json:"payment_intent_id"`
	Amount            float64   `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency          string    `gorm:"type:varchar(10);not null" json:"currency"`
	Status            string    `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentMethodType string    `gorm:"type:varchar(20)" json:"payment_method_type"`
	MetadataJSON      string    `gorm:"type:text" json:"metadata_json"`
	CreatedAt         time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}
