package models

import "time"

// Payment providers accepted at checkout.
const (
	PaymentProviderStripe = "stripe"
	PaymentProviderPayPal = "paypal"
)

// Enrollment payment statuses. Transitions run forward only:
// pending -> completed -> refunded/disputed, or pending -> failed.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
	PaymentStatusDisputed  = "disputed"
)

// PaidEnrollment is the authoritative grant of course access tied to a
// payment. The composite unique index on (payment_id, payment_method)
// is what makes webhook reconciliation idempotent: a given processor
// transaction can only ever own one row.
type PaidEnrollment struct {
	ID                uint64     `gorm:"primaryKey" json:"id"`
	UserID            uint64     `gorm:"not null;index:idx_enrollments_user_course,priority:1" json:"user_id"`
	CourseID          uint64     `gorm:"not null;index:idx_enrollments_user_course,priority:2" json:"course_id"`
	PaymentID         string     `gorm:"type:varchar(191);index:ux_enrollments_payment,unique,priority:1" json:"payment_id"`
	PaymentMethod     string     `gorm:"type:varchar(20);index:ux_enrollments_payment,unique,priority:2" json:"payment_method"`
	PaymentStatus     string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"payment_status"`
	AmountPaid        float64    `gorm:"type:decimal(10,2);not null" json:"amount_paid"`
	Currency          string     `gorm:"type:varchar(10);default:'USD'" json:"currency"`
	EnrolledAt        time.Time  `gorm:"autoCreateTime" json:"enrolled_at"`
	ExpiresAt         *time.Time `gorm:"type:timestamp;default:null" json:"expires_at,omitempty"`
	AccessRevoked     bool       `gorm:"type:tinyint(1);default:0;index" json:"access_revoked"`
	Completed         bool       `gorm:"type:tinyint(1);default:0" json:"completed"`
	CompletionDate    *time.Time `gorm:"type:timestamp;default:null" json:"completion_date,omitempty"`
	CertificateIssued bool       `gorm:"type:tinyint(1);default:0" json:"certificate_issued"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PaidEnrollment) TableName() string {
	return "paid_enrollments"
}

// GrantsAccess reports whether this enrollment currently authorizes
// content access. Revocation wins over everything else.
func (e *PaidEnrollment) GrantsAccess() bool {
	return e.PaymentStatus == PaymentStatusCompleted && !e.AccessRevoked
}
