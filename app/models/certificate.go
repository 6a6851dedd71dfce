package models

import "time"

// Certificate records course completion. One certificate per
// (user, course); issuance is idempotent against the unique index.
type Certificate struct {
	ID              uint64    `gorm:"primaryKey" json:"id"`
	UserID          uint64    `gorm:"not null;index:ux_certificates_user_course,unique,priority:1" json:"user_id"`
	CourseID        uint64    `gorm:"not null;index:ux_certificates_user_course,unique,priority:2" json:"course_id"`
	EnrollmentID    uint64    `gorm:"not null;index" json:"enrollment_id"`
	CertificateCode string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"certificate_code"`
	IssueDate       time.Time `gorm:"not null" json:"issue_date"`
	CertificateURL  string    `gorm:"type:varchar(500)" json:"certificate_url"`
	Verified        bool      `gorm:"type:tinyint(1);default:1" json:"verified"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Certificate) TableName() string {
	return "certificates"
}
