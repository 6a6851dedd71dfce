package models

import "time"

// Story moderation states.
const (
	StoryStatusPending  = "pending"
	StoryStatusApproved = "approved"
	StoryStatusRejected = "rejected"
)

// Story is a user-submitted document held in object storage and
// gated behind moderation before it becomes publicly listed.
type Story struct {
	ID               uint64    `gorm:"primaryKey" json:"id"`
	UserID           *uint64   `gorm:"index" json:"user_id,omitempty"`
	Status           string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	StorageKey       string    `gorm:"type:varchar(500);not null" json:"storage_key"`
	OriginalFilename string    `gorm:"type:varchar(255);not null" json:"original_filename"`
	FileHash         string    `gorm:"type:varchar(64);index" json:"file_hash"`
	SubmitterAlias   string    `gorm:"type:varchar(100)" json:"submitter_alias"`
	ModerationNotes  string    `gorm:"type:text" json:"moderation_notes"`
	MetaTitle        string    `gorm:"type:varchar(255)" json:"meta_title"`
	MetaAuthor       string    `gorm:"type:varchar(255)" json:"meta_author"`
	IPAddress        string    `gorm:"type:varchar(45)" json:"-"`
	CreatedAt        time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Story) TableName() string {
	return "stories"
}
