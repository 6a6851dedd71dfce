package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

const apiKeyPrefix = "lms_"

var apiKeyEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// User represents a registered account. Authentication mechanics live
// outside the core; handlers only need the opaque ID and role. API
// keys are stored hashed, the raw key is shown to the caller once.
type User struct {
	ID              uint64         `gorm:"primaryKey" json:"id"`
	Name            string         `gorm:"type:varchar(255);not null" json:"name" validate:"required,min=2,max=255"`
	Email           string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email" validate:"required,email"`
	Role            string         `gorm:"type:varchar(20);default:'student';index" json:"role"`
	APIKeyHash      string         `gorm:"type:char(64);default:'';index" json:"-"`
	APIKeyPrefix    string         `gorm:"type:varchar(16);default:''" json:"-"`
	APIKeyCreatedAt *time.Time     `json:"-"`
	APIKeyRevokedAt *time.Time     `json:"-"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) Validate() error {
	v := validator.New()
	return v.Struct(u)
}

// HasActiveAPIKey reports whether the user holds a usable API key.
func (u *User) HasActiveAPIKey() bool {
	return u != nil && u.APIKeyHash != "" && u.APIKeyRevokedAt == nil
}

// AssignNewAPIKey generates a fresh API key, stores its hash on the
// user and returns the raw key. The raw key is never persisted.
func (u *User) AssignNewAPIKey() (string, error) {
	rawKey, prefix, hash, err := generateAPIKeyMaterial()
	if err != nil {
		return "", err
	}
	now := time.Now()
	u.APIKeyHash = hash
	u.APIKeyPrefix = prefix
	u.APIKeyCreatedAt = &now
	u.APIKeyRevokedAt = nil
	return rawKey, nil
}

// RevokeAPIKey invalidates the current API key without deleting the
// audit fields.
func (u *User) RevokeAPIKey() {
	now := time.Now()
	u.APIKeyRevokedAt = &now
}

// HashAPIKey returns the SHA-256 hash for the provided API key.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(sum[:])
}

func generateAPIKeyMaterial() (string, string, string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", "", err
	}
	encoded := strings.ToLower(apiKeyEncoding.EncodeToString(b))
	rawKey := apiKeyPrefix + encoded
	if len(rawKey) < 12 {
		return "", "", "", fmt.Errorf("api key generation failed: key too short")
	}
	prefix := rawKey[:16]
	return rawKey, prefix, HashAPIKey(rawKey), nil
}

func FindUserByID(db *gorm.DB, id uint64) (*User, error) {
	var user User
	if err := db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
