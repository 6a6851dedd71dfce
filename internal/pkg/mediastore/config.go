package mediastore

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/JFernandezWeb/LumenLMS/internal/pkg/env"
)

// Config holds object storage configuration for story documents.
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	Enabled         bool
}

// LoadConfig loads media storage configuration from environment variables.
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-west-001"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		Enabled:         env.GetEnv("MEDIA_STORAGE_ENABLED", "false") == "true",
	}

	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when media storage is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when media storage is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when media storage is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if media storage is enabled.
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// StoryObjectKey generates a standardized object key for a story
// document. Format: stories/YYYY/MM/<uuid><ext>
func (c *Config) StoryObjectKey(storyUUID, originalFilename string, uploadedAt time.Time) string {
	ext := strings.ToLower(path.Ext(originalFilename))
	return fmt.Sprintf("stories/%04d/%02d/%s%s", uploadedAt.Year(), int(uploadedAt.Month()), storyUUID, ext)
}

// GetAppEnv returns the current application environment.
func GetAppEnv() string {
	return env.GetEnv("APP_ENV", "dev")
}
