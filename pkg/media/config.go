package media

import (
	"context"
	"fmt"
)

// Backends supported by New.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// Config selects and configures the media backend.
type Config struct {
	Backend       string `env:"MEDIA_BACKEND" envDefault:"local"`
	LocalDir      string `env:"MEDIA_ROOT" envDefault:"./media"`
	BaseURL       string `env:"MEDIA_URL" envDefault:"/uploads/"`
	MaxUploadSize int64  `env:"MEDIA_MAX_UPLOAD_SIZE" envDefault:"10485760"`

	S3Bucket         string `env:"MEDIA_S3_BUCKET"`
	S3Region         string `env:"MEDIA_S3_REGION" envDefault:"us-east-1"`
	S3AccessKeyID    string `env:"MEDIA_S3_ACCESS_KEY_ID"`
	S3SecretKey      string `env:"MEDIA_S3_SECRET_KEY"`
	S3Endpoint       string `env:"MEDIA_S3_ENDPOINT"`
	S3ForcePathStyle bool   `env:"MEDIA_S3_FORCE_PATH_STYLE" envDefault:"false"`
	S3PublicURL      string `env:"MEDIA_S3_PUBLIC_URL"`
}

// New builds the Storage selected by cfg.Backend.
func New(ctx context.Context, cfg Config, opts ...S3Option) (Storage, error) {
	switch cfg.Backend {
	case "", BackendLocal:
		return NewLocalStorage(cfg.LocalDir, cfg.BaseURL)
	case BackendS3:
		return NewS3Storage(ctx, S3Config{
			Bucket:         cfg.S3Bucket,
			Region:         cfg.S3Region,
			AccessKeyID:    cfg.S3AccessKeyID,
			SecretKey:      cfg.S3SecretKey,
			Endpoint:       cfg.S3Endpoint,
			BaseURL:        cfg.S3PublicURL,
			ForcePathStyle: cfg.S3ForcePathStyle,
		}, opts...)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, cfg.Backend)
	}
}
