package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	appconfig "github.com/ikkim/bizdir-backend/config"
	"github.com/ikkim/bizdir-backend/pkg/logger"
)

const (
	// MaxImageSize is the largest listing image accepted for upload.
	MaxImageSize  int64 = 5 << 20
	presignExpiry       = 15 * time.Minute
	listingFolder       = "listings"
)

var (
	ErrUnsupportedImageType = errors.New("only JPEG, PNG, GIF and WEBP images are allowed")
	ErrImageTooLarge        = fmt.Errorf("image exceeds the %d MB limit", MaxImageSize>>20)
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageStorage hands out direct-to-bucket upload URLs for listing images.
type ImageStorage interface {
	PresignImageUpload(ctx context.Context, ownerID uint, filename, contentType string, size int64) (*PresignedUpload, error)
}

type S3Storage struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

type PresignedUpload struct {
	UploadURL string    `json:"upload_url"`
	FileURL   string    `json:"file_url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewS3Storage(cfg *appconfig.S3Config) *S3Storage {
	var awsCfg aws.Config
	var err error

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg = aws.Config{
			Region: cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			),
		}
	} else {
		// environment, shared config file or instance role
		awsCfg, err = config.LoadDefaultConfig(context.Background(),
			config.WithRegion(cfg.Region),
		)
		if err != nil {
			logger.Warn("Falling back to region-only AWS config", map[string]interface{}{
				"error": err.Error(),
			})
			awsCfg = aws.Config{Region: cfg.Region}
		}
	}

	return &S3Storage{
		client:  s3.NewFromConfig(awsCfg),
		bucket:  cfg.Bucket,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// ValidateImage checks the declared type and size of an upload.
func ValidateImage(contentType string, size int64) error {
	if _, ok := allowedImageTypes[strings.ToLower(contentType)]; !ok {
		return ErrUnsupportedImageType
	}
	if size > MaxImageSize {
		return ErrImageTooLarge
	}
	return nil
}

// imageKey places uploads under the owner's folder with a random name.
func imageKey(ownerID uint, filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = allowedImageTypes[strings.ToLower(contentType)]
	}
	return fmt.Sprintf("%s/%d/%s%s", listingFolder, ownerID, uuid.NewString(), ext)
}

func (s *S3Storage) fileURL(key string) string {
	if s.baseURL != "" {
		return fmt.Sprintf("%s/%s", s.baseURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.client.Options().Region, key)
}

func (s *S3Storage) PresignImageUpload(ctx context.Context, ownerID uint, filename, contentType string, size int64) (*PresignedUpload, error) {
	if err := ValidateImage(contentType, size); err != nil {
		return nil, err
	}

	key := imageKey(ownerID, filename, contentType)
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}

	presignClient := s3.NewPresignClient(s.client)
	req, err := presignClient.PresignPutObject(ctx, input, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return &PresignedUpload{
		UploadURL: req.URL,
		FileURL:   s.fileURL(key),
		Key:       key,
		ExpiresAt: time.Now().Add(presignExpiry),
	}, nil
}
