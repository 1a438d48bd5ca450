// Package storage holds conversation attachments in S3-compatible object
// storage. One bucket, flat per-lead folders, presigned download URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"funilzap_backend/internal/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	downloadURLTTL  = 15 * time.Minute
	maxAttachmentMB = 25
)

// Attachment describes a stored object plus a temporary download URL.
type Attachment struct {
	FileKey     string    `json:"fileKey"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

var allowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
	"audio/mpeg":      true,
	"audio/ogg":       true,
	"video/mp4":       true,
}

// Service stores and serves conversation attachments.
type Service struct {
	client *minio.Client
	bucket string
}

// New connects to MinIO and makes sure the attachment bucket exists.
// Returns (nil, nil) when no endpoint is configured, which disables
// attachments.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	if cfg.MinIOEndpoint == "" {
		return nil, nil
	}

	client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	s := &Service{client: client, bucket: cfg.MinIOBucketAttachments}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Enabled reports whether attachment storage is configured.
func (s *Service) Enabled() bool {
	return s != nil
}

func (s *Service) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Upload stores an attachment under the lead's folder and returns it with a
// fresh download URL.
func (s *Service) Upload(ctx context.Context, leadID uuid.UUID, fileName, contentType string, reader io.Reader, size int64) (Attachment, error) {
	if err := validate(contentType, size); err != nil {
		return Attachment{}, err
	}

	ext := path.Ext(fileName)
	base := strings.TrimSuffix(fileName, ext)
	unique := fmt.Sprintf("%s_%s%s", base, uuid.New().String()[:8], ext)
	fileKey := filepath.ToSlash(filepath.Join(leadID.String(), unique))

	_, err := s.client.PutObject(ctx, s.bucket, fileKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return Attachment{}, fmt.Errorf("upload %s: %w", fileKey, err)
	}

	return s.presign(ctx, fileKey, contentType)
}

// DownloadURL returns a presigned GET URL for a stored attachment.
func (s *Service) DownloadURL(ctx context.Context, fileKey string) (Attachment, error) {
	return s.presign(ctx, fileKey, "")
}

func (s *Service) presign(ctx context.Context, fileKey, contentType string) (Attachment, error) {
	expiresAt := time.Now().Add(downloadURLTTL)
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, fileKey, downloadURLTTL, url.Values{})
	if err != nil {
		return Attachment{}, fmt.Errorf("presign %s: %w", fileKey, err)
	}

	return Attachment{
		FileKey:     fileKey,
		URL:         presigned.String(),
		ContentType: contentType,
		ExpiresAt:   expiresAt,
	}, nil
}

func validate(contentType string, size int64) error {
	normalized := strings.TrimSpace(strings.ToLower(strings.Split(contentType, ";")[0]))
	if !allowedContentTypes[normalized] {
		return fmt.Errorf("content type %q is not allowed", contentType)
	}
	if size <= 0 || size > maxAttachmentMB<<20 {
		return fmt.Errorf("attachment size must be between 1 byte and %d MB", maxAttachmentMB)
	}
	return nil
}
