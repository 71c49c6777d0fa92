package minio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/schema"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// ImageStore uploads listing and post images. The returned imageRef is the
// object key; the service never interprets it further.
type ImageStore struct {
	client *minio.Client
	bucket string
	logger *logger.Logger
}

func NewImageStore(ctx context.Context, cfg config.MinIOConfig, log *logger.Logger) (*ImageStore, error) {
	log = log.Named("ImageStore")
	log.Info("Initializing MinIO image store", zap.String("endpoint", cfg.Endpoint), zap.String("bucket", cfg.Bucket), zap.Bool("use_ssl", cfg.UseSSL))

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", cfg.Endpoint, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to make bucket %s: %w", cfg.Bucket, err)
		}
		log.Info("Bucket created", zap.String("bucket", cfg.Bucket))
	}

	return &ImageStore{client: client, bucket: cfg.Bucket, logger: log}, nil
}

// ObjectKey names a new image of ownerID: owners/{ownerId}/images/{uuid}{ext}.
func ObjectKey(ownerID, fileName string) (string, error) {
	if !schema.ValidID(ownerID) {
		return "", &entity.ValidationError{Fields: []string{"ownerId"}, Reason: "not a valid key"}
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", &entity.ValidationError{Fields: []string{"file"}, Reason: fmt.Sprintf("unsupported image type %q", ext)}
	}
	return fmt.Sprintf("owners/%s/images/%s%s", ownerID, uuid.NewString(), ext), nil
}

// Upload stores size bytes from r and returns the imageRef.
func (s *ImageStore) Upload(ctx context.Context, ownerID, fileName string, r io.Reader, size int64) (string, error) {
	key, err := ObjectKey(ownerID, fileName)
	if err != nil {
		return "", err
	}
	info, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  allowedExtensions[strings.ToLower(filepath.Ext(fileName))],
		UserMetadata: map[string]string{"original-filename": filepath.Base(fileName)},
	})
	if err != nil {
		s.logger.Error("PutObject failed", zap.String("bucket", s.bucket), zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("failed to upload object %s to bucket %s: %w", key, s.bucket, err)
	}
	s.logger.Info("Image uploaded", zap.String("key", info.Key), zap.String("etag", info.ETag), zap.Int64("size", info.Size))
	return key, nil
}

// URL returns a time-limited download URL for ref.
func (s *ImageStore) URL(ctx context.Context, ref string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, ref, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", ref, err)
	}
	return u.String(), nil
}
