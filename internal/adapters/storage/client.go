package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOService implements ObjectStore using MinIO.
type MinIOService struct {
	client *minio.Client
}

// NewMinIOService creates a new MinIO storage service.
func NewMinIOService(cfg Config) (*MinIOService, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOService{client: client}, nil
}

// EnsureBucketExists creates the bucket if it doesn't exist.
func (s *MinIOService) EnsureBucketExists(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
	}

	return nil
}

// PutObject uploads reader under key.
func (s *MinIOService) PutObject(ctx context.Context, bucket, key, contentType string, reader io.Reader, size int64) (string, error) {
	_, err := s.client.PutObject(ctx, bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file %s: %w", key, err)
	}
	return key, nil
}

var _ ObjectStore = (*MinIOService)(nil)
