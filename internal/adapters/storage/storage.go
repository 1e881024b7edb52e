// Package storage wraps MinIO for object storage. The audit exporter uses
// it to park CSV exports and hand out short-lived download links.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"leadrouter_backend/platform/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PresignedURLTTL is the expiration time for download URLs.
const PresignedURLTTL = 15 * time.Minute

// ObjectStore is the storage surface consumed by the audit exporter.
type ObjectStore interface {
	EnsureBucketExists(ctx context.Context, bucket string) error
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string) error
	PresignedDownloadURL(ctx context.Context, bucket, key string) (string, time.Time, error)
}

// MinIOStore implements ObjectStore using MinIO.
type MinIOStore struct {
	client *minio.Client
}

// NewMinIOStore creates the MinIO-backed object store.
func NewMinIOStore(cfg config.StorageConfig) (*MinIOStore, error) {
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

	return &MinIOStore{client: client}, nil
}

// EnsureBucketExists creates the bucket if it doesn't exist.
func (s *MinIOStore) EnsureBucketExists(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
	}
	return nil
}

// PutObject stores an object.
func (s *MinIOStore) PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to store object %s: %w", key, err)
	}
	return nil
}

// PresignedDownloadURL returns a short-lived GET URL for an object.
func (s *MinIOStore) PresignedDownloadURL(ctx context.Context, bucket, key string) (string, time.Time, error) {
	expiresAt := time.Now().Add(PresignedURLTTL)
	u, err := s.client.PresignedGetObject(ctx, bucket, key, PresignedURLTTL, nil)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate download URL: %w", err)
	}
	return u.String(), expiresAt, nil
}
