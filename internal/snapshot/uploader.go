// Package snapshot ships database backups to S3-compatible storage.
// When no bucket is configured the NoopUploader is used and backups stay local.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hyperengineering/okrpulse/internal/config"
)

// ErrNotConfigured is returned when backup storage is not configured.
var ErrNotConfigured = errors.New("backup storage not configured")

// Uploader uploads database snapshots.
type Uploader interface {
	// Upload stores the snapshot at filePath under a key derived from takenAt
	// and returns that key.
	Upload(ctx context.Context, filePath string, takenAt time.Time) (string, error)

	// Configured reports whether uploads leave the machine.
	Configured() bool
}

// s3Client is the subset of *minio.Client the uploader needs.
type s3Client interface {
	FPutObject(ctx context.Context, bucket, objectName, filePath string) error
}

type minioClientWrapper struct {
	client *minio.Client
}

func (w *minioClientWrapper) FPutObject(ctx context.Context, bucket, objectName, filePath string) error {
	_, err := w.client.FPutObject(ctx, bucket, objectName, filePath, minio.PutObjectOptions{
		ContentType: "application/vnd.sqlite3",
	})
	return err
}

// S3Uploader uploads snapshots to S3-compatible storage.
type S3Uploader struct {
	client s3Client
	bucket string
	prefix string
}

// Upload writes the snapshot as {prefix}/okrpulse-{timestamp}.db.
func (u *S3Uploader) Upload(ctx context.Context, filePath string, takenAt time.Time) (string, error) {
	key := objectKey(u.prefix, takenAt)
	if err := u.client.FPutObject(ctx, u.bucket, key, filePath); err != nil {
		return "", fmt.Errorf("upload snapshot to S3: %w", err)
	}
	return key, nil
}

// Configured is always true for S3Uploader.
func (u *S3Uploader) Configured() bool { return true }

// NoopUploader is used when backup storage is not configured.
type NoopUploader struct{}

// Upload returns ErrNotConfigured without touching the file.
func (u *NoopUploader) Upload(ctx context.Context, filePath string, takenAt time.Time) (string, error) {
	return "", ErrNotConfigured
}

// Configured is always false for NoopUploader.
func (u *NoopUploader) Configured() bool { return false }

// NewUploader returns a NoopUploader when the bucket is empty, an S3Uploader otherwise.
func NewUploader(cfg config.BackupConfig) (Uploader, error) {
	if cfg.Bucket == "" {
		return &NoopUploader{}, nil
	}

	useSSL := cfg.UseSSL
	endpoint := stripScheme(cfg.Endpoint, &useSSL)

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 client: %w", err)
	}

	return &S3Uploader{
		client: &minioClientWrapper{client: client},
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// stripScheme removes an http:// or https:// prefix from endpoint, which
// minio.New rejects, and lets the scheme decide TLS.
func stripScheme(endpoint string, useSSL *bool) string {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		*useSSL = true
		return strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		*useSSL = false
		return strings.TrimPrefix(endpoint, "http://")
	}
	return endpoint
}

// objectKey returns {prefix}/okrpulse-{UTC timestamp}.db.
func objectKey(prefix string, takenAt time.Time) string {
	name := "okrpulse-" + takenAt.UTC().Format("20060102T150405Z") + ".db"
	if prefix == "" {
		return name
	}
	return path.Join(strings.Trim(prefix, "/"), name)
}
