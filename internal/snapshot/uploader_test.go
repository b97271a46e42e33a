package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperengineering/okrpulse/internal/config"
)

var takenAt = time.Date(2026, 10, 18, 9, 30, 5, 0, time.UTC)

func TestNoopUploader_Upload_ReturnsErrNotConfigured(t *testing.T) {
	u := &NoopUploader{}
	_, err := u.Upload(context.Background(), "/some/path", takenAt)
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("NoopUploader.Upload() error = %v, want ErrNotConfigured", err)
	}
	if u.Configured() {
		t.Error("NoopUploader.Configured() = true")
	}
}

func TestNewUploader_EmptyBucket_ReturnsNoopUploader(t *testing.T) {
	u, err := NewUploader(config.BackupConfig{})
	if err != nil {
		t.Fatalf("NewUploader() error = %v", err)
	}
	if _, ok := u.(*NoopUploader); !ok {
		t.Errorf("expected *NoopUploader, got %T", u)
	}
}

func TestNewUploader_WithBucket_ReturnsS3Uploader(t *testing.T) {
	cfg := config.BackupConfig{
		Bucket:    "okr-backups",
		Prefix:    "backups",
		Endpoint:  "http://localhost:9000",
		Region:    "us-east-1",
		UseSSL:    true,
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	}

	u, err := NewUploader(cfg)
	if err != nil {
		t.Fatalf("NewUploader() error = %v", err)
	}
	s3u, ok := u.(*S3Uploader)
	if !ok {
		t.Fatalf("expected *S3Uploader, got %T", u)
	}
	if s3u.bucket != "okr-backups" || s3u.prefix != "backups" {
		t.Errorf("S3Uploader = %+v", s3u)
	}
	if !s3u.Configured() {
		t.Error("S3Uploader.Configured() = false")
	}
}

type mockS3Client struct {
	uploadCalled   bool
	uploadErr      error
	lastBucket     string
	lastObjectName string
	lastFilePath   string
}

func (m *mockS3Client) FPutObject(ctx context.Context, bucket, objectName, filePath string) error {
	m.uploadCalled = true
	m.lastBucket = bucket
	m.lastObjectName = objectName
	m.lastFilePath = filePath
	return m.uploadErr
}

func TestS3Uploader_Upload_Success(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "snapshot.db")
	if err := os.WriteFile(filePath, []byte("test data"), 0644); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	mock := &mockS3Client{}
	u := &S3Uploader{client: mock, bucket: "okr-backups", prefix: "backups"}

	key, err := u.Upload(context.Background(), filePath, takenAt)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	want := "backups/okrpulse-20261018T093005Z.db"
	if key != want || mock.lastObjectName != want {
		t.Errorf("key = %q, object = %q, want %q", key, mock.lastObjectName, want)
	}
	if mock.lastBucket != "okr-backups" {
		t.Errorf("bucket = %q", mock.lastBucket)
	}
	if mock.lastFilePath != filePath {
		t.Errorf("filePath = %q, want %q", mock.lastFilePath, filePath)
	}
}

func TestS3Uploader_Upload_Error(t *testing.T) {
	mock := &mockS3Client{uploadErr: errors.New("network timeout")}
	u := &S3Uploader{client: mock, bucket: "okr-backups"}

	_, err := u.Upload(context.Background(), "/path/to/file.db", takenAt)
	if !errors.Is(err, mock.uploadErr) {
		t.Errorf("expected wrapped network timeout error, got %v", err)
	}
}

func TestStripScheme(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		wantHost string
		wantSSL  bool
	}{
		{"bare host", "s3.example.com", "s3.example.com", true},
		{"bare host:port", "minio:9000", "minio:9000", true},
		{"https URL", "https://s3.example.com", "s3.example.com", true},
		{"http URL", "http://minio:9000", "minio:9000", false},
		{"http with port", "http://localhost:9000", "localhost:9000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ssl := true
			got := stripScheme(tt.endpoint, &ssl)
			if got != tt.wantHost {
				t.Errorf("stripScheme(%q) host = %q, want %q", tt.endpoint, got, tt.wantHost)
			}
			if ssl != tt.wantSSL {
				t.Errorf("stripScheme(%q) ssl = %v, want %v", tt.endpoint, ssl, tt.wantSSL)
			}
		})
	}
}

func TestObjectKey_Format(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"backups", "backups/okrpulse-20261018T093005Z.db"},
		{"/nightly/", "nightly/okrpulse-20261018T093005Z.db"},
		{"", "okrpulse-20261018T093005Z.db"},
	}

	for _, tt := range tests {
		if got := objectKey(tt.prefix, takenAt); got != tt.want {
			t.Errorf("objectKey(%q) = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}
