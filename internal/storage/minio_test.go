package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewMinioStore_PublicURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  MinioConfig
		want string
	}{
		{"derived http", MinioConfig{Endpoint: "localhost:9000", Bucket: "imgs"}, "http://localhost:9000/imgs"},
		{"derived https", MinioConfig{Endpoint: "s3.example.com", Bucket: "imgs", UseSSL: true}, "https://s3.example.com/imgs"},
		{"explicit", MinioConfig{Endpoint: "localhost:9000", Bucket: "imgs", PublicURL: "https://cdn.example.com/"}, "https://cdn.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewMinioStore(tt.cfg)
			if err != nil {
				t.Fatalf("NewMinioStore: %v", err)
			}
			if s.publicURL != tt.want {
				t.Errorf("publicURL = %q, want %q", s.publicURL, tt.want)
			}
		})
	}
}

// Runs against a real S3-compatible endpoint, e.g. a local MinIO container.
func TestMinioStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	endpoint := os.Getenv("TEST_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("TEST_S3_ENDPOINT not set")
	}
	ctx := context.Background()
	s, err := NewMinioStore(MinioConfig{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("TEST_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("TEST_S3_SECRET_KEY"),
		Bucket:    "techassets-test",
		Timeout:   10 * time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.EnsureBucket(ctx, ""); err != nil {
		t.Fatalf("EnsureBucket: %v", err)
	}

	src := filepath.Join(t.TempDir(), "photos-1700000000123.PNG")
	if err := os.WriteFile(src, []byte("png"), 0o600); err != nil {
		t.Fatal(err)
	}
	url, err := s.Upload(ctx, src, "TechUploadedPhotos")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasSuffix(url, "/TechUploadedPhotos/photos-1700000000123.png") {
		t.Errorf("unexpected url %q", url)
	}

	id, ok := PublicID(url, "TechUploadedPhotos")
	if !ok {
		t.Fatalf("no public id in %q", url)
	}
	if err := s.Destroy(ctx, id); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if err := s.Destroy(ctx, id); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("second Destroy = %v, want ErrObjectNotFound", err)
	}
}
