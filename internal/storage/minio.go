package storage

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig configures a MinioStore.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	// PublicURL is the base URL objects are served from. Defaults to
	// "<scheme>://<endpoint>/<bucket>".
	PublicURL string
	// Timeout bounds each remote call. Zero means no timeout.
	Timeout time.Duration
}

// MinioStore is an ObjectStore backed by any S3-compatible service.
type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
	timeout   time.Duration
}

// NewMinioStore connects to the object store described by cfg.
func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: minio client: %w", err)
	}
	publicURL := strings.TrimSuffix(cfg.PublicURL, "/")
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + cfg.Endpoint + "/" + cfg.Bucket
	}
	return &MinioStore{client: client, bucket: cfg.Bucket, publicURL: publicURL, timeout: cfg.Timeout}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *MinioStore) EnsureBucket(ctx context.Context, region string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("storage: bucket exists: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("storage: make bucket: %w", err)
	}
	return nil
}

// withTimeout always returns a cancelable context; ListObjects stops its
// producer goroutine only on cancel.
func (s *MinioStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *MinioStore) Upload(ctx context.Context, localPath, folder string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	key, _ := objectKey(localPath, folder)
	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if _, err := s.client.FPutObject(ctx, s.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", fmt.Errorf("storage: put object %q: %w", key, err)
	}
	return s.publicURL + "/" + key, nil
}

// Destroy removes every object stored as publicID plus a single extension.
func (s *MinioStore) Destroy(ctx context.Context, publicID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	found := 0
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: publicID + "."}) {
		if obj.Err != nil {
			return fmt.Errorf("storage: list objects %q: %w", publicID, obj.Err)
		}
		if !hasPublicID(obj.Key, publicID) {
			continue
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("storage: remove object %q: %w", obj.Key, err)
		}
		found++
	}
	if found == 0 {
		return ErrObjectNotFound
	}
	return nil
}
