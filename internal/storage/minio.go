// internal/storage/minio.go
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	gocache "github.com/patrickmn/go-cache"

	"keratoscan-back/internal/config"
)

const (
	// scanPrefix is where patient scan objects live inside the bucket.
	scanPrefix = "patient_images"

	presignExpiry = time.Hour
	// Cached URLs are dropped well before the presign expires so a listing
	// never hands out a URL about to go stale.
	presignCacheTTL = 45 * time.Minute
)

// MinIOClient wraps the object store used for patient scans.
type MinIOClient struct {
	client *minio.Client
	bucket string
	urls   *gocache.Cache
}

// NewMinIOClient connects to MinIO and ensures the scan bucket exists. This is
// the one-time session establishment for blob access: every component that
// receives the client may assume uploads are already authorized.
func NewMinIOClient(cfg config.MinIOConfig) (*MinIOClient, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &MinIOClient{
		client: client,
		bucket: cfg.Bucket,
		urls:   gocache.New(presignCacheTTL, 10*time.Minute),
	}, nil
}

// ScanObjectName builds the object name for a patient scan, keyed by the
// patient identifier and the original file name.
func ScanObjectName(idNumber, filename string) string {
	return fmt.Sprintf("%s/%s_%s", scanPrefix, idNumber, filepath.Base(filename))
}

// Upload stores an object and returns its name.
func (m *MinIOClient) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := m.client.PutObject(ctx, m.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to MinIO: %w", err)
	}
	return objectName, nil
}

// Get returns a reader over an object.
func (m *MinIOClient) Get(ctx context.Context, objectName string) (io.ReadCloser, error) {
	object, err := m.client.GetObject(ctx, m.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return object, nil
}

// Remove deletes an object.
func (m *MinIOClient) Remove(ctx context.Context, objectName string) error {
	err := m.client.RemoveObject(ctx, m.bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete from MinIO: %w", err)
	}
	return nil
}

// PresignedURL returns a retrievable URL for an object. URLs are cached for
// less than the presign expiry to keep listings cheap.
func (m *MinIOClient) PresignedURL(ctx context.Context, objectName string) (string, error) {
	if cached, ok := m.urls.Get(objectName); ok {
		return cached.(string), nil
	}

	url, err := m.client.PresignedGetObject(ctx, m.bucket, objectName, presignExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	m.urls.SetDefault(objectName, url.String())
	return url.String(), nil
}
