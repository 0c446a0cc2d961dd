package media

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"nyapix/internal/logging"
)

// BlobStore keeps media payloads by object key.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string) (string, error)
}

// Config locates the object store. An empty Endpoint disables storage.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	URLExpiry time.Duration
}

// Enabled reports whether an endpoint is configured.
func (c Config) Enabled() bool {
	return c.Endpoint != ""
}

// MinIOStore is a BlobStore backed by an S3 compatible bucket.
type MinIOStore struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

// NewMinIOStore connects to the bucket described by cfg, creating it when it
// does not exist.
func NewMinIOStore(ctx context.Context, cfg Config) (*MinIOStore, error) {
	if !cfg.Enabled() {
		return nil, ErrStorageDisabled
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}

	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}

	s := &MinIOStore{client: client, bucket: cfg.Bucket, expiry: expiry}
	if err := s.ensureBucket(ctx, cfg.Region); err != nil {
		return nil, err
	}
	logging.Info("Object storage ready: %s/%s", cfg.Endpoint, cfg.Bucket)
	return s, nil
}

func (s *MinIOStore) ensureBucket(ctx context.Context, region string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("create bucket %q: %w", s.bucket, err)
	}
	logging.Info("Created bucket %q", s.bucket)
	return nil
}

// Put uploads a payload. A negative size streams the payload in parts.
func (s *MinIOStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"uploaded-at": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// Delete removes a payload.
func (s *MinIOStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// PresignedURL returns a time limited GET URL for a payload.
func (s *MinIOStore) PresignedURL(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}
