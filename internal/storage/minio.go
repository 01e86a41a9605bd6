package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig holds the connection settings for an S3-compatible bucket.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// Region skips the bucket-location lookup when set.
	Region string
}

// MinioStore reads uploads stored by the upload server's S3 backend:
// content at <path> and the sidecar at <path>.info.
type MinioStore struct {
	client   *minio.Client
	bucket   string
	maxBytes int64
}

func NewMinioStore(cfg MinioConfig, maxBytes int64) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client init error: %w", err)
	}
	return &MinioStore{client: client, bucket: cfg.Bucket, maxBytes: maxBytes}, nil
}

// EnsureBucket verifies the upload bucket exists. The bucket is owned by the
// upload server, so a missing bucket is an error rather than something to create.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("error checking bucket: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: bucket %s", ErrNotFound, s.bucket)
	}
	slog.InfoContext(ctx, "bucket exists", "bucket", s.bucket)
	return nil
}

func (s *MinioStore) ReadFile(ctx context.Context, path string) ([]byte, error) {
	return s.read(ctx, cleanKey(path))
}

func (s *MinioStore) ReadInfo(ctx context.Context, path string) (*FileInfo, error) {
	data, err := s.read(ctx, cleanKey(path)+InfoSuffix)
	if err != nil {
		return nil, err
	}
	return ParseInfo(data)
}

func (s *MinioStore) read(ctx context.Context, key string) ([]byte, error) {
	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapError(key, err)
	}
	defer object.Close()

	st, err := object.Stat()
	if err != nil {
		return nil, s.mapError(key, err)
	}
	if s.maxBytes > 0 && st.Size > s.maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, key, st.Size)
	}

	content, err := io.ReadAll(object)
	if err != nil {
		return nil, s.mapError(key, err)
	}
	return content, nil
}

func (s *MinioStore) mapError(key string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return fmt.Errorf("get object %s: %w", key, err)
}
