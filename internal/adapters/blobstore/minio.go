package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/okian/encore/pkg/metrics"
)

const backendMinio = "minio"

// MinioStore implements Store on a MinIO (or S3-compatible) bucket.
type MinioStore struct {
	client      *minio.Client
	bucket      string
	contentType string
}

// NewMinioStore connects to the endpoint and ensures the bucket exists.
func NewMinioStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, secure bool, opts ...MinioOption) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connect %s: %w", ErrStorage, endpoint, err)
	}

	s := &MinioStore{
		client:      client,
		bucket:      bucket,
		contentType: "text/csv",
	}
	for _, opt := range opts {
		opt(s)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("%w: check bucket %s: %w", ErrStorage, bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("%w: create bucket %s: %w", ErrStorage, bucket, err)
		}
	}
	return s, nil
}

// Put uploads data as an object named key.
func (s *MinioStore) Put(ctx context.Context, key string, data []byte) error {
	start := time.Now()
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: s.contentType,
	})
	if err != nil {
		metrics.RecordStorageError(backendMinio, "put")
		return fmt.Errorf("%w: put %s: %w", ErrStorage, key, err)
	}
	metrics.RecordStorageOp(backendMinio, "put", float64(time.Since(start).Milliseconds()))
	return nil
}

// Get downloads the object named key.
func (s *MinioStore) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		metrics.RecordStorageError(backendMinio, "get")
		return nil, fmt.Errorf("%w: get %s: %w", ErrStorage, key, err)
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		metrics.RecordStorageError(backendMinio, "get")
		return nil, fmt.Errorf("%w: read %s: %w", ErrStorage, key, err)
	}
	metrics.RecordStorageOp(backendMinio, "get", float64(time.Since(start).Milliseconds()))
	return data, nil
}

// List returns object names under prefix.
func (s *MinioStore) List(ctx context.Context, prefix string) ([]string, error) {
	start := time.Now()
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			metrics.RecordStorageError(backendMinio, "list")
			return nil, fmt.Errorf("%w: list %s: %w", ErrStorage, prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	metrics.RecordStorageOp(backendMinio, "list", float64(time.Since(start).Milliseconds()))
	return keys, nil
}
