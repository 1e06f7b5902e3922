package minio

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"docassist-web/internal/shared/storage/object"
)

// Store implements ObjectStore on a MinIO (or any S3-compatible) endpoint.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// New connects to endpoint and creates bucket when it does not exist yet.
func New(ctx context.Context, endpoint, accessKey, secretKey, bucket, prefix string, useSSL bool) (*Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}
	return &Store{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

// Put uploads r under the owner's namespace. Size is unknown up front so the
// client streams it as a multipart upload.
func (s *Store) Put(ctx context.Context, ownerID, fileName, contentType string, r io.Reader) (object.Object, error) {
	key, err := object.NewKey(ownerID, fileName)
	if err != nil {
		return object.Object{}, fmt.Errorf("sanitize file name: %w", err)
	}
	body, contentType, err := object.Sniff(r, contentType)
	if err != nil {
		return object.Object{}, fmt.Errorf("read sniff: %w", err)
	}
	objectKey := object.ApplyPrefix(s.prefix, key)
	info, err := s.client.PutObject(ctx, s.bucket, objectKey, body, -1, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return object.Object{}, fmt.Errorf("minio put object bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}
	return object.Object{Key: key, Size: info.Size, ContentType: contentType}, nil
}

// Open streams a stored object.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	objectKey := object.ApplyPrefix(s.prefix, key)
	obj, err := s.client.GetObject(ctx, s.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("minio get object bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}
	// GetObject is lazy; Stat surfaces a missing key before the caller starts reading.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, object.ErrNotFound
		}
		return nil, fmt.Errorf("minio stat object bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}
	return obj, nil
}

// Delete removes a stored object.
func (s *Store) Delete(ctx context.Context, key string) error {
	objectKey := object.ApplyPrefix(s.prefix, key)
	if err := s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio remove object bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}
	return nil
}

var _ object.ObjectStore = (*Store)(nil)
