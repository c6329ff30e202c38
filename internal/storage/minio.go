package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore implements Backend on any S3-compatible provider (AWS S3, MinIO,
// ArvanCloud). Objects are private: reads go through presigned URLs generated
// fresh on every request with a fixed expiry.
type ObjectStore struct {
	client   *minio.Client
	bucket   string
	endpoint string
	useSSL   bool
}

// NewObjectStore creates the S3 client and verifies the bucket exists,
// creating it when missing.
func NewObjectStore(endpoint, accessKey, secretKey, bucket, region string, useSSL bool) (*ObjectStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", bucket, err)
		}
	}

	return &ObjectStore{client: client, bucket: bucket, endpoint: endpoint, useSSL: useSSL}, nil
}

// Mode reports ModeAWS.
func (s *ObjectStore) Mode() Mode { return ModeAWS }

// Put uploads the blob and returns its fully-qualified object URL as the
// reference. The URL is stable; read access still requires signing.
func (s *ObjectStore) Put(ctx context.Context, r io.Reader, size int64, contentType, logicalFolder, originalFilename string) (Handle, error) {
	key := ObjectKey(logicalFolder, originalFilename, time.Now())
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return Handle{}, fmt.Errorf("%w: put object %q: %v", ErrWrite, key, err)
	}

	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return Handle{Reference: fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, key)}, nil
}

// Delete removes the object. The provider treats removal of a missing key as
// success, matching the idempotent-delete contract.
func (s *ObjectStore) Delete(ctx context.Context, h Handle) error {
	key, err := s.keyFromReference(h.Reference)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelete, err)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("%w: remove object %q: %v", ErrDelete, key, err)
	}
	return nil
}

// ResolveURL signs a time-limited GET URL for the object. Never cached.
func (s *ObjectStore) ResolveURL(ctx context.Context, h Handle) (string, error) {
	key, err := s.keyFromReference(h.Reference)
	if err != nil {
		return "", err
	}
	signed, err := s.client.PresignedGetObject(ctx, s.bucket, key, SignedURLExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %q: %w", key, err)
	}
	return signed.String(), nil
}

// keyFromReference recovers the object key from a stored object URL.
func (s *ObjectStore) keyFromReference(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse reference %q: %w", ref, err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	key = strings.TrimPrefix(key, s.bucket+"/")
	if key == "" {
		return "", errors.New("reference holds no object key")
	}
	return key, nil
}
