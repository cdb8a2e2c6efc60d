// Package s3 implements the storage.Backend interface for AWS S3 and
// S3-compatible object stores (MinIO, Aliyun OSS, etc.).
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/airlift/airlift/internal/storage"
)

// multipartUploadPartSize is the size for S3 multipart upload parts (5MB minimum)
const multipartUploadPartSize = 5 * 1024 * 1024

// Config holds configuration for the object-storage backend.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // Custom endpoint for MinIO or other S3-compatible services
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool // Use path-style addressing (required for MinIO)
}

// S3Storage implements storage.Backend for S3-compatible object storage.
type S3Storage struct {
	client    *s3.Client
	uploader  *manager.Uploader
	bucket    string
	publicURL string
}

// NewS3Storage creates a new S3Storage with the given configuration.
func NewS3Storage(ctx context.Context, cfg Config) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("object storage bucket name is required")
	}

	var optFuncs []func(*config.LoadOptions) error

	if cfg.Region != "" {
		optFuncs = append(optFuncs, config.WithRegion(cfg.Region))
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		optFuncs = append(optFuncs, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, optFuncs...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.PathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = multipartUploadPartSize
	})

	// Verify bucket access with a HEAD request so misconfiguration surfaces
	// at startup instead of on the first upload.
	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	}); err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	slog.Info("object storage initialized",
		"bucket", cfg.Bucket,
		"region", cfg.Region,
		"endpoint", cfg.Endpoint,
		"path_style", cfg.PathStyle,
	)

	return &S3Storage{
		client:    client,
		uploader:  uploader,
		bucket:    cfg.Bucket,
		publicURL: objectBaseURL(cfg),
	}, nil
}

// objectBaseURL derives the public URL prefix for stored objects.
func objectBaseURL(cfg Config) string {
	if cfg.Endpoint != "" {
		endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
		if cfg.PathStyle {
			return endpoint + "/" + cfg.Bucket
		}
		// Virtual-hosted style: insert the bucket as a subdomain.
		if idx := strings.Index(endpoint, "://"); idx != -1 {
			return endpoint[:idx+3] + cfg.Bucket + "." + endpoint[idx+3:]
		}
		return cfg.Bucket + "." + endpoint
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
}

// validateKey ensures the object key doesn't contain path traversal or
// dangerous characters.
func (s *S3Storage) validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty key not allowed")
	}

	if strings.ContainsRune(key, '\x00') {
		return fmt.Errorf("null bytes not allowed in key")
	}

	if strings.Contains(key, "%") {
		return fmt.Errorf("encoded characters not allowed in key")
	}

	if strings.Contains(key, "..") {
		return fmt.Errorf("path traversal not allowed: %s", key)
	}

	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == "/" || strings.HasPrefix(cleaned, "/") {
		return fmt.Errorf("invalid key: %s", key)
	}

	return nil
}

// Put streams data to the object store under the given key.
func (s *S3Storage) Put(ctx context.Context, pathHint string, reader io.Reader, size int64) (*storage.PutResult, error) {
	if err := s.validateKey(pathHint); err != nil {
		return nil, storage.NewStorageErrorWithMessage("Put", pathHint, err, "key validation failed")
	}

	// Multipart upload manager streams the body, so large files never sit
	// fully in memory.
	if _, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(pathHint),
		Body:   reader,
	}); err != nil {
		return nil, storage.NewStorageError("Put", pathHint, err)
	}

	slog.Debug("object stored", "key", pathHint, "size", size)

	return &storage.PutResult{
		URL:         s.publicURL + "/" + pathHint,
		StoragePath: pathHint,
	}, nil
}

// Open returns a reader for the stored object.
func (s *S3Storage) Open(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	if err := s.validateKey(storagePath); err != nil {
		return nil, storage.NewStorageErrorWithMessage("Open", storagePath, err, "key validation failed")
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storagePath),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, storage.NewStorageErrorWithMessage("Open", storagePath, err, "object not found")
		}
		return nil, storage.NewStorageError("Open", storagePath, err)
	}

	return result.Body, nil
}

// Delete removes an object. Deleting a missing object is not an error
// (S3 DeleteObject is already idempotent).
func (s *S3Storage) Delete(ctx context.Context, storagePath string) error {
	if err := s.validateKey(storagePath); err != nil {
		return storage.NewStorageErrorWithMessage("Delete", storagePath, err, "key validation failed")
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storagePath),
	}); err != nil {
		return storage.NewStorageError("Delete", storagePath, err)
	}

	slog.Debug("object deleted", "key", storagePath)
	return nil
}
