package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/airlift/airlift/internal/models"
	"github.com/airlift/airlift/internal/storage"
	"github.com/airlift/airlift/internal/storage/s3"
)

// backendProvider resolves storage backends per request. The filesystem
// backend is fixed at startup; the object-storage backend is built lazily
// from settings (credentials live in the settings document, and an admin can
// change them at runtime) and cached until the OSS config changes.
type backendProvider struct {
	local storage.Backend

	mu        sync.Mutex
	ossKey    string
	ossCached storage.Backend
}

func newBackendProvider(local storage.Backend) *backendProvider {
	return &backendProvider{local: local}
}

func (p *backendProvider) Backend(ctx context.Context, storageType models.StorageType, settings models.AppSettings) (storage.Backend, error) {
	switch storageType {
	case models.StorageLocal:
		return p.local, nil

	case models.StorageOSS:
		oss := settings.OSSConfig
		if oss.Endpoint == "" || oss.Bucket == "" {
			return nil, fmt.Errorf("object storage requires endpoint and bucket")
		}

		key := strings.Join([]string{oss.Endpoint, oss.Bucket, oss.Region, oss.AccessKeyID, oss.AccessKeySecret}, "\x00")

		p.mu.Lock()
		defer p.mu.Unlock()
		if p.ossCached != nil && p.ossKey == key {
			return p.ossCached, nil
		}

		backend, err := s3.NewS3Storage(ctx, s3.Config{
			Bucket:          oss.Bucket,
			Region:          oss.Region,
			Endpoint:        oss.Endpoint,
			AccessKeyID:     oss.AccessKeyID,
			SecretAccessKey: oss.AccessKeySecret,
			PathStyle:       true, // most S3-compatible endpoints need it
		})
		if err != nil {
			return nil, err
		}

		p.ossCached = backend
		p.ossKey = key
		return backend, nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageType)
	}
}
