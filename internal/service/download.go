package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/airlift/airlift/internal/models"
	"github.com/airlift/airlift/internal/repository"
	"github.com/airlift/airlift/internal/storage"
)

// Downloader resolves retrieval codes to records and accounts downloads.
type Downloader struct {
	files    repository.FileRepository
	settings *SettingsService
	provider storage.Provider
	now      func() time.Time
}

// NewDownloader creates a download accountor. A nil now func defaults to
// time.Now.
func NewDownloader(files repository.FileRepository, settings *SettingsService, provider storage.Provider, now func() time.Time) *Downloader {
	if now == nil {
		now = time.Now
	}
	return &Downloader{
		files:    files,
		settings: settings,
		provider: provider,
		now:      now,
	}
}

// Resolve maps a retrieval code to its record. Returns ErrNotFound on a
// miss and ErrExpired when the record exists but its deadline has passed.
// The reaper may not have deleted it yet, but access is already denied.
func (d *Downloader) Resolve(ctx context.Context, code string) (*models.FileRecord, error) {
	record, err := d.files.GetByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if record.Expired(d.now().UnixMilli()) {
		return nil, ErrExpired
	}
	return record, nil
}

// RecordDownload atomically increments the download counter and returns the
// updated record.
func (d *Downloader) RecordDownload(ctx context.Context, id string) (*models.FileRecord, error) {
	record, err := d.files.IncrementDownloadCount(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Open returns a reader over the record's stored bytes.
func (d *Downloader) Open(ctx context.Context, record *models.FileRecord) (io.ReadCloser, error) {
	settings, err := d.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	backend, err := d.provider.Backend(ctx, record.StorageType, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	body, err := backend.Open(ctx, record.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return body, nil
}
