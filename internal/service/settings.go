package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/airlift/airlift/internal/models"
	"github.com/airlift/airlift/internal/repository"
)

// SettingsService reads and writes the application settings document.
// Settings are loaded from the store on every read so changes made by an
// admin take effect without a restart.
type SettingsService struct {
	repo repository.SettingsRepository
}

// NewSettingsService creates a settings service.
func NewSettingsService(repo repository.SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

// Get returns the current settings with defaults filled in for fields a
// previously saved document never set. DefaultExpireDays is left alone:
// zero is a meaningful value (never expire).
func (s *SettingsService) Get(ctx context.Context) (models.AppSettings, error) {
	stored, err := s.repo.Load(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		return models.AppSettings{}, fmt.Errorf("failed to load settings: %w", err)
	}

	defaults := models.DefaultSettings()
	settings := *stored
	if settings.StorageLimitMB <= 0 {
		settings.StorageLimitMB = defaults.StorageLimitMB
	}
	if settings.MaxFileSizeMB <= 0 {
		settings.MaxFileSizeMB = defaults.MaxFileSizeMB
	}
	if settings.StorageType == "" {
		settings.StorageType = defaults.StorageType
	}
	return settings, nil
}

// Save merges the patch into the current settings, validates the result,
// and persists it. Fields absent from the patch retain their previous value.
func (s *SettingsService) Save(ctx context.Context, patch models.SettingsPatch) (models.AppSettings, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return models.AppSettings{}, err
	}

	merged := models.MergeSettings(current, patch)

	if err := validateSettings(merged); err != nil {
		return models.AppSettings{}, err
	}

	if err := s.repo.Save(ctx, merged); err != nil {
		return models.AppSettings{}, fmt.Errorf("failed to save settings: %w", err)
	}

	return merged, nil
}

func validateSettings(s models.AppSettings) error {
	if s.StorageLimitMB <= 0 {
		return fmt.Errorf("%w: storageLimitMB must be positive", ErrValidation)
	}
	if s.MaxFileSizeMB <= 0 {
		return fmt.Errorf("%w: maxFileSizeMB must be positive", ErrValidation)
	}
	if s.DefaultExpireDays < 0 {
		return fmt.Errorf("%w: defaultExpireDays cannot be negative", ErrValidation)
	}
	switch s.StorageType {
	case models.StorageLocal:
	case models.StorageOSS:
		if s.OSSConfig.Endpoint == "" || s.OSSConfig.Bucket == "" {
			return fmt.Errorf("%w: object storage requires endpoint and bucket", ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown storage type %q", ErrValidation, s.StorageType)
	}
	return nil
}
