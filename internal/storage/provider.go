package storage

import (
	"context"

	"github.com/airlift/airlift/internal/models"
)

// Provider resolves the Backend for a storage type under the current
// settings. Implementations may construct backends lazily (the object-store
// backend needs credentials that live in settings, not process config).
type Provider interface {
	Backend(ctx context.Context, storageType models.StorageType, settings models.AppSettings) (Backend, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, storageType models.StorageType, settings models.AppSettings) (Backend, error)

// Backend calls f.
func (f ProviderFunc) Backend(ctx context.Context, storageType models.StorageType, settings models.AppSettings) (Backend, error) {
	return f(ctx, storageType, settings)
}
