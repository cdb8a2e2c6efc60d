package repository

import (
	"context"
	"time"

	"github.com/airlift/airlift/internal/models"
)

// FileRepository defines the interface for file-record database operations.
// All methods accept a context for cancellation and timeout support.
//
// Lookups return ErrNotFound on a miss; they do NOT filter expired records.
// Expiry is a policy decision that belongs to the caller (a download resolver
// must distinguish "expired" from "never existed", and the reaper needs to
// see expired rows to delete them).
type FileRepository interface {
	// Create inserts a new file record.
	// Returns ErrDuplicateCode if the retrieval code is already taken.
	Create(ctx context.Context, file *models.FileRecord) error

	// GetByID retrieves a record by its ID.
	GetByID(ctx context.Context, id string) (*models.FileRecord, error)

	// GetByCode retrieves a record by retrieval code, case-insensitively.
	GetByCode(ctx context.Context, code string) (*models.FileRecord, error)

	// GetByHash retrieves a record by content hash (exact match). When
	// several records share a hash, a live record wins over an expired one
	// (latest expiry first, never-expiring before all).
	GetByHash(ctx context.Context, hash string) (*models.FileRecord, error)

	// GetByStoragePath retrieves a record by its backend locator (exact match).
	GetByStoragePath(ctx context.Context, storagePath string) (*models.FileRecord, error)

	// GetAll returns all records ordered by upload date, newest first.
	GetAll(ctx context.Context) ([]*models.FileRecord, error)

	// IncrementDownloadCount atomically increments the download counter with
	// a single UPDATE and returns the updated record.
	// Returns ErrNotFound if the record doesn't exist.
	IncrementDownloadCount(ctx context.Context, id string) (*models.FileRecord, error)

	// Delete removes a record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	Delete(ctx context.Context, id string) error

	// ListExpired returns all records whose expire date is non-null and
	// <= nowMillis.
	ListExpired(ctx context.Context, nowMillis int64) ([]*models.FileRecord, error)

	// TotalUsage returns the summed size of all live (non-expired) records.
	TotalUsage(ctx context.Context, nowMillis int64) (int64, error)

	// Stats returns the count and summed size of all live records.
	Stats(ctx context.Context, nowMillis int64) (totalFiles int, storageUsed int64, err error)
}

// SettingsRepository persists the single application settings document.
type SettingsRepository interface {
	// Load returns the persisted settings document.
	// Returns ErrNotFound if settings have never been saved.
	Load(ctx context.Context) (*models.AppSettings, error)

	// Save persists the settings document, replacing any previous version.
	Save(ctx context.Context, settings models.AppSettings) error
}

// SessionRepository persists admin session tokens.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session Session) error

	// Get returns the session for a token.
	// Returns ErrNotFound if the token is unknown.
	Get(ctx context.Context, token string) (*Session, error)

	// Delete removes a session (logout). Deleting an unknown token is not
	// an error.
	Delete(ctx context.Context, token string) error

	// DeleteExpired removes all sessions past their expiry and returns the
	// number removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
