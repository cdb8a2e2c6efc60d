package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/airlift/airlift/internal/models"
	"github.com/airlift/airlift/internal/repository"
)

// SettingsRepository implements repository.SettingsRepository for SQLite.
// The settings document is stored as a single JSON row so adding fields
// never needs a schema migration.
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new SQLite settings repository.
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Load returns the persisted settings document.
func (r *SettingsRepository) Load(ctx context.Context) (*models.AppSettings, error) {
	var doc string
	err := r.db.QueryRowContext(ctx, `SELECT doc FROM settings WHERE id = 1`).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	settings := &models.AppSettings{}
	if err := json.Unmarshal([]byte(doc), settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings document: %w", err)
	}
	return settings, nil
}

// Save persists the settings document (UPSERT).
func (r *SettingsRepository) Save(ctx context.Context, settings models.AppSettings) error {
	doc, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings document: %w", err)
	}

	query := `
		INSERT INTO settings (id, doc) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET doc = excluded.doc
	`
	if _, err := r.db.ExecContext(ctx, query, string(doc)); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
