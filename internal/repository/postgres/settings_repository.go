package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/airlift/airlift/internal/models"
	"github.com/airlift/airlift/internal/repository"
)

// SettingsRepository implements repository.SettingsRepository for PostgreSQL.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository creates a new PostgreSQL settings repository.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// Load returns the persisted settings document.
func (r *SettingsRepository) Load(ctx context.Context) (*models.AppSettings, error) {
	var doc string
	err := r.pool.QueryRow(ctx, `SELECT doc FROM settings WHERE id = 1`).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
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
		INSERT INTO settings (id, doc) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc
	`
	if _, err := r.pool.Exec(ctx, query, string(doc)); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
