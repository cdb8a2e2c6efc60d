package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/airlift/airlift/internal/models"
	"github.com/airlift/airlift/internal/repository"
	"github.com/airlift/airlift/internal/storage"
)

// Reaper deletes records (and their bytes) whose expiry deadline has passed.
// It only ever touches already-expired records, so it is safe to run
// concurrently with uploads and downloads; the DB row is deleted last so an
// in-flight download that already resolved its record can still finish.
type Reaper struct {
	files        repository.FileRepository
	settings     *SettingsService
	provider     storage.Provider
	interval     time.Duration
	startupDelay time.Duration
	now          func() time.Time

	// OnDelete, if set, is invoked after each fully reaped record.
	OnDelete func(record *models.FileRecord)
}

// NewReaper creates an expiry reaper. A nil now func defaults to time.Now.
func NewReaper(files repository.FileRepository, settings *SettingsService, provider storage.Provider, interval, startupDelay time.Duration, now func() time.Time) *Reaper {
	if now == nil {
		now = time.Now
	}
	return &Reaper{
		files:        files,
		settings:     settings,
		provider:     provider,
		interval:     interval,
		startupDelay: startupDelay,
		now:          now,
	}
}

// Run sweeps once shortly after start (delayed so storage can finish
// initializing), then on a fixed interval until the context is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	slog.Info("expiry reaper started",
		"interval", r.interval,
		"startup_delay", r.startupDelay,
	)

	select {
	case <-ctx.Done():
		return
	case <-time.After(r.startupDelay):
		r.Sweep(ctx)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("expiry reaper shutting down")
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep runs one reaping cycle and returns the number of records deleted.
// Per-record failures are isolated: one bad record never aborts the cycle.
func (r *Reaper) Sweep(ctx context.Context) int {
	start := r.now()
	expired, err := r.files.ListExpired(ctx, start.UnixMilli())
	if err != nil {
		slog.Error("reaper failed to list expired files", "error", err)
		return 0
	}
	if len(expired) == 0 {
		slog.Debug("reaper cycle completed", "deleted", 0)
		return 0
	}

	settings, err := r.settings.Get(ctx)
	if err != nil {
		slog.Error("reaper failed to load settings", "error", err)
		return 0
	}

	deleted := 0
	for _, record := range expired {
		if r.reapOne(ctx, record, settings) {
			deleted++
			if r.OnDelete != nil {
				r.OnDelete(record)
			}
		}
	}

	slog.Info("reaper cycle completed",
		"deleted", deleted,
		"candidates", len(expired),
		"duration", time.Since(start),
	)
	return deleted
}

// reapOne deletes a single expired record's bytes, then its row.
func (r *Reaper) reapOne(ctx context.Context, record *models.FileRecord, settings models.AppSettings) bool {
	backend, err := r.provider.Backend(ctx, record.StorageType, settings)
	if err != nil {
		// No usable backend (e.g. object storage credentials removed).
		// Bytes cleanup there is best-effort; the row still goes.
		slog.Warn("reaper has no backend for record, deleting row only",
			"id", record.ID, "storage_type", record.StorageType, "error", err)
	} else if err := backend.Delete(ctx, record.StoragePath); err != nil {
		if record.StorageType == models.StorageLocal {
			// Keep the row so the next cycle retries; Delete already treats
			// a missing file as success.
			slog.Error("reaper failed to delete local bytes, keeping record for retry",
				"id", record.ID, "path", record.StoragePath, "error", err)
			return false
		}
		slog.Warn("reaper failed to delete object bytes, deleting row anyway",
			"id", record.ID, "path", record.StoragePath, "error", err)
	}

	if err := r.files.Delete(ctx, record.ID); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			slog.Error("reaper failed to delete record", "id", record.ID, "error", err)
			return false
		}
		// Row vanished under us (admin delete raced the sweep) - fine.
		return false
	}

	slog.Info("expired file reaped",
		"id", record.ID,
		"code", record.Code,
		"name", record.Name,
	)
	return true
}
