package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/airlift/airlift/internal/models"
	"github.com/airlift/airlift/internal/repository"
	"github.com/airlift/airlift/internal/storage"
	"github.com/airlift/airlift/internal/utils"
)

// maxCodeAttempts bounds insert retries when a generated retrieval code
// collides with an existing one.
const maxCodeAttempts = 5

// Uploader orchestrates the file upload lifecycle: validation, dedup by
// content hash, byte storage, code assignment, and record creation. It also
// owns admin deletion since that reuses the same bytes-plus-record pairing.
type Uploader struct {
	files    repository.FileRepository
	settings *SettingsService
	provider storage.Provider
	now      func() time.Time
}

// NewUploader creates an upload orchestrator. A nil now func defaults to
// time.Now; tests inject a fixed clock.
func NewUploader(files repository.FileRepository, settings *SettingsService, provider storage.Provider, now func() time.Time) *Uploader {
	if now == nil {
		now = time.Now
	}
	return &Uploader{
		files:    files,
		settings: settings,
		provider: provider,
		now:      now,
	}
}

// Upload stores the stream and returns its record. If identical content is
// already stored and not expired, the existing record is returned unchanged
// and deduped reports this: uploads are idempotent under identical content.
//
// declaredSize is the untrusted client-declared length (-1 if unknown); it is
// used for an early reject, then re-validated against the bytes actually
// received.
func (u *Uploader) Upload(ctx context.Context, r io.Reader, declaredSize int64, name, mimeType string) (record *models.FileRecord, deduped bool, err error) {
	if name == "" {
		return nil, false, fmt.Errorf("%w: missing filename", ErrValidation)
	}

	settings, err := u.settings.Get(ctx)
	if err != nil {
		return nil, false, err
	}

	maxBytes := int64(settings.MaxFileSizeMB * 1024 * 1024)
	if declaredSize > maxBytes {
		return nil, false, fmt.Errorf("%w: limit is %g MB", ErrFileTooLarge, settings.MaxFileSizeMB)
	}

	// Spool to a temp file while hashing. The declared size is not
	// trustworthy, so the cap is enforced on the bytes actually received.
	spool, err := utils.SpoolStream(r, maxBytes)
	if err != nil {
		if errors.Is(err, utils.ErrSpoolTooLarge) {
			return nil, false, fmt.Errorf("%w: limit is %g MB", ErrFileTooLarge, settings.MaxFileSizeMB)
		}
		return nil, false, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	defer spool.Close()

	nowMillis := u.now().UnixMilli()

	usage, err := u.files.TotalUsage(ctx, nowMillis)
	if err != nil {
		return nil, false, err
	}
	if usage+spool.Size > int64(settings.StorageLimitMB*1024*1024) {
		return nil, false, fmt.Errorf("%w: limit is %g MB", ErrQuotaExceeded, settings.StorageLimitMB)
	}

	// Dedup: identical content that is still live gets the existing record,
	// no new bytes and no new code.
	existing, err := u.files.GetByHash(ctx, spool.Hash)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}
	if existing != nil && !existing.Expired(nowMillis) {
		slog.Info("upload deduplicated", "hash", spool.Hash, "code", existing.Code)
		return existing, true, nil
	}

	backend, err := u.provider.Backend(ctx, settings.StorageType, settings)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	code, err := utils.GenerateCode()
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	// Backend-chosen storage name: never the user-supplied filename, which
	// is preserved only in record metadata.
	storagePath := storedFilename(code, name, nowMillis)

	body, err := spool.Reader()
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	put, err := backend.Put(ctx, storagePath, body, spool.Size)
	if err != nil {
		slog.Error("storage put failed", "path", storagePath, "error", err)
		return nil, false, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	if mimeType == "" {
		mimeType = u.sniffType(spool)
	}

	var expireDate *int64
	if settings.DefaultExpireDays > 0 {
		d := nowMillis + int64(settings.DefaultExpireDays)*86400000
		expireDate = &d
	}

	record = &models.FileRecord{
		ID:          uuid.NewString(),
		Name:        name,
		Size:        spool.Size,
		Type:        mimeType,
		Hash:        spool.Hash,
		UploadDate:  nowMillis,
		Code:        code,
		Data:        put.URL,
		StorageType: settings.StorageType,
		StoragePath: put.StoragePath,
		ExpireDate:  expireDate,
	}

	if err := u.insertWithRetry(ctx, record); err != nil {
		// Bytes are already stored; compensate so no orphaned blob is left
		// behind. Cleanup failures are logged, never re-raised.
		if delErr := backend.Delete(ctx, put.StoragePath); delErr != nil {
			slog.Error("compensating delete failed", "path", put.StoragePath, "error", delErr)
		}
		return nil, false, err
	}

	slog.Info("file uploaded",
		"id", record.ID,
		"code", record.Code,
		"name", record.Name,
		"size", record.Size,
		"storage_type", record.StorageType,
	)
	return record, false, nil
}

// insertWithRetry inserts the record, regenerating the retrieval code on a
// uniqueness conflict up to maxCodeAttempts times.
func (u *Uploader) insertWithRetry(ctx context.Context, record *models.FileRecord) error {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		err := u.files.Create(ctx, record)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateCode) {
			return err
		}

		slog.Warn("retrieval code collision, regenerating", "code", record.Code, "attempt", attempt+1)
		code, genErr := utils.GenerateCode()
		if genErr != nil {
			return fmt.Errorf("%w: %v", ErrInternal, genErr)
		}
		record.Code = code
	}
	return fmt.Errorf("%w: could not find unique retrieval code after %d attempts", ErrInternal, maxCodeAttempts)
}

// Delete removes a record and its bytes. Bytes deletion tolerates an already
// missing file; object-store deletion is best-effort.
func (u *Uploader) Delete(ctx context.Context, id string) error {
	record, err := u.files.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	settings, err := u.settings.Get(ctx)
	if err != nil {
		return err
	}

	backend, err := u.provider.Backend(ctx, record.StorageType, settings)
	if err != nil {
		slog.Warn("no backend for stored file, deleting record only",
			"id", id, "storage_type", record.StorageType, "error", err)
	} else if err := backend.Delete(ctx, record.StoragePath); err != nil {
		if record.StorageType == models.StorageLocal {
			return fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}
		slog.Warn("object delete failed, deleting record anyway",
			"id", id, "path", record.StoragePath, "error", err)
	}

	if err := u.files.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	slog.Info("file deleted", "id", id, "code", record.Code, "name", record.Name)
	return nil
}

// sniffType detects the MIME type from the spooled content.
func (u *Uploader) sniffType(spool *utils.Spool) string {
	body, err := spool.Reader()
	if err != nil {
		return "application/octet-stream"
	}
	mtype, err := mimetype.DetectReader(body)
	if err != nil {
		return "application/octet-stream"
	}
	return mtype.String()
}

// storedFilename builds the backend storage name {code}_{timestamp}.{ext}.
// The extension comes from the original name so downloads keep a usable
// suffix; everything else is backend-chosen to avoid collisions and
// encoding issues with user-supplied names.
func storedFilename(code, originalName string, nowMillis int64) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	ext = sanitizeExt(ext)
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("%s_%d%s", code, nowMillis, ext)
}

// sanitizeExt keeps only extensions that are safe in storage paths.
func sanitizeExt(ext string) string {
	if ext == "" || ext == "." {
		return ""
	}
	for _, c := range ext[1:] {
		ok := (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
		if !ok {
			return ""
		}
	}
	if len(ext) > 16 {
		return ""
	}
	return ext
}
