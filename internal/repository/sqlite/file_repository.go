package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/airlift/airlift/internal/models"
	"github.com/airlift/airlift/internal/repository"
)

// FileRepository implements repository.FileRepository for SQLite.
type FileRepository struct {
	db *sql.DB
}

// NewFileRepository creates a new SQLite file repository.
func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{db: db}
}

// isUniqueViolation checks if an error is a UNIQUE constraint violation.
// modernc.org/sqlite does not export a typed error for this, so the message
// is the contract.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "unique constraint failed") ||
		strings.Contains(errStr, "constraint failed: unique") ||
		strings.Contains(errStr, "(2067)") // SQLITE_CONSTRAINT_UNIQUE
}

const fileColumns = `id, name, size, type, hash, upload_date, code, data,
	storage_type, storage_path, download_count, expire_date`

// scanFile scans one file row from a *sql.Row or *sql.Rows.
func scanFile(scan func(dest ...any) error) (*models.FileRecord, error) {
	file := &models.FileRecord{}
	var expireDate sql.NullInt64

	err := scan(
		&file.ID,
		&file.Name,
		&file.Size,
		&file.Type,
		&file.Hash,
		&file.UploadDate,
		&file.Code,
		&file.Data,
		&file.StorageType,
		&file.StoragePath,
		&file.DownloadCount,
		&expireDate,
	)
	if err != nil {
		return nil, err
	}

	if expireDate.Valid {
		file.ExpireDate = &expireDate.Int64
	}
	return file, nil
}

// Create inserts a new file record.
func (r *FileRepository) Create(ctx context.Context, file *models.FileRecord) error {
	query := `
		INSERT INTO files (
			id, name, size, type, hash, upload_date, code, data,
			storage_type, storage_path, download_count, expire_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var expireDate any
	if file.ExpireDate != nil {
		expireDate = *file.ExpireDate
	}

	_, err := r.db.ExecContext(
		ctx,
		query,
		file.ID,
		file.Name,
		file.Size,
		file.Type,
		file.Hash,
		file.UploadDate,
		file.Code,
		file.Data,
		file.StorageType,
		file.StoragePath,
		file.DownloadCount,
		expireDate,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateCode
		}
		return fmt.Errorf("failed to insert file: %w", err)
	}

	return nil
}

// GetByID retrieves a record by its ID.
func (r *FileRepository) GetByID(ctx context.Context, id string) (*models.FileRecord, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = ?`
	return r.getOne(ctx, query, id)
}

// GetByCode retrieves a record by retrieval code, case-insensitively.
func (r *FileRepository) GetByCode(ctx context.Context, code string) (*models.FileRecord, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE upper(code) = upper(?)`
	return r.getOne(ctx, query, code)
}

// GetByHash retrieves a record by content hash. Ordering by expiry puts a
// live record first when an expired row still shares the hash, so dedup
// never resurrects an expired entry while a live duplicate exists.
func (r *FileRepository) GetByHash(ctx context.Context, hash string) (*models.FileRecord, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE hash = ?
		ORDER BY (expire_date IS NULL) DESC, expire_date DESC LIMIT 1`
	return r.getOne(ctx, query, hash)
}

// GetByStoragePath retrieves a record by its backend locator.
func (r *FileRepository) GetByStoragePath(ctx context.Context, storagePath string) (*models.FileRecord, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE storage_path = ?`
	return r.getOne(ctx, query, storagePath)
}

func (r *FileRepository) getOne(ctx context.Context, query string, arg any) (*models.FileRecord, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	file, err := scanFile(row.Scan)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query file: %w", err)
	}
	return file, nil
}

// GetAll returns all records ordered by upload date, newest first.
func (r *FileRepository) GetAll(ctx context.Context) ([]*models.FileRecord, error) {
	query := `SELECT ` + fileColumns + ` FROM files ORDER BY upload_date DESC`
	return r.list(ctx, query)
}

// ListExpired returns all records whose expire date has passed.
func (r *FileRepository) ListExpired(ctx context.Context, nowMillis int64) ([]*models.FileRecord, error) {
	query := `SELECT ` + fileColumns + ` FROM files
		WHERE expire_date IS NOT NULL AND expire_date <= ?`
	return r.list(ctx, query, nowMillis)
}

func (r *FileRepository) list(ctx context.Context, query string, args ...any) ([]*models.FileRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	var files []*models.FileRecord
	for rows.Next() {
		file, err := scanFile(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file row: %w", err)
		}
		files = append(files, file)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating file rows: %w", err)
	}

	return files, nil
}

// IncrementDownloadCount atomically increments the download counter and
// returns the updated record.
func (r *FileRepository) IncrementDownloadCount(ctx context.Context, id string) (*models.FileRecord, error) {
	query := `UPDATE files SET download_count = download_count + 1 WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to increment download count: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, repository.ErrNotFound
	}

	return r.GetByID(ctx, id)
}

// Delete removes a record by ID.
func (r *FileRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// TotalUsage returns the summed size of all live records.
func (r *FileRepository) TotalUsage(ctx context.Context, nowMillis int64) (int64, error) {
	query := `
		SELECT COALESCE(SUM(size), 0)
		FROM files
		WHERE expire_date IS NULL OR expire_date > ?
	`

	var total int64
	if err := r.db.QueryRowContext(ctx, query, nowMillis).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to get total usage: %w", err)
	}
	return total, nil
}

// Stats returns the count and summed size of all live records.
func (r *FileRepository) Stats(ctx context.Context, nowMillis int64) (int, int64, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(size), 0)
		FROM files
		WHERE expire_date IS NULL OR expire_date > ?
	`

	var totalFiles int
	var storageUsed int64
	if err := r.db.QueryRowContext(ctx, query, nowMillis).Scan(&totalFiles, &storageUsed); err != nil {
		return 0, 0, fmt.Errorf("failed to get stats: %w", err)
	}
	return totalFiles, storageUsed, nil
}
