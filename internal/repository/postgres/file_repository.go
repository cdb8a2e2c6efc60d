package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/airlift/airlift/internal/models"
	"github.com/airlift/airlift/internal/repository"
)

// FileRepository implements repository.FileRepository for PostgreSQL.
type FileRepository struct {
	pool *pgxpool.Pool
}

// NewFileRepository creates a new PostgreSQL file repository.
func NewFileRepository(pool *pgxpool.Pool) *FileRepository {
	return &FileRepository{pool: pool}
}

const fileColumns = `id, name, size, type, hash, upload_date, code, data,
	storage_type, storage_path, download_count, expire_date`

func scanFile(row pgx.Row) (*models.FileRecord, error) {
	file := &models.FileRecord{}
	var expireDate *int64

	err := row.Scan(
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

	file.ExpireDate = expireDate
	return file, nil
}

// Create inserts a new file record.
func (r *FileRepository) Create(ctx context.Context, file *models.FileRecord) error {
	query := `
		INSERT INTO files (
			id, name, size, type, hash, upload_date, code, data,
			storage_type, storage_path, download_count, expire_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.pool.Exec(
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
		file.ExpireDate,
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
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByCode retrieves a record by retrieval code, case-insensitively.
func (r *FileRepository) GetByCode(ctx context.Context, code string) (*models.FileRecord, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE upper(code) = upper($1)`
	return r.getOne(ctx, query, code)
}

// GetByHash retrieves a record by content hash. Ordering by expiry puts a
// live record first when an expired row still shares the hash, so dedup
// never resurrects an expired entry while a live duplicate exists.
func (r *FileRepository) GetByHash(ctx context.Context, hash string) (*models.FileRecord, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE hash = $1
		ORDER BY (expire_date IS NULL) DESC, expire_date DESC LIMIT 1`
	return r.getOne(ctx, query, hash)
}

// GetByStoragePath retrieves a record by its backend locator.
func (r *FileRepository) GetByStoragePath(ctx context.Context, storagePath string) (*models.FileRecord, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE storage_path = $1`
	return r.getOne(ctx, query, storagePath)
}

func (r *FileRepository) getOne(ctx context.Context, query string, arg any) (*models.FileRecord, error) {
	file, err := scanFile(r.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
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
		WHERE expire_date IS NOT NULL AND expire_date <= $1`
	return r.list(ctx, query, nowMillis)
}

func (r *FileRepository) list(ctx context.Context, query string, args ...any) ([]*models.FileRecord, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	var files []*models.FileRecord
	for rows.Next() {
		file, err := scanFile(rows)
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
// returns the updated record using a single UPDATE ... RETURNING.
func (r *FileRepository) IncrementDownloadCount(ctx context.Context, id string) (*models.FileRecord, error) {
	query := `
		UPDATE files SET download_count = download_count + 1
		WHERE id = $1
		RETURNING ` + fileColumns

	file, err := scanFile(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to increment download count: %w", err)
	}
	return file, nil
}

// Delete removes a record by ID.
func (r *FileRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if result.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// TotalUsage returns the summed size of all live records.
func (r *FileRepository) TotalUsage(ctx context.Context, nowMillis int64) (int64, error) {
	query := `
		SELECT COALESCE(SUM(size), 0)
		FROM files
		WHERE expire_date IS NULL OR expire_date > $1
	`

	var total int64
	if err := r.pool.QueryRow(ctx, query, nowMillis).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to get total usage: %w", err)
	}
	return total, nil
}

// Stats returns the count and summed size of all live records.
func (r *FileRepository) Stats(ctx context.Context, nowMillis int64) (int, int64, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(size), 0)
		FROM files
		WHERE expire_date IS NULL OR expire_date > $1
	`

	var totalFiles int
	var storageUsed int64
	if err := r.pool.QueryRow(ctx, query, nowMillis).Scan(&totalFiles, &storageUsed); err != nil {
		return 0, 0, fmt.Errorf("failed to get stats: %w", err)
	}
	return totalFiles, storageUsed, nil
}
