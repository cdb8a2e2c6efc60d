package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/airlift/airlift/internal/models"
	"github.com/airlift/airlift/internal/repository"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Initialize(":memory:")
	if err != nil {
		t.Fatalf("failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func int64Ptr(v int64) *int64 { return &v }

func testRecord(id, code, hash string) *models.FileRecord {
	return &models.FileRecord{
		ID:          id,
		Name:        "report.pdf",
		Size:        1024,
		Type:        "application/pdf",
		Hash:        hash,
		UploadDate:  1_700_000_000_000,
		Code:        code,
		Data:        "/files/" + code + "_1700000000000.pdf",
		StorageType: models.StorageLocal,
		StoragePath: code + "_1700000000000.pdf",
	}
}

func TestCreateAndGetByID(t *testing.T) {
	repo := NewFileRepository(newTestDB(t))
	ctx := context.Background()

	record := testRecord("id-1", "ABC234", "hash-1")
	if err := repo.Create(ctx, record); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "id-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Code != "ABC234" || got.Hash != "hash-1" || got.Name != "report.pdf" {
		t.Errorf("record mismatch: %+v", got)
	}
	if got.DownloadCount != 0 {
		t.Errorf("new record has download count %d", got.DownloadCount)
	}
}

func TestCreateDuplicateCode(t *testing.T) {
	repo := NewFileRepository(newTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testRecord("id-1", "ABC234", "hash-1")); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	err := repo.Create(ctx, testRecord("id-2", "ABC234", "hash-2"))
	if !errors.Is(err, repository.ErrDuplicateCode) {
		t.Errorf("expected ErrDuplicateCode, got %v", err)
	}
}

func TestGetByCodeCaseInsensitive(t *testing.T) {
	repo := NewFileRepository(newTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testRecord("id-1", "ABC234", "hash-1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for _, code := range []string{"ABC234", "abc234", "AbC234"} {
		got, err := repo.GetByCode(ctx, code)
		if err != nil {
			t.Errorf("GetByCode(%q) failed: %v", code, err)
			continue
		}
		if got.ID != "id-1" {
			t.Errorf("GetByCode(%q) returned %q", code, got.ID)
		}
	}

	if _, err := repo.GetByCode(ctx, "ZZZZZZ"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown code, got %v", err)
	}
}

func TestGetByHash(t *testing.T) {
	repo := NewFileRepository(newTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testRecord("id-1", "ABC234", "hash-1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByHash(ctx, "hash-1")
	if err != nil {
		t.Fatalf("GetByHash failed: %v", err)
	}
	if got.ID != "id-1" {
		t.Errorf("GetByHash returned %q", got.ID)
	}

	if _, err := repo.GetByHash(ctx, "no-such-hash"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetByHashPrefersLiveRecord(t *testing.T) {
	tests := []struct {
		name       string
		liveExpire *int64
	}{
		{"live never expires", nil},
		{"live with later deadline", int64Ptr(9_999_999_999_999)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFileRepository(newTestDB(t))
			ctx := context.Background()

			// The expired row is inserted first so a lookup without ordering
			// would return it.
			expired := testRecord("id-expired", "ABC234", "shared-hash")
			expired.ExpireDate = int64Ptr(1)
			if err := repo.Create(ctx, expired); err != nil {
				t.Fatalf("Create failed: %v", err)
			}

			live := testRecord("id-live", "DEF567", "shared-hash")
			live.ExpireDate = tt.liveExpire
			if err := repo.Create(ctx, live); err != nil {
				t.Fatalf("Create failed: %v", err)
			}

			got, err := repo.GetByHash(ctx, "shared-hash")
			if err != nil {
				t.Fatalf("GetByHash failed: %v", err)
			}
			if got.ID != "id-live" {
				t.Errorf("GetByHash returned %q, want the live record", got.ID)
			}
		})
	}
}

func TestGetByStoragePath(t *testing.T) {
	repo := NewFileRepository(newTestDB(t))
	ctx := context.Background()

	record := testRecord("id-1", "ABC234", "hash-1")
	if err := repo.Create(ctx, record); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByStoragePath(ctx, record.StoragePath)
	if err != nil {
		t.Fatalf("GetByStoragePath failed: %v", err)
	}
	if got.ID != "id-1" {
		t.Errorf("GetByStoragePath returned %q", got.ID)
	}
}

func TestLookupsReturnExpiredRecords(t *testing.T) {
	repo := NewFileRepository(newTestDB(t))
	ctx := context.Background()

	record := testRecord("id-1", "ABC234", "hash-1")
	record.ExpireDate = int64Ptr(1) // long past
	if err := repo.Create(ctx, record); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Expiry is caller policy; the repository must still return the row.
	got, err := repo.GetByCode(ctx, "ABC234")
	if err != nil {
		t.Fatalf("GetByCode hid an expired record: %v", err)
	}
	if got.ExpireDate == nil || *got.ExpireDate != 1 {
		t.Errorf("expire date not round-tripped: %+v", got.ExpireDate)
	}
}

func TestGetAllOrdersNewestFirst(t *testing.T) {
	repo := NewFileRepository(newTestDB(t))
	ctx := context.Background()

	older := testRecord("id-1", "ABC234", "hash-1")
	older.UploadDate = 1000
	newer := testRecord("id-2", "DEF567", "hash-2")
	newer.UploadDate = 2000

	for _, r := range []*models.FileRecord{older, newer} {
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	all, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}
	if all[0].ID != "id-2" || all[1].ID != "id-1" {
		t.Errorf("wrong order: %q, %q", all[0].ID, all[1].ID)
	}
}

func TestIncrementDownloadCount(t *testing.T) {
	repo := NewFileRepository(newTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testRecord("id-1", "ABC234", "hash-1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for want := int64(1); want <= 3; want++ {
		got, err := repo.IncrementDownloadCount(ctx, "id-1")
		if err != nil {
			t.Fatalf("IncrementDownloadCount failed: %v", err)
		}
		if got.DownloadCount != want {
			t.Errorf("download count = %d, want %d", got.DownloadCount, want)
		}
	}

	if _, err := repo.IncrementDownloadCount(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestIncrementDownloadCountConcurrent(t *testing.T) {
	// File-backed database: each connection to :memory: would get its own
	// empty database, and the single UPDATE must hold up under real
	// connection-level concurrency.
	db, err := Initialize(filepath.Join(t.TempDir(), "files.db"))
	if err != nil {
		t.Fatalf("failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := NewFileRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, testRecord("id-1", "ABC234", "hash-1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	const n = 25
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.IncrementDownloadCount(ctx, "id-1")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("IncrementDownloadCount failed: %v", err)
		}
	}

	got, err := repo.GetByID(ctx, "id-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.DownloadCount != n {
		t.Errorf("download count = %d, want %d (lost updates)", got.DownloadCount, n)
	}
}

func TestDelete(t *testing.T) {
	repo := NewFileRepository(newTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testRecord("id-1", "ABC234", "hash-1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.Delete(ctx, "id-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.GetByID(ctx, "id-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("record still present after delete: %v", err)
	}
	if err := repo.Delete(ctx, "id-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListExpired(t *testing.T) {
	repo := NewFileRepository(newTestDB(t))
	ctx := context.Background()
	now := int64(5000)

	expired := testRecord("id-1", "ABC234", "hash-1")
	expired.ExpireDate = int64Ptr(4000)
	live := testRecord("id-2", "DEF567", "hash-2")
	live.ExpireDate = int64Ptr(9000)
	forever := testRecord("id-3", "GHJ789", "hash-3")

	for _, r := range []*models.FileRecord{expired, live, forever} {
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	got, err := repo.ListExpired(ctx, now)
	if err != nil {
		t.Fatalf("ListExpired failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "id-1" {
		t.Errorf("expected only id-1 expired, got %+v", got)
	}
}

func TestTotalUsageAndStatsExcludeExpired(t *testing.T) {
	repo := NewFileRepository(newTestDB(t))
	ctx := context.Background()
	now := int64(5000)

	expired := testRecord("id-1", "ABC234", "hash-1")
	expired.Size = 100
	expired.ExpireDate = int64Ptr(4000)
	live := testRecord("id-2", "DEF567", "hash-2")
	live.Size = 200
	forever := testRecord("id-3", "GHJ789", "hash-3")
	forever.Size = 300

	for _, r := range []*models.FileRecord{expired, live, forever} {
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	usage, err := repo.TotalUsage(ctx, now)
	if err != nil {
		t.Fatalf("TotalUsage failed: %v", err)
	}
	if usage != 500 {
		t.Errorf("usage = %d, want 500 (expired excluded)", usage)
	}

	count, used, err := repo.Stats(ctx, now)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if count != 2 || used != 500 {
		t.Errorf("stats = (%d, %d), want (2, 500)", count, used)
	}
}
