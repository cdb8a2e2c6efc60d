package filesystem

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStorage(t *testing.T) *FilesystemStorage {
	t.Helper()
	fs, err := NewFilesystemStorage(t.TempDir(), "/files")
	if err != nil {
		t.Fatalf("NewFilesystemStorage failed: %v", err)
	}
	return fs
}

func TestPutOpenDelete(t *testing.T) {
	fs := newTestStorage(t)
	ctx := context.Background()
	content := []byte("stored bytes")

	result, err := fs.Put(ctx, "ABC234_1700000000000.txt", bytes.NewReader(content), int64(len(content)))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if result.StoragePath != "ABC234_1700000000000.txt" {
		t.Errorf("unexpected storage path %q", result.StoragePath)
	}
	if result.URL != "/files/ABC234_1700000000000.txt" {
		t.Errorf("unexpected URL %q", result.URL)
	}

	reader, err := fs.Open(ctx, result.StoragePath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer reader.Close()

	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("content mismatch: got %q, want %q", got, content)
	}

	if err := fs.Delete(ctx, result.StoragePath); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := fs.Open(ctx, result.StoragePath); err == nil {
		t.Error("expected Open to fail after delete")
	}
}

func TestDeleteMissingFileIsNotAnError(t *testing.T) {
	fs := newTestStorage(t)

	if err := fs.Delete(context.Background(), "never-existed.bin"); err != nil {
		t.Errorf("expected nil for missing file, got %v", err)
	}
}

func TestPutRejectsSizeMismatch(t *testing.T) {
	fs := newTestStorage(t)

	_, err := fs.Put(context.Background(), "short.bin", strings.NewReader("abc"), 10)
	if err == nil {
		t.Fatal("expected size mismatch error")
	}

	// The partial temp file must not survive.
	entries, readErr := os.ReadDir(fs.baseDir)
	if readErr != nil {
		t.Fatalf("ReadDir failed: %v", readErr)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty dir after failed put, found %d entries", len(entries))
	}
}

func TestPathTraversalRejected(t *testing.T) {
	fs := newTestStorage(t)
	ctx := context.Background()

	tests := []string{
		"../escape.bin",
		"../../etc/passwd",
		"/etc/passwd",
		"nested/../../escape.bin",
	}

	for _, path := range tests {
		t.Run(path, func(t *testing.T) {
			if _, err := fs.Put(ctx, path, strings.NewReader("x"), 1); err == nil {
				t.Errorf("Put accepted traversal path %q", path)
			}
			if _, err := fs.Open(ctx, path); err == nil {
				t.Errorf("Open accepted traversal path %q", path)
			}
			if err := fs.Delete(ctx, path); err == nil {
				t.Errorf("Delete accepted traversal path %q", path)
			}
		})
	}
}

func TestPutIsAtomic(t *testing.T) {
	fs := newTestStorage(t)

	if _, err := fs.Put(context.Background(), "a.bin", strings.NewReader("data"), 4); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// No .tmp remnants after a successful put.
	entries, err := os.ReadDir(fs.baseDir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("temp file %q left behind", e.Name())
		}
	}
}
