package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/airlift/airlift/internal/models"
)

func newDownloader(env *testEnv) *Downloader {
	return NewDownloader(env.files, env.settings, fixedProvider{backend: env.backend}, fixedClock)
}

func TestResolve(t *testing.T) {
	env := newTestEnv(t, smallSettings())
	ctx := context.Background()

	record, _, err := env.uploader.Upload(ctx, bytes.NewReader([]byte("find me")), -1, "find.txt", "")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	downloader := newDownloader(env)

	got, err := downloader.Resolve(ctx, record.Code)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.ID != record.ID {
		t.Errorf("resolved %q, want %q", got.ID, record.ID)
	}
}

func TestResolveNotFound(t *testing.T) {
	env := newTestEnv(t, smallSettings())
	downloader := newDownloader(env)

	_, err := downloader.Resolve(context.Background(), "ZZZZZZ")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveExpiredIsDistinctFromNotFound(t *testing.T) {
	env := newTestEnv(t, smallSettings())
	ctx := context.Background()

	// A record whose deadline passed but which the reaper has not removed yet.
	expired := testNow.UnixMilli() - 1
	record := &models.FileRecord{
		ID:          "stale-id",
		Name:        "stale.txt",
		Size:        5,
		Type:        "text/plain",
		Hash:        hashOf("stale"),
		UploadDate:  1,
		Code:        "ABC234",
		Data:        "/files/ABC234_1.txt",
		StorageType: models.StorageLocal,
		StoragePath: "ABC234_1.txt",
		ExpireDate:  &expired,
	}
	if err := env.files.Create(ctx, record); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	downloader := newDownloader(env)

	_, err := downloader.Resolve(ctx, "ABC234")
	if !errors.Is(err, ErrExpired) {
		t.Errorf("expected ErrExpired, got %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("ErrExpired must not satisfy ErrNotFound")
	}
}

func TestRecordDownload(t *testing.T) {
	env := newTestEnv(t, smallSettings())
	ctx := context.Background()

	record, _, err := env.uploader.Upload(ctx, bytes.NewReader([]byte("count me")), -1, "count.txt", "")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	downloader := newDownloader(env)

	for want := int64(1); want <= 3; want++ {
		got, err := downloader.RecordDownload(ctx, record.ID)
		if err != nil {
			t.Fatalf("RecordDownload failed: %v", err)
		}
		if got.DownloadCount != want {
			t.Errorf("download count = %d, want %d", got.DownloadCount, want)
		}
	}

	if _, err := downloader.RecordDownload(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenStreamsStoredBytes(t *testing.T) {
	env := newTestEnv(t, smallSettings())
	ctx := context.Background()
	content := []byte("stream these bytes")

	record, _, err := env.uploader.Upload(ctx, bytes.NewReader(content), -1, "stream.txt", "")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	downloader := newDownloader(env)

	body, err := downloader.Open(ctx, record)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer body.Close()

	got, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("content mismatch: got %q, want %q", got, content)
	}
}
