// Package filesystem implements the storage.Backend interface for local disk.
package filesystem

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/airlift/airlift/internal/storage"
)

// FilesystemStorage implements storage.Backend on a sandboxed base directory.
type FilesystemStorage struct {
	baseDir    string // Base directory for all storage operations
	absBaseDir string // Absolute path of baseDir for path validation
	publicPath string // URL path prefix under which stored files are served
}

// NewFilesystemStorage creates a FilesystemStorage rooted at baseDir.
// publicPath is the URL prefix returned in Put results (e.g. "/files").
func NewFilesystemStorage(baseDir, publicPath string) (*FilesystemStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, storage.NewStorageError("NewFilesystemStorage", baseDir, err)
	}

	absBaseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, storage.NewStorageError("NewFilesystemStorage", baseDir, err)
	}

	return &FilesystemStorage{
		baseDir:    baseDir,
		absBaseDir: absBaseDir,
		publicPath: strings.TrimSuffix(publicPath, "/"),
	}, nil
}

// validatePath validates that the filename doesn't escape the base directory.
// Returns the safe full path or an error if path traversal is detected.
func (fs *FilesystemStorage) validatePath(filename string) (string, error) {
	cleanFilename := filepath.Clean(filename)

	if filepath.IsAbs(cleanFilename) {
		return "", fmt.Errorf("absolute paths not allowed: %s", filename)
	}

	if strings.HasPrefix(cleanFilename, "..") || strings.Contains(cleanFilename, string(filepath.Separator)+"..") {
		return "", fmt.Errorf("path traversal not allowed: %s", filename)
	}

	fullPath := filepath.Join(fs.baseDir, cleanFilename)

	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	// The resolved path must stay within baseDir.
	if !strings.HasPrefix(absPath, fs.absBaseDir+string(filepath.Separator)) && absPath != fs.absBaseDir {
		return "", fmt.Errorf("path escape attempt: %s", filename)
	}

	return fullPath, nil
}

// Put writes data from the reader to disk under the given path hint.
// Uses atomic write pattern (temp file then rename) for safety.
func (fs *FilesystemStorage) Put(ctx context.Context, pathHint string, reader io.Reader, size int64) (*storage.PutResult, error) {
	filePath, err := fs.validatePath(pathHint)
	if err != nil {
		return nil, storage.NewStorageErrorWithMessage("Put", pathHint, err, "path validation failed")
	}
	tempPath := filePath + ".tmp"

	tempFile, err := os.Create(tempPath)
	if err != nil {
		return nil, storage.NewStorageError("Put", pathHint, err)
	}

	var succeeded bool
	defer func() {
		tempFile.Close()
		if !succeeded {
			os.Remove(tempPath)
		}
	}()

	written, err := io.Copy(tempFile, reader)
	if err != nil {
		return nil, storage.NewStorageError("Put", pathHint, err)
	}

	// A known size that doesn't match what arrived means a truncated or
	// corrupted transfer; never keep the partial write.
	if size > 0 && written != size {
		return nil, storage.NewStorageErrorWithMessage("Put", pathHint, nil,
			fmt.Sprintf("size mismatch: expected %d bytes, wrote %d bytes", size, written))
	}

	if err := tempFile.Close(); err != nil {
		return nil, storage.NewStorageError("Put", pathHint, err)
	}

	if err := os.Rename(tempPath, filePath); err != nil {
		return nil, storage.NewStorageError("Put", pathHint, err)
	}

	succeeded = true
	slog.Debug("file stored", "path", pathHint, "size", written)

	return &storage.PutResult{
		URL:         fs.publicPath + "/" + pathHint,
		StoragePath: pathHint,
	}, nil
}

// Open returns a reader for the stored file.
func (fs *FilesystemStorage) Open(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	filePath, err := fs.validatePath(storagePath)
	if err != nil {
		return nil, storage.NewStorageErrorWithMessage("Open", storagePath, err, "path validation failed")
	}

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.NewStorageErrorWithMessage("Open", storagePath, err, "file not found")
		}
		return nil, storage.NewStorageError("Open", storagePath, err)
	}

	return file, nil
}

// Delete removes a file from storage. Missing files are not an error.
func (fs *FilesystemStorage) Delete(ctx context.Context, storagePath string) error {
	filePath, err := fs.validatePath(storagePath)
	if err != nil {
		return storage.NewStorageErrorWithMessage("Delete", storagePath, err, "path validation failed")
	}

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return storage.NewStorageError("Delete", storagePath, err)
	}

	slog.Debug("file deleted", "path", storagePath)
	return nil
}
