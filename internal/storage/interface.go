// Package storage provides abstraction for file storage operations.
// This keeps the business logic free of branching on the configured backend
// (local filesystem vs. S3-compatible object storage).
package storage

import (
	"context"
	"io"
)

// PutResult describes where stored bytes ended up.
type PutResult struct {
	// URL is a resolvable access URL for the stored bytes.
	URL string
	// StoragePath is the backend-internal locator (filename on disk or
	// object key) used to find and delete the physical bytes.
	StoragePath string
}

// Backend defines the interface for file storage operations.
type Backend interface {
	// Put stores bytes from the reader under the given path hint.
	// The hint is backend-chosen by the caller (never a user-supplied name)
	// and must not escape the backend's managed root or prefix.
	Put(ctx context.Context, pathHint string, reader io.Reader, size int64) (*PutResult, error)

	// Open returns a reader for the stored bytes.
	// The caller is responsible for closing the returned ReadCloser.
	Open(ctx context.Context, storagePath string) (io.ReadCloser, error)

	// Delete removes stored bytes. Deleting a non-existent object is not an
	// error; deleting a path outside the managed root always fails.
	Delete(ctx context.Context, storagePath string) error
}

// StorageError represents errors from storage operations with additional context.
type StorageError struct {
	Op      string // Operation that failed (e.g., "Put", "Open", "Delete")
	Path    string // Path or key involved
	Err     error  // Underlying error
	Message string // Human-readable message
}

func (e *StorageError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Path != "" {
		return e.Op + " " + e.Path + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a new StorageError with the given details.
func NewStorageError(op, path string, err error) *StorageError {
	return &StorageError{Op: op, Path: path, Err: err}
}

// NewStorageErrorWithMessage creates a new StorageError with a custom message.
func NewStorageErrorWithMessage(op, path string, err error, message string) *StorageError {
	return &StorageError{Op: op, Path: path, Err: err, Message: message}
}
