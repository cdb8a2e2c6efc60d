// Package service implements the file lifecycle operations: upload
// orchestration, download accounting, settings management, and expiry
// reaping. Handlers translate these errors to HTTP responses; internal
// detail stays in the logs.
package service

import "errors"

var (
	// ErrValidation is returned for missing or malformed input.
	ErrValidation = errors.New("invalid input")

	// ErrFileTooLarge is returned when a file exceeds the per-file size cap.
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")

	// ErrQuotaExceeded is returned when an upload would exceed the aggregate
	// storage quota.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrNotFound is returned when a lookup misses.
	ErrNotFound = errors.New("file not found")

	// ErrExpired is returned when a record exists but its expiry deadline has
	// passed. Distinct from ErrNotFound: the reaper may not have deleted the
	// row yet, but access is already denied.
	ErrExpired = errors.New("file has expired")

	// ErrStorageFailure is returned when a storage backend operation fails.
	ErrStorageFailure = errors.New("storage operation failed")

	// ErrConfiguration is returned when the selected backend is not usable
	// with the current settings (e.g. object storage without credentials).
	ErrConfiguration = errors.New("storage configuration incomplete")

	// ErrInternal is returned when code-generation retries are exhausted or
	// another unrecoverable internal condition occurs.
	ErrInternal = errors.New("internal error")
)
