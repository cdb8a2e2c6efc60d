// Package repository defines interfaces for data access operations.
// This package provides abstractions for database operations, allowing
// different backend implementations (SQLite, PostgreSQL) to be swapped
// without changing application code.
package repository

import (
	"errors"
	"time"
)

// Common errors returned by repository operations.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicateCode is returned when an insert violates the uniqueness
	// constraint on the retrieval code. The orchestrator reacts by
	// regenerating the code and retrying the insert.
	ErrDuplicateCode = errors.New("duplicate retrieval code")

	// ErrNilDatabase is returned when a nil database connection is provided.
	ErrNilDatabase = errors.New("nil database connection")
)

// Session represents an authenticated admin session.
type Session struct {
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Repositories holds all repository implementations.
// This struct provides a single point of access to all data access layers.
type Repositories struct {
	Files    FileRepository
	Settings SettingsRepository
	Sessions SessionRepository

	// Close releases the underlying connection pool.
	Close func() error
}
