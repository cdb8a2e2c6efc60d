// Package mock provides an in-memory storage.Backend for testing.
package mock

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/airlift/airlift/internal/storage"
)

// MockStorage implements storage.Backend backed by a map. Error fields let
// tests inject failures per operation.
type MockStorage struct {
	mu      sync.Mutex
	objects map[string][]byte

	PutErr    error
	OpenErr   error
	DeleteErr error

	PutCalls    int
	DeleteCalls int
}

// NewMockStorage creates an empty mock backend.
func NewMockStorage() *MockStorage {
	return &MockStorage{objects: make(map[string][]byte)}
}

func (m *MockStorage) Put(ctx context.Context, pathHint string, reader io.Reader, size int64) (*storage.PutResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutCalls++

	if m.PutErr != nil {
		return nil, m.PutErr
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, storage.NewStorageError("Put", pathHint, err)
	}
	m.objects[pathHint] = data

	return &storage.PutResult{
		URL:         "mock://" + pathHint,
		StoragePath: pathHint,
	}, nil
}

func (m *MockStorage) Open(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.OpenErr != nil {
		return nil, m.OpenErr
	}

	data, ok := m.objects[storagePath]
	if !ok {
		return nil, storage.NewStorageErrorWithMessage("Open", storagePath, nil, "object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MockStorage) Delete(ctx context.Context, storagePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++

	if m.DeleteErr != nil {
		return m.DeleteErr
	}

	delete(m.objects, storagePath)
	return nil
}

// Has reports whether bytes exist for the given path.
func (m *MockStorage) Has(storagePath string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[storagePath]
	return ok
}

// Len returns the number of stored objects.
func (m *MockStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
