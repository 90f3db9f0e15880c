// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/kozaktomas/face-registry/internal/database"
)

// MockStore is an in-memory implementation of database.Store and
// database.VectorCache.
type MockStore struct {
	mu        sync.RWMutex
	enrollees []database.Enrollee
	vectors   map[string]vectorEntry
	nextID    int64

	// Error injection
	ListError      error
	CountError     error
	CreateError    error
	GetVectorError error
	PutVectorError error
	MigrateError   error

	// Call counters
	ListCalls      int
	CreateCalls    int
	GetVectorCalls int
	PutVectorCalls int
}

type vectorEntry struct {
	fingerprint string
	vector      []float32
}

var (
	_ database.Store       = (*MockStore)(nil)
	_ database.VectorCache = (*MockStore)(nil)
)

// NewMockStore creates a new empty mock store
func NewMockStore() *MockStore {
	return &MockStore{
		vectors: make(map[string]vectorEntry),
		nextID:  1,
	}
}

// AddEnrollee adds an enrollee directly, assigning the next ID
func (m *MockStore) AddEnrollee(name, email, imagePath string) database.Enrollee {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := database.Enrollee{
		ID:        m.nextID,
		Name:      name,
		Email:     email,
		ImagePath: imagePath,
		CreatedAt: time.Now(),
	}
	m.nextID++
	m.enrollees = append(m.enrollees, e)
	return e
}

// Enrollees returns a copy of all stored enrollees
func (m *MockStore) Enrollees() []database.Enrollee {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.Enrollee, len(m.enrollees))
	copy(out, m.enrollees)
	return out
}

// CachedVectors returns the number of cached vectors
func (m *MockStore) CachedVectors() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}

// ListEnrollees returns all enrollees in insertion order
func (m *MockStore) ListEnrollees(ctx context.Context) ([]database.Enrollee, error) {
	m.mu.Lock()
	m.ListCalls++
	m.mu.Unlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	return m.Enrollees(), nil
}

// CountEnrollees returns the number of enrollees
func (m *MockStore) CountEnrollees(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.enrollees), nil
}

// CreateEnrollee stores a new enrollee
func (m *MockStore) CreateEnrollee(ctx context.Context, e *database.Enrollee) error {
	m.mu.Lock()
	m.CreateCalls++
	m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	created := m.AddEnrollee(e.Name, e.Email, e.ImagePath)
	e.ID = created.ID
	e.CreatedAt = created.CreatedAt
	return nil
}

// GetVector returns a cached vector when the fingerprint matches
func (m *MockStore) GetVector(ctx context.Context, imagePath, fingerprint string) ([]float32, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetVectorCalls++
	if m.GetVectorError != nil {
		return nil, false, m.GetVectorError
	}
	entry, ok := m.vectors[imagePath]
	if !ok || entry.fingerprint != fingerprint {
		return nil, false, nil
	}
	return entry.vector, true, nil
}

// PutVector stores a vector
func (m *MockStore) PutVector(ctx context.Context, imagePath, fingerprint string, vector []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutVectorCalls++
	if m.PutVectorError != nil {
		return m.PutVectorError
	}
	m.vectors[imagePath] = vectorEntry{fingerprint: fingerprint, vector: vector}
	return nil
}

// Migrate does nothing unless MigrateError is set
func (m *MockStore) Migrate(ctx context.Context) error {
	return m.MigrateError
}

// Close does nothing
func (m *MockStore) Close() error {
	return nil
}

// MockEnrolleeWriter wraps a MockStore but hides the VectorCache methods,
// for exercising stores that have no persistent cache.
type MockEnrolleeWriter struct {
	Store *MockStore
}

// ListEnrollees delegates to the wrapped store
func (w MockEnrolleeWriter) ListEnrollees(ctx context.Context) ([]database.Enrollee, error) {
	return w.Store.ListEnrollees(ctx)
}

// CountEnrollees delegates to the wrapped store
func (w MockEnrolleeWriter) CountEnrollees(ctx context.Context) (int, error) {
	return w.Store.CountEnrollees(ctx)
}

// CreateEnrollee delegates to the wrapped store
func (w MockEnrolleeWriter) CreateEnrollee(ctx context.Context, e *database.Enrollee) error {
	return w.Store.CreateEnrollee(ctx, e)
}
