package database

import (
	"context"
)

// EnrolleeReader provides read-only access to enrollees
type EnrolleeReader interface {
	// ListEnrollees returns every enrollee in insertion order (ID ascending)
	ListEnrollees(ctx context.Context) ([]Enrollee, error)
	// CountEnrollees returns the number of stored enrollees
	CountEnrollees(ctx context.Context) (int, error)
}

// EnrolleeWriter provides write access to enrollees
type EnrolleeWriter interface {
	EnrolleeReader

	// CreateEnrollee inserts a new record and fills in ID and CreatedAt
	CreateEnrollee(ctx context.Context, e *Enrollee) error
}

// VectorCache persists feature vectors keyed by image reference.
// A lookup only hits when the stored fingerprint matches.
type VectorCache interface {
	GetVector(ctx context.Context, imagePath, fingerprint string) ([]float32, bool, error)
	PutVector(ctx context.Context, imagePath, fingerprint string, vector []float32) error
}

// Store is an opened database backend.
type Store interface {
	EnrolleeWriter

	// Migrate applies pending schema migrations
	Migrate(ctx context.Context) error
	// Close releases the connection pool
	Close() error
}
