// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Face matching constants
const (
	// HNSWCandidates is the number of neighbours requested from the HNSW graph
	// before exact re-scoring.
	HNSWCandidates = 8

	// HNSWMaxNeighbors (M) is the maximum number of neighbors per node.
	HNSWMaxNeighbors = 16

	// HNSWEfSearch is the search candidate pool size.
	HNSWEfSearch = 64
)

// Processing constants
const (
	// DefaultWorkers is the default number of parallel extractions when a
	// gallery is rebuilt from storage
	DefaultWorkers = 5

	// MaxNameAttempts bounds the search for a free permanent filename
	MaxNameAttempts = 100
)

// Presentation constants
const (
	// NotFoundLabel is reported by recognition when no enrollee matches
	NotFoundLabel = "Not found"

	// TempPrefix marks temporary upload artifacts in the storage namespace
	TempPrefix = "temp_"
)
