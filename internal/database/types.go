package database

import (
	"time"
)

// Enrollee is a stored identity record. It is created once and never updated.
type Enrollee struct {
	ID        int64
	Name      string
	Email     string // optional contact, empty when not given
	ImagePath string // reference into image storage
	CreatedAt time.Time
}

// CachedVector is a feature vector persisted for a stored image.
type CachedVector struct {
	ImagePath   string
	Fingerprint string // storage fingerprint the vector was computed from
	Vector      []float32
	Dim         int
	CreatedAt   time.Time
}
