package matcher

import "fmt"

// Index finds the best match for a probe in a gallery.
type Index interface {
	Find(probe []float32, gallery []Candidate, tolerance float64) (Match, bool, error)
}

// Linear is the exact full-scan index.
type Linear struct{}

// Find implements Index.
func (Linear) Find(probe []float32, gallery []Candidate, tolerance float64) (Match, bool, error) {
	return FindMatch(probe, gallery, tolerance)
}

// New returns the index named by kind ("linear" or "hnsw").
func New(kind string) (Index, error) {
	switch kind {
	case "", "linear":
		return Linear{}, nil
	case "hnsw":
		return NewHNSW(), nil
	default:
		return nil, fmt.Errorf("unknown matcher index %q", kind)
	}
}
