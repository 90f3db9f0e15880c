// Package matcher decides whether a probe face vector belongs to one of the
// enrolled identities.
//
// The decision is a nearest-neighbour lookup under Euclidean distance: the
// closest enrolled vector wins if it lies within the tolerance, and the
// earliest enrolled candidate wins exact ties.
package matcher

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidTolerance is returned for negative or NaN tolerances.
	ErrInvalidTolerance = errors.New("tolerance must be a non-negative number")
	// ErrDimensionMismatch is returned when a candidate and the probe differ in length.
	ErrDimensionMismatch = errors.New("vector dimensions differ")
	// ErrEmptyVector is returned for a zero-length probe.
	ErrEmptyVector = errors.New("empty probe vector")
)

// Candidate is one enrolled identity in a gallery.
type Candidate struct {
	Label  string
	Ref    string // storage reference of the source image
	Vector []float32
}

// Match describes the winning candidate.
type Match struct {
	Index    int
	Label    string
	Ref      string
	Distance float64
}

func validate(probe []float32, tolerance float64) error {
	if math.IsNaN(tolerance) || tolerance < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTolerance, tolerance)
	}
	if len(probe) == 0 {
		return ErrEmptyVector
	}
	return nil
}

func checkDimensions(probe []float32, gallery []Candidate) error {
	for i := range gallery {
		if len(gallery[i].Vector) != len(probe) {
			return fmt.Errorf("%w: candidate %d (%s) has %d, probe has %d",
				ErrDimensionMismatch, i, gallery[i].Label, len(gallery[i].Vector), len(probe))
		}
	}
	return nil
}

// FindMatch scans the whole gallery and returns the closest candidate when its
// distance is at most tolerance. ok is false for an empty gallery or when the
// closest candidate is too far away.
func FindMatch(probe []float32, gallery []Candidate, tolerance float64) (match Match, ok bool, err error) {
	if err := validate(probe, tolerance); err != nil {
		return Match{}, false, err
	}
	if err := checkDimensions(probe, gallery); err != nil {
		return Match{}, false, err
	}

	best := -1
	bestDistance := math.Inf(1)
	for i := range gallery {
		d := EuclideanDistance(probe, gallery[i].Vector)
		// Strict comparison keeps the earliest index on ties.
		if d < bestDistance {
			best = i
			bestDistance = d
		}
	}

	if best < 0 || bestDistance > tolerance {
		return Match{}, false, nil
	}

	return Match{
		Index:    best,
		Label:    gallery[best].Label,
		Ref:      gallery[best].Ref,
		Distance: bestDistance,
	}, true, nil
}
