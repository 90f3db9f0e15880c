package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFace means the extractor found no face in the uploaded photo.
	ErrNoFace = errors.New("no face detected")
	// ErrDuplicate means the photo matches an existing enrollee.
	ErrDuplicate = errors.New("already enrolled")
	// ErrNoPhoto means the request carried no photo.
	ErrNoPhoto = errors.New("photo is required")
	// ErrMissingName means the enrollment had an empty name.
	ErrMissingName = errors.New("name is required")
	// ErrInvalidFilename means the upload name is empty or not an image type.
	ErrInvalidFilename = errors.New("invalid filename")
	// ErrInvalidImage means the upload could not be decoded as an image.
	ErrInvalidImage = errors.New("invalid image")
	// ErrReservedFilename means a probe was named after an enrolled image or
	// a temporary upload. It wraps ErrInvalidFilename.
	ErrReservedFilename = fmt.Errorf("%w: name is reserved", ErrInvalidFilename)
)

// DuplicateError reports the enrollee a rejected photo matched.
// errors.Is(err, ErrDuplicate) holds for it.
type DuplicateError struct {
	Label    string
	Ref      string
	Distance float64
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("already enrolled as %q (distance %.4f)", e.Label, e.Distance)
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicate
}

// IsClientError reports whether err was caused by the request rather than
// by infrastructure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNoFace) ||
		errors.Is(err, ErrDuplicate) ||
		errors.Is(err, ErrNoPhoto) ||
		errors.Is(err, ErrMissingName) ||
		errors.Is(err, ErrInvalidFilename) ||
		errors.Is(err, ErrInvalidImage)
}
