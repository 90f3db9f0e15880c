//go:build !dlib

package extractor

import "errors"

// ErrDlibUnavailable is returned when the binary was built without the dlib tag.
var ErrDlibUnavailable = errors.New("dlib extractor not compiled in (build with -tags dlib)")

// NewDlib reports that the dlib backend is unavailable in this build.
func NewDlib(modelsDir string) (Extractor, error) {
	return nil, ErrDlibUnavailable
}
