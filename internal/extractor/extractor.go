// Package extractor turns images into face feature vectors.
//
// The extraction itself is delegated: either to a remote embedding server
// speaking the /embed/face protocol, or to dlib through go-face when the
// binary is built with the dlib tag.
package extractor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kozaktomas/face-registry/internal/config"
)

// Face is a single detected face.
type Face struct {
	Index  int
	Vector []float32
	BBox   []float64 // [x1, y1, x2, y2] in pixels
	Score  float64
}

// Extractor returns zero or more faces per image, ordered by face index.
type Extractor interface {
	Extract(ctx context.Context, image []byte) ([]Face, error)
}

// Closer is implemented by extractors that hold native resources.
type Closer interface {
	Close() error
}

// First returns the vector of the first detected face.
func First(faces []Face) ([]float32, bool) {
	if len(faces) == 0 || len(faces[0].Vector) == 0 {
		return nil, false
	}
	return faces[0].Vector, true
}

func sortFaces(faces []Face) {
	sort.SliceStable(faces, func(i, j int) bool { return faces[i].Index < faces[j].Index })
}

// New creates the extractor selected by configuration.
func New(cfg config.ExtractorConfig) (Extractor, error) {
	switch cfg.Backend {
	case "", "http":
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		return NewHTTPExtractor(cfg.URL, timeout, cfg.MaxImageSize), nil
	case "dlib":
		return NewDlib(cfg.ModelsDir)
	default:
		return nil, fmt.Errorf("unknown extractor backend %q", cfg.Backend)
	}
}
