//go:build dlib

package extractor

import (
	"context"
	"fmt"
	"sync"

	face "github.com/Kagami/go-face"
)

// DlibExtractor runs dlib's ResNet face descriptor model in-process.
// Descriptors have 128 dimensions.
type DlibExtractor struct {
	mu  sync.Mutex // go-face recognizers are not safe for concurrent use
	rec *face.Recognizer
}

// NewDlib loads the dlib models from modelsDir.
func NewDlib(modelsDir string) (Extractor, error) {
	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("loading dlib models from %s: %w", modelsDir, err)
	}
	return &DlibExtractor{rec: rec}, nil
}

// Extract implements Extractor.
func (d *DlibExtractor) Extract(ctx context.Context, imageData []byte) ([]Face, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	jpegData, err := ToJPEG(imageData)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	detected, err := d.rec.Recognize(jpegData)
	d.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("dlib recognize: %w", err)
	}

	faces := make([]Face, 0, len(detected))
	for i, f := range detected {
		vector := make([]float32, len(f.Descriptor))
		copy(vector, f.Descriptor[:])
		r := f.Rectangle
		faces = append(faces, Face{
			Index:  i,
			Vector: vector,
			BBox:   []float64{float64(r.Min.X), float64(r.Min.Y), float64(r.Max.X), float64(r.Max.Y)},
			Score:  1,
		})
	}
	return faces, nil
}

// Close releases the native recognizer.
func (d *DlibExtractor) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rec.Close()
	return nil
}
