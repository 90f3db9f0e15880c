package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/face-registry/internal/constants"
	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/kozaktomas/face-registry/internal/extractor"
	"github.com/kozaktomas/face-registry/internal/storage"
)

// RecognizeStatus is the outcome of a recognition.
type RecognizeStatus string

const (
	StatusMatched  RecognizeStatus = "matched"
	StatusNotFound RecognizeStatus = "not_found"
	StatusNoFace   RecognizeStatus = "no_face"
)

// RecognizeRequest is one probe photo.
type RecognizeRequest struct {
	Filename string
	Photo    []byte
}

// RecognizeResult is the recognition answer.
type RecognizeResult struct {
	Status    RecognizeStatus
	Label     string  // enrollee name, or constants.NotFoundLabel
	Distance  float64 // set when Status is StatusMatched
	Ref       string  // image of the matched enrollee
	ImagePath string  // where the probe was stored
	Report    *LoadReport
}

// Recognize identifies the person in a probe photo. The probe is stored under
// its own filename, replacing any earlier probe with that name. Names of
// enrolled images and temporary uploads are refused with ErrReservedFilename.
func (s *Service) Recognize(ctx context.Context, req RecognizeRequest) (*RecognizeResult, error) {
	result, err := s.recognize(ctx, req)
	if err != nil {
		if IsClientError(err) {
			s.metrics.Recognition("rejected")
		} else {
			s.metrics.Recognition("error")
			s.log.WithError(err).Error("recognition failed")
		}
		return nil, err
	}

	s.metrics.Recognition(string(result.Status))
	s.log.WithFields(logrus.Fields{
		"status": result.Status,
		"label":  result.Label,
		"image":  result.ImagePath,
	}).Info("recognition finished")
	return result, nil
}

func (s *Service) recognize(ctx context.Context, req RecognizeRequest) (*RecognizeResult, error) {
	if len(req.Photo) == 0 {
		return nil, ErrNoPhoto
	}
	filename, err := storage.CleanName(req.Filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilename, req.Filename)
	}

	enrollees, err := s.store.ListEnrollees(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing enrollees: %w", err)
	}
	if reservedProbeName(filename, enrollees) {
		return nil, fmt.Errorf("%w: %q", ErrReservedFilename, filename)
	}

	if err := s.storage.Put(ctx, filename, req.Photo); err != nil {
		return nil, fmt.Errorf("saving probe: %w", err)
	}

	faces, err := s.extract(ctx, req.Photo)
	if err != nil {
		return nil, err
	}
	probe, ok := extractor.First(faces)
	if !ok {
		return &RecognizeResult{Status: StatusNoFace, ImagePath: filename}, nil
	}

	report, err := s.buildGallery(ctx, enrollees, len(probe), nil)
	if err != nil {
		return nil, err
	}

	match, found, err := s.index.Find(probe, report.Candidates, s.tolerance)
	if err != nil {
		return nil, fmt.Errorf("matching: %w", err)
	}
	if !found {
		return &RecognizeResult{
			Status:    StatusNotFound,
			Label:     constants.NotFoundLabel,
			ImagePath: filename,
			Report:    report,
		}, nil
	}
	return &RecognizeResult{
		Status:    StatusMatched,
		Label:     match.Label,
		Distance:  match.Distance,
		Ref:       match.Ref,
		ImagePath: filename,
		Report:    report,
	}, nil
}

// reservedProbeName reports whether storing a probe as name would replace an
// enrolled reference image or an in-flight upload.
func reservedProbeName(name string, enrollees []database.Enrollee) bool {
	if strings.HasPrefix(name, constants.TempPrefix) {
		return true
	}
	for _, e := range enrollees {
		if e.ImagePath == name {
			return true
		}
	}
	return false
}
