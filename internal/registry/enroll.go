package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/face-registry/internal/constants"
	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/kozaktomas/face-registry/internal/extractor"
	"github.com/kozaktomas/face-registry/internal/storage"
)

// EnrollState is a step of the enrollment workflow.
type EnrollState string

const (
	StateReceived          EnrollState = "RECEIVED"
	StateExtracted         EnrollState = "EXTRACTED"
	StateChecked           EnrollState = "CHECKED"
	StateRejectedDuplicate EnrollState = "REJECTED_DUPLICATE"
	StateStored            EnrollState = "STORED"
	StateFailedNoFace      EnrollState = "FAILED_NO_FACE"
)

// EnrollRequest is one enrollment submission.
type EnrollRequest struct {
	Name     string
	Email    string
	Filename string
	Photo    []byte
}

// EnrollResult reports how far an enrollment got.
type EnrollResult struct {
	State     EnrollState
	Enrollee  *database.Enrollee // set when State is StateStored
	Duplicate *DuplicateError    // set when State is StateRejectedDuplicate
	Report    *LoadReport        // gallery used for the duplicate check
}

// Enroll runs the enrollment workflow. The returned result is never nil and
// carries the last state reached, also when err is non-nil.
//
// A duplicate returns *DuplicateError, a photo without faces returns
// ErrNoFace. In both cases nothing is left behind in storage or the store.
func (s *Service) Enroll(ctx context.Context, req EnrollRequest) (*EnrollResult, error) {
	result := &EnrollResult{State: StateReceived}
	err := s.enroll(ctx, req, result)

	label := string(result.State)
	if err != nil && !IsClientError(err) {
		label = "ERROR"
	}
	s.metrics.Enrollment(label)

	entry := s.log.WithFields(logrus.Fields{"state": result.State, "name": sanitizeForLog(req.Name)})
	switch {
	case err == nil:
		entry.WithField("image", result.Enrollee.ImagePath).Info("enrollee stored")
	case IsClientError(err):
		entry.WithError(err).Info("enrollment rejected")
	default:
		entry.WithError(err).Error("enrollment failed")
	}
	return result, err
}

func (s *Service) enroll(ctx context.Context, req EnrollRequest, result *EnrollResult) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return ErrMissingName
	}
	if len(req.Photo) == 0 {
		return ErrNoPhoto
	}
	filename, err := storage.CleanName(req.Filename)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidFilename, req.Filename)
	}
	submitted := s.now()

	tempName := storage.TempName(s.newID(), filename)
	if err := s.storage.Put(ctx, tempName, req.Photo); err != nil {
		return fmt.Errorf("saving upload: %w", err)
	}
	promoted := false
	defer func() {
		if promoted {
			return
		}
		// The request context may already be canceled here.
		if err := s.storage.Remove(context.WithoutCancel(ctx), tempName); err != nil {
			s.log.WithError(err).WithField("image", tempName).Warn("failed to remove temporary upload")
		}
	}()

	faces, err := s.extract(ctx, req.Photo)
	if err != nil {
		return err
	}
	probe, ok := extractor.First(faces)
	if !ok {
		result.State = StateFailedNoFace
		return ErrNoFace
	}
	result.State = StateExtracted

	report, err := s.LoadGallery(ctx, len(probe))
	if err != nil {
		return err
	}
	result.Report = report

	match, found, err := s.index.Find(probe, report.Candidates, s.tolerance)
	if err != nil {
		return fmt.Errorf("matching: %w", err)
	}
	result.State = StateChecked

	if found {
		dup := &DuplicateError{Label: match.Label, Ref: match.Ref, Distance: match.Distance}
		result.State = StateRejectedDuplicate
		result.Duplicate = dup
		return dup
	}

	finalName, err := s.promote(ctx, tempName, filename, submitted)
	if err != nil {
		return err
	}
	promoted = true

	enrollee := &database.Enrollee{
		Name:      name,
		Email:     strings.TrimSpace(req.Email),
		ImagePath: finalName,
	}
	if err := s.store.CreateEnrollee(ctx, enrollee); err != nil {
		if rmErr := s.storage.Remove(context.WithoutCancel(ctx), finalName); rmErr != nil {
			s.log.WithError(rmErr).WithField("image", finalName).Error("failed to remove image after insert failure")
		}
		return fmt.Errorf("saving enrollee: %w", err)
	}

	if info, err := s.storage.Stat(ctx, finalName); err == nil {
		s.remember(ctx, finalName, info.Fingerprint(), probe)
	} else {
		s.log.WithError(err).WithField("image", finalName).Warn("could not cache vector for new enrollee")
	}

	result.State = StateStored
	result.Enrollee = enrollee
	return nil
}

// promote moves the temporary upload to its permanent name. A taken name
// advances the timestamp by one second until a free one is found.
func (s *Service) promote(ctx context.Context, tempName, filename string, t time.Time) (string, error) {
	for attempt := range constants.MaxNameAttempts {
		name := storage.PermanentName(filename, t.Add(time.Duration(attempt)*time.Second))
		err := s.storage.Promote(ctx, tempName, name)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, storage.ErrExists) {
			return "", fmt.Errorf("storing image: %w", err)
		}
	}
	return "", fmt.Errorf("storing image: no free name for %s after %d attempts", filename, constants.MaxNameAttempts)
}

// sanitizeForLog removes newlines and carriage returns from user input to prevent log injection.
func sanitizeForLog(s string) string {
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "\r", "")
	return s
}
