package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/kozaktomas/face-registry/internal/extractor"
	"github.com/kozaktomas/face-registry/internal/matcher"
	"github.com/kozaktomas/face-registry/internal/storage"
)

// Skip reasons recorded in ItemResult.Category and in metrics.
const (
	SkipUnreadable = "unreadable"
	SkipInvalid    = "invalid_image"
	SkipExtractor  = "extractor"
	SkipNoFace     = "no_face"
	SkipDimension  = "dimension"
)

// Vector sources recorded in ItemResult.Source.
const (
	SourceMemory     = "memory"
	SourcePersistent = "persistent"
	SourceExtracted  = "extracted"
)

// ItemResult is the outcome of loading one enrollee into a gallery.
type ItemResult struct {
	Enrollee database.Enrollee
	Vector   []float32
	Source   string // where the vector came from, empty when skipped
	Skipped  bool
	Category string // skip category, empty when loaded
	Reason   error
}

// LoadReport is the per-enrollee record of a gallery build.
type LoadReport struct {
	Items      []ItemResult // one per enrollee, in store order
	Candidates []matcher.Candidate
}

// Loaded returns the number of enrollees that made it into the gallery.
func (r *LoadReport) Loaded() int {
	return len(r.Candidates)
}

// Skipped returns the number of enrollees left out.
func (r *LoadReport) Skipped() int {
	n := 0
	for _, item := range r.Items {
		if item.Skipped {
			n++
		}
	}
	return n
}

// Err combines every skip reason, or returns nil when nothing was skipped.
func (r *LoadReport) Err() error {
	var err error
	for _, item := range r.Items {
		if item.Skipped {
			err = multierr.Append(err, fmt.Errorf("enrollee %d (%s): %w", item.Enrollee.ID, item.Enrollee.ImagePath, item.Reason))
		}
	}
	return err
}

// SkipReasons lists every skip reason as text, in store order.
func (r *LoadReport) SkipReasons() []string {
	errs := multierr.Errors(r.Err())
	if len(errs) == 0 {
		return nil
	}
	reasons := make([]string, 0, len(errs))
	for _, err := range errs {
		reasons = append(reasons, err.Error())
	}
	return reasons
}

// skip is a per-item failure with its category.
type skip struct {
	category string
	err      error
}

func (s *skip) Error() string { return s.err.Error() }
func (s *skip) Unwrap() error { return s.err }

// LoadGallery builds the gallery from every stored enrollee. Enrollees whose
// vector cannot be resolved, or whose dimension differs from dim (when dim is
// positive), are skipped and recorded in the report. Only a failure to list
// the store, or cancellation of ctx, is returned as an error.
func (s *Service) LoadGallery(ctx context.Context, dim int) (*LoadReport, error) {
	return s.loadGallery(ctx, dim, nil)
}

// WarmCache resolves the vector of every enrollee so later requests hit the
// cache. onItem, when set, is called once per enrollee and may be called
// concurrently.
func (s *Service) WarmCache(ctx context.Context, onItem func(ItemResult)) (*LoadReport, error) {
	return s.loadGallery(ctx, 0, onItem)
}

func (s *Service) loadGallery(ctx context.Context, dim int, onItem func(ItemResult)) (*LoadReport, error) {
	enrollees, err := s.store.ListEnrollees(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing enrollees: %w", err)
	}
	return s.buildGallery(ctx, enrollees, dim, onItem)
}

func (s *Service) buildGallery(ctx context.Context, enrollees []database.Enrollee, dim int, onItem func(ItemResult)) (*LoadReport, error) {
	items := make([]ItemResult, len(enrollees))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range enrollees {
		g.Go(func() error {
			e := enrollees[i]
			vector, source, err := s.resolveVector(gctx, e)
			if err == nil && dim > 0 && len(vector) != dim {
				err = &skip{SkipDimension, fmt.Errorf("%w: has %d, probe has %d", matcher.ErrDimensionMismatch, len(vector), dim)}
			}
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				items[i] = ItemResult{Enrollee: e, Skipped: true, Category: skipCategory(err), Reason: err}
			} else {
				items[i] = ItemResult{Enrollee: e, Vector: vector, Source: source}
			}
			if onItem != nil {
				onItem(items[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &LoadReport{Items: items, Candidates: make([]matcher.Candidate, 0, len(items))}
	for _, item := range items {
		if item.Skipped {
			s.metrics.GallerySkip(item.Category)
			continue
		}
		report.Candidates = append(report.Candidates, matcher.Candidate{
			Label:  item.Enrollee.Name,
			Ref:    item.Enrollee.ImagePath,
			Vector: item.Vector,
		})
	}
	s.metrics.GallerySize(len(report.Candidates))
	if skipErr := report.Err(); skipErr != nil {
		s.log.WithFields(logrus.Fields{
			"loaded":  report.Loaded(),
			"skipped": report.Skipped(),
		}).WithError(skipErr).Warn("gallery loaded with skipped enrollees")
	}
	return report, nil
}

// resolveVector returns the vector for an enrollee's image: in-memory cache,
// then the persistent cache, then extraction from storage.
func (s *Service) resolveVector(ctx context.Context, e database.Enrollee) ([]float32, string, error) {
	info, err := s.storage.Stat(ctx, e.ImagePath)
	if err != nil {
		return nil, "", &skip{SkipUnreadable, err}
	}
	fingerprint := info.Fingerprint()

	if v, ok := s.cache.get(e.ImagePath, fingerprint); ok {
		s.metrics.CacheLookup(SourceMemory)
		return v, SourceMemory, nil
	}

	if s.persistent != nil {
		v, ok, err := s.persistent.GetVector(ctx, e.ImagePath, fingerprint)
		switch {
		case err != nil:
			s.log.WithError(err).WithField("image", e.ImagePath).Warn("vector cache lookup failed")
		case ok:
			s.metrics.CacheLookup(SourcePersistent)
			s.cache.put(e.ImagePath, fingerprint, v)
			return v, SourcePersistent, nil
		}
	}
	s.metrics.CacheLookup("miss")

	data, err := s.storage.Read(ctx, e.ImagePath)
	if err != nil {
		return nil, "", &skip{SkipUnreadable, err}
	}
	faces, err := s.extract(ctx, data)
	if err != nil {
		if errors.Is(err, ErrInvalidImage) {
			return nil, "", &skip{SkipInvalid, err}
		}
		return nil, "", &skip{SkipExtractor, err}
	}
	vector, ok := extractor.First(faces)
	if !ok {
		return nil, "", &skip{SkipNoFace, ErrNoFace}
	}

	s.remember(ctx, e.ImagePath, fingerprint, vector)
	return vector, SourceExtracted, nil
}

func skipCategory(err error) string {
	var sk *skip
	if errors.As(err, &sk) {
		return sk.category
	}
	if errors.Is(err, storage.ErrNotFound) {
		return SkipUnreadable
	}
	return SkipExtractor
}
