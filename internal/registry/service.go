// Package registry implements enrollment and recognition on top of the
// extractor, the enrollee store, image storage and the matcher.
//
// Every request rebuilds its gallery from the store. Vectors are cached in
// memory and, when the store supports it, persistently, keyed by image
// reference and storage fingerprint so cache hits never change results.
package registry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/kozaktomas/face-registry/internal/constants"
	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/kozaktomas/face-registry/internal/extractor"
	"github.com/kozaktomas/face-registry/internal/logging"
	"github.com/kozaktomas/face-registry/internal/matcher"
	"github.com/kozaktomas/face-registry/internal/metrics"
	"github.com/kozaktomas/face-registry/internal/storage"
)

// Service runs the enrollment and recognition workflows.
type Service struct {
	store      database.EnrolleeWriter
	persistent database.VectorCache // nil when the store has no vector cache
	storage    storage.Storage
	extractor  extractor.Extractor
	index      matcher.Index
	tolerance  float64
	workers    int
	cache      *vectorCache

	log     logrus.FieldLogger
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default discards output.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) { s.log = log }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock replaces time.Now, used for permanent filenames.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the temporary artifact id generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithIndex overrides the matcher index chosen by configuration.
func WithIndex(index matcher.Index) Option {
	return func(s *Service) { s.index = index }
}

// New creates a Service. If store also implements database.VectorCache it is
// used as the persistent vector cache.
func New(cfg config.MatchingConfig, store database.EnrolleeWriter, st storage.Storage, ex extractor.Extractor, opts ...Option) (*Service, error) {
	if store == nil || st == nil || ex == nil {
		return nil, errors.New("registry: store, storage and extractor are required")
	}
	if math.IsNaN(cfg.Tolerance) || cfg.Tolerance < 0 {
		return nil, fmt.Errorf("%w: %v", matcher.ErrInvalidTolerance, cfg.Tolerance)
	}
	index, err := matcher.New(cfg.Index)
	if err != nil {
		return nil, err
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = constants.DefaultWorkers
	}

	s := &Service{
		store:     store,
		storage:   st,
		extractor: ex,
		index:     index,
		tolerance: cfg.Tolerance,
		workers:   workers,
		cache:     newVectorCache(),
		log:       logging.Discard(),
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
	if vc, ok := store.(database.VectorCache); ok {
		s.persistent = vc
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Tolerance returns the configured match tolerance.
func (s *Service) Tolerance() float64 {
	return s.tolerance
}

// ListEnrollees returns the enrollees whose name or email matches query.
func (s *Service) ListEnrollees(ctx context.Context, query string) ([]database.Enrollee, error) {
	list, err := s.store.ListEnrollees(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing enrollees: %w", err)
	}
	return FilterEnrollees(list, query), nil
}

// extract runs the extractor and records its latency.
func (s *Service) extract(ctx context.Context, image []byte) ([]extractor.Face, error) {
	start := time.Now()
	faces, err := s.extractor.Extract(ctx, image)
	s.metrics.ObserveExtraction(time.Since(start))
	if err != nil {
		if errors.Is(err, extractor.ErrUndecodable) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
		return nil, fmt.Errorf("extracting features: %w", err)
	}
	return faces, nil
}

// remember stores a vector in both cache tiers. Persistent cache failures are
// logged, never returned.
func (s *Service) remember(ctx context.Context, ref, fingerprint string, vector []float32) {
	s.cache.put(ref, fingerprint, vector)
	if s.persistent == nil {
		return
	}
	if err := s.persistent.PutVector(ctx, ref, fingerprint, vector); err != nil {
		s.log.WithError(err).WithField("image", ref).Warn("failed to persist vector")
	}
}
