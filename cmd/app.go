package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/kozaktomas/face-registry/internal/extractor"
	"github.com/kozaktomas/face-registry/internal/logging"
	"github.com/kozaktomas/face-registry/internal/metrics"
	"github.com/kozaktomas/face-registry/internal/registry"
	"github.com/kozaktomas/face-registry/internal/storage"

	// Database backends register themselves with the database package.
	_ "github.com/kozaktomas/face-registry/internal/database/mariadb"
	_ "github.com/kozaktomas/face-registry/internal/database/postgres"
	_ "github.com/kozaktomas/face-registry/internal/database/sqlite"
)

// app bundles everything a command needs to talk to the registry.
type app struct {
	cfg       *config.Config
	log       *logrus.Logger
	store     database.Store
	storage   storage.Storage
	extractor extractor.Extractor
	metrics   *metrics.Metrics
	service   *registry.Service
}

// loadConfig reads configuration and builds the logger.
func loadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, logging.New(cfg.Log), nil
}

// openStore connects to the configured database and applies migrations.
func openStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (database.Store, error) {
	if cfg.Database.Driver != "sqlite" && cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}
	log.WithField("driver", cfg.Database.Driver).Info("Connecting to database")
	store, err := database.Open(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// newApp wires store, storage, extractor and the registry service.
func newApp(ctx context.Context) (*app, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	st, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	ex, err := extractor.New(cfg.Extractor)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	m := metrics.New()
	svc, err := registry.New(cfg.Matching, store, st, ex,
		registry.WithLogger(log),
		registry.WithMetrics(m),
	)
	if err != nil {
		store.Close()
		if c, ok := ex.(extractor.Closer); ok {
			c.Close()
		}
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}

	return &app{
		cfg:       cfg,
		log:       log,
		store:     store,
		storage:   st,
		extractor: ex,
		metrics:   m,
		service:   svc,
	}, nil
}

func (a *app) Close() {
	if c, ok := a.extractor.(extractor.Closer); ok {
		if err := c.Close(); err != nil {
			a.log.WithError(err).Warn("closing extractor")
		}
	}
	if err := a.store.Close(); err != nil {
		a.log.WithError(err).Warn("closing database")
	}
}
