// Package sqlite is a single-file development backend built on gorm.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/kozaktomas/face-registry/internal/database"
)

// DefaultPath is used when no database URL is configured.
const DefaultPath = "face-registry.db"

func init() {
	database.RegisterDriver("sqlite", func(ctx context.Context, cfg *config.DatabaseConfig) (database.Store, error) {
		return Open(cfg.URL)
	})
}

type enrollee struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"not null"`
	Email     string
	ImagePath string `gorm:"not null"`
	CreatedAt time.Time
}

func (enrollee) TableName() string { return "enrollees" }

type enrolleeVector struct {
	ImagePath   string    `gorm:"primaryKey"`
	Fingerprint string    `gorm:"not null"`
	Embedding   []float32 `gorm:"serializer:json;not null"`
	Dim         int
	CreatedAt   time.Time
}

func (enrolleeVector) TableName() string { return "enrollee_vectors" }

// Store implements database.Store and database.VectorCache on SQLite.
type Store struct {
	db *gorm.DB
}

var (
	_ database.Store       = (*Store)(nil)
	_ database.VectorCache = (*Store)(nil)
)

// Open opens (or creates) the database file at path.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	// SQLite allows a single writer.
	sqlDB.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

// Migrate creates or updates the tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&enrollee{}, &enrolleeVector{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("closing database connection: %w", err)
	}
	return nil
}

func (s *Store) ListEnrollees(ctx context.Context) ([]database.Enrollee, error) {
	var rows []enrollee
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query enrollees: %w", err)
	}
	result := make([]database.Enrollee, 0, len(rows))
	for _, r := range rows {
		result = append(result, database.Enrollee{
			ID:        r.ID,
			Name:      r.Name,
			Email:     r.Email,
			ImagePath: r.ImagePath,
			CreatedAt: r.CreatedAt,
		})
	}
	return result, nil
}

func (s *Store) CountEnrollees(ctx context.Context) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&enrollee{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count enrollees: %w", err)
	}
	return int(count), nil
}

func (s *Store) CreateEnrollee(ctx context.Context, e *database.Enrollee) error {
	row := enrollee{Name: e.Name, Email: e.Email, ImagePath: e.ImagePath}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert enrollee: %w", err)
	}
	e.ID = row.ID
	e.CreatedAt = row.CreatedAt
	return nil
}

func (s *Store) GetVector(ctx context.Context, imagePath, fingerprint string) ([]float32, bool, error) {
	var row enrolleeVector
	err := s.db.WithContext(ctx).
		Where("image_path = ? AND fingerprint = ?", imagePath, fingerprint).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query vector: %w", err)
	}
	return row.Embedding, true, nil
}

func (s *Store) PutVector(ctx context.Context, imagePath, fingerprint string, vector []float32) error {
	row := enrolleeVector{
		ImagePath:   imagePath,
		Fingerprint: fingerprint,
		Embedding:   vector,
		Dim:         len(vector),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("save vector: %w", err)
	}
	return nil
}
