package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kozaktomas/face-registry/internal/database"
)

// EnrolleeRepository provides PostgreSQL-backed enrollee storage and
// implements database.VectorCache.
type EnrolleeRepository struct {
	*Pool
}

var (
	_ database.Store       = (*EnrolleeRepository)(nil)
	_ database.VectorCache = (*EnrolleeRepository)(nil)
)

// NewEnrolleeRepository creates a new PostgreSQL enrollee repository
func NewEnrolleeRepository(pool *Pool) *EnrolleeRepository {
	return &EnrolleeRepository{Pool: pool}
}

// ListEnrollees returns all enrollees ordered by ID
func (r *EnrolleeRepository) ListEnrollees(ctx context.Context) ([]database.Enrollee, error) {
	rows, err := r.Query(ctx, `
		SELECT id, name, COALESCE(email, ''), image_path, created_at
		FROM enrollees
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query enrollees: %w", err)
	}
	defer rows.Close()

	var result []database.Enrollee
	for rows.Next() {
		var e database.Enrollee
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &e.ImagePath, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan enrollee: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollees: %w", err)
	}
	return result, nil
}

// CountEnrollees returns the number of enrollees
func (r *EnrolleeRepository) CountEnrollees(ctx context.Context) (int, error) {
	var count int
	if err := r.QueryRow(ctx, "SELECT COUNT(*) FROM enrollees").Scan(&count); err != nil {
		return 0, fmt.Errorf("count enrollees: %w", err)
	}
	return count, nil
}

// CreateEnrollee inserts a new enrollee
func (r *EnrolleeRepository) CreateEnrollee(ctx context.Context, e *database.Enrollee) error {
	email := sql.NullString{String: e.Email, Valid: e.Email != ""}
	err := r.QueryRow(ctx, `
		INSERT INTO enrollees (name, email, image_path)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, e.Name, email, e.ImagePath).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert enrollee: %w", err)
	}
	return nil
}
