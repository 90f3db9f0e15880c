package mariadb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kozaktomas/face-registry/internal/database"
)

// EnrolleeRepository provides MariaDB-backed enrollee storage
type EnrolleeRepository struct {
	*Pool
}

var _ database.Store = (*EnrolleeRepository)(nil)

// NewEnrolleeRepository creates a new MariaDB enrollee repository
func NewEnrolleeRepository(pool *Pool) *EnrolleeRepository {
	return &EnrolleeRepository{Pool: pool}
}

// ListEnrollees returns all enrollees ordered by ID
func (r *EnrolleeRepository) ListEnrollees(ctx context.Context) ([]database.Enrollee, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, image_path, created_at
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
		var email sql.NullString
		if err := rows.Scan(&e.ID, &e.Name, &email, &e.ImagePath, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan enrollee: %w", err)
		}
		e.Email = email.String
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
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM enrollees").Scan(&count); err != nil {
		return 0, fmt.Errorf("count enrollees: %w", err)
	}
	return count, nil
}

// CreateEnrollee inserts a new enrollee
func (r *EnrolleeRepository) CreateEnrollee(ctx context.Context, e *database.Enrollee) error {
	createdAt := time.Now().UTC().Truncate(time.Microsecond)
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO enrollees (name, email, image_path, created_at) VALUES (?, ?, ?, ?)",
		e.Name, nullString(e.Email), e.ImagePath, createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert enrollee: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read enrollee id: %w", err)
	}
	e.ID = id
	e.CreatedAt = createdAt
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
