package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"
)

// GetVector returns the cached vector for an image if it was computed from
// the same stored content.
func (r *EnrolleeRepository) GetVector(ctx context.Context, imagePath, fingerprint string) ([]float32, bool, error) {
	var vec pgvector.Vector
	err := r.QueryRow(ctx, `
		SELECT embedding
		FROM enrollee_vectors
		WHERE image_path = $1 AND fingerprint = $2
	`, imagePath, fingerprint).Scan(&vec)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query vector: %w", err)
	}
	return vec.Slice(), true, nil
}

// PutVector stores or replaces the vector for an image.
func (r *EnrolleeRepository) PutVector(ctx context.Context, imagePath, fingerprint string, vector []float32) error {
	_, err := r.Exec(ctx, `
		INSERT INTO enrollee_vectors (image_path, fingerprint, embedding, dim)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (image_path) DO UPDATE SET
			fingerprint = EXCLUDED.fingerprint,
			embedding = EXCLUDED.embedding,
			dim = EXCLUDED.dim,
			created_at = NOW()
	`, imagePath, fingerprint, pgvector.NewVector(vector), len(vector))
	if err != nil {
		return fmt.Errorf("save vector: %w", err)
	}
	return nil
}
