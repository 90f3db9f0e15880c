package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kozaktomas/face-registry/internal/database"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return s
}

func TestStore_CreateAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	names := []string{"Charlie", "Alice", "Bob"}
	for i, name := range names {
		e := &database.Enrollee{Name: name, ImagePath: name + ".jpg"}
		if i == 0 {
			e.Email = "charlie@example.com"
		}
		if err := s.CreateEnrollee(ctx, e); err != nil {
			t.Fatalf("CreateEnrollee failed: %v", err)
		}
		if e.ID == 0 {
			t.Error("expected ID to be set")
		}
		if e.CreatedAt.IsZero() {
			t.Error("expected CreatedAt to be set")
		}
	}

	list, err := s.ListEnrollees(ctx)
	if err != nil {
		t.Fatalf("ListEnrollees failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 enrollees, got %d", len(list))
	}
	for i, name := range names {
		if list[i].Name != name {
			t.Errorf("position %d: expected %s (insertion order), got %s", i, name, list[i].Name)
		}
	}
	if list[0].Email != "charlie@example.com" {
		t.Errorf("unexpected email %q", list[0].Email)
	}

	n, err := s.CountEnrollees(ctx)
	if err != nil {
		t.Fatalf("CountEnrollees failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected count 3, got %d", n)
	}
}

func TestStore_EmptyList(t *testing.T) {
	s := openTestStore(t)
	list, err := s.ListEnrollees(context.Background())
	if err != nil {
		t.Fatalf("ListEnrollees failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty list, got %d", len(list))
	}
}

func TestStore_VectorCache(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.GetVector(ctx, "a.jpg", "fp1"); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	if err := s.PutVector(ctx, "a.jpg", "fp1", []float32{0.25, 0.5}); err != nil {
		t.Fatalf("PutVector failed: %v", err)
	}
	vec, ok, err := s.GetVector(ctx, "a.jpg", "fp1")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if len(vec) != 2 || vec[0] != 0.25 || vec[1] != 0.5 {
		t.Errorf("unexpected vector %v", vec)
	}

	if _, ok, _ := s.GetVector(ctx, "a.jpg", "fp2"); ok {
		t.Error("expected miss for a stale fingerprint")
	}

	if err := s.PutVector(ctx, "a.jpg", "fp2", []float32{1}); err != nil {
		t.Fatalf("PutVector (replace) failed: %v", err)
	}
	vec, ok, _ = s.GetVector(ctx, "a.jpg", "fp2")
	if !ok || len(vec) != 1 {
		t.Errorf("expected replaced vector, got %v", vec)
	}
}

func TestStore_MigrateIdempotent(t *testing.T) {
	s := openTestStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Errorf("second Migrate failed: %v", err)
	}
}
