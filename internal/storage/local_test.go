package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestLocal(t *testing.T) *Local {
	t.Helper()
	l, err := NewLocal(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	return l
}

func TestNewLocal_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "uploads")
	if _, err := NewLocal(dir); err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	st, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("expected directory to exist: %v", err)
	}
	if !st.IsDir() {
		t.Error("expected a directory")
	}
}

func TestNewLocal_EmptyDir(t *testing.T) {
	if _, err := NewLocal(""); err == nil {
		t.Error("expected error for empty directory")
	}
}

func TestLocal_PutReadOverwrite(t *testing.T) {
	l := newTestLocal(t)
	ctx := context.Background()

	if err := l.Put(ctx, "probe.jpg", []byte("first")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := l.Put(ctx, "probe.jpg", []byte("second")); err != nil {
		t.Fatalf("Put (overwrite) failed: %v", err)
	}

	data, err := l.Read(ctx, "probe.jpg")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("expected latest write to win, got %q", data)
	}

	entries, _ := os.ReadDir(l.Dir())
	if len(entries) != 1 {
		t.Errorf("expected exactly one file, got %d", len(entries))
	}
}

func TestLocal_ReadMissing(t *testing.T) {
	l := newTestLocal(t)
	_, err := l.Read(context.Background(), "missing.jpg")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLocal_Promote(t *testing.T) {
	l := newTestLocal(t)
	ctx := context.Background()

	if err := l.Put(ctx, "temp_x_a.jpg", []byte("image")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := l.Promote(ctx, "temp_x_a.jpg", "a_100.jpg"); err != nil {
		t.Fatalf("Promote failed: %v", err)
	}

	if ok, _ := l.Exists(ctx, "temp_x_a.jpg"); ok {
		t.Error("temp artifact should be gone after promotion")
	}
	data, err := l.Read(ctx, "a_100.jpg")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(data) != "image" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestLocal_PromoteDoesNotOverwrite(t *testing.T) {
	l := newTestLocal(t)
	ctx := context.Background()

	l.Put(ctx, "a_100.jpg", []byte("existing"))
	l.Put(ctx, "temp_x_a.jpg", []byte("new"))

	err := l.Promote(ctx, "temp_x_a.jpg", "a_100.jpg")
	if !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}

	data, _ := l.Read(ctx, "a_100.jpg")
	if string(data) != "existing" {
		t.Errorf("existing file was overwritten: %q", data)
	}
	if ok, _ := l.Exists(ctx, "temp_x_a.jpg"); !ok {
		t.Error("source should be kept when promotion fails")
	}
}

func TestLocal_PromoteMissingSource(t *testing.T) {
	l := newTestLocal(t)
	err := l.Promote(context.Background(), "temp_missing.jpg", "a.jpg")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLocal_RemoveIdempotent(t *testing.T) {
	l := newTestLocal(t)
	ctx := context.Background()

	l.Put(ctx, "a.jpg", []byte("x"))
	if err := l.Remove(ctx, "a.jpg"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := l.Remove(ctx, "a.jpg"); err != nil {
		t.Errorf("second Remove should not fail: %v", err)
	}
}

func TestLocal_OpenAndStat(t *testing.T) {
	l := newTestLocal(t)
	ctx := context.Background()
	l.Put(ctx, "a.png", []byte("12345"))

	rc, info, err := l.Open(ctx, "a.png")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "12345" {
		t.Errorf("unexpected body %q", body)
	}
	if info.Size != 5 {
		t.Errorf("expected size 5, got %d", info.Size)
	}

	st, err := l.Stat(ctx, "a.png")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if st.Fingerprint() != info.Fingerprint() {
		t.Error("Stat and Open should agree on the fingerprint")
	}
}

func TestLocal_FingerprintChangesOnOverwrite(t *testing.T) {
	l := newTestLocal(t)
	ctx := context.Background()

	l.Put(ctx, "a.jpg", []byte("one"))
	before, _ := l.Stat(ctx, "a.jpg")

	l.Put(ctx, "a.jpg", []byte("three"))
	p := filepath.Join(l.Dir(), "a.jpg")
	later := before.ModTime.Add(2 * time.Second)
	os.Chtimes(p, later, later)
	after, _ := l.Stat(ctx, "a.jpg")

	if before.Fingerprint() == after.Fingerprint() {
		t.Error("fingerprint should change after overwrite")
	}
}

func TestLocal_RejectsNestedNames(t *testing.T) {
	l := newTestLocal(t)
	ctx := context.Background()

	for _, name := range []string{"../escape.jpg", "a/b.jpg", `a\b.jpg`, "", ".."} {
		if err := l.Put(ctx, name, []byte("x")); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Put(%q) expected ErrInvalidName, got %v", name, err)
		}
	}
}
