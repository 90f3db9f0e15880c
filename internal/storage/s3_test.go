//go:build integration

package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupMinio(t *testing.T) *S3 {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     "minioadmin",
			"MINIO_ROOT_PASSWORD": "minioadmin",
		},
		Cmd:        []string{"server", "/data"},
		WaitingFor: wait.ForHTTP("/minio/health/ready").WithPort("9000/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
	}
	t.Cleanup(func() { container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "9000")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	client, err := minio.New(fmt.Sprintf("%s:%s", host, port.Port()), &minio.Options{
		Creds: credentials.NewStaticV4("minioadmin", "minioadmin", ""),
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	s := NewS3(client, "faces", "uploads")
	if err := s.EnsureBucket(ctx); err != nil {
		t.Fatalf("EnsureBucket failed: %v", err)
	}
	return s
}

func TestS3Storage(t *testing.T) {
	s := setupMinio(t)
	ctx := context.Background()

	t.Run("PutOverwrite", func(t *testing.T) {
		s.Put(ctx, "probe.jpg", []byte("first"))
		if err := s.Put(ctx, "probe.jpg", []byte("second")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		data, err := s.Read(ctx, "probe.jpg")
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if string(data) != "second" {
			t.Errorf("expected 'second', got %q", data)
		}
	})

	t.Run("Promote", func(t *testing.T) {
		s.Put(ctx, "temp_1_a.jpg", []byte("img"))
		if err := s.Promote(ctx, "temp_1_a.jpg", "a_1.jpg"); err != nil {
			t.Fatalf("Promote failed: %v", err)
		}
		if ok, _ := s.Exists(ctx, "temp_1_a.jpg"); ok {
			t.Error("temp object should be removed")
		}

		s.Put(ctx, "temp_2_a.jpg", []byte("other"))
		if err := s.Promote(ctx, "temp_2_a.jpg", "a_1.jpg"); !errors.Is(err, ErrExists) {
			t.Errorf("expected ErrExists, got %v", err)
		}
	})

	t.Run("Missing", func(t *testing.T) {
		if _, err := s.Read(ctx, "nope.jpg"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if err := s.Remove(ctx, "nope.jpg"); err != nil {
			t.Errorf("Remove of missing object should succeed: %v", err)
		}
	})

	t.Run("FingerprintUsesETag", func(t *testing.T) {
		s.Put(ctx, "e.jpg", []byte("one"))
		a, _ := s.Stat(ctx, "e.jpg")
		s.Put(ctx, "e.jpg", []byte("two"))
		b, _ := s.Stat(ctx, "e.jpg")
		if a.Fingerprint() == b.Fingerprint() {
			t.Error("fingerprint should change after overwrite")
		}
	})
}
