// Package storage keeps uploaded images in one flat namespace, either a local
// directory or an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/kozaktomas/face-registry/internal/config"
)

var (
	// ErrNotFound is returned when the named object does not exist.
	ErrNotFound = errors.New("object not found")
	// ErrExists is returned by Promote when the destination name is taken.
	ErrExists = errors.New("object already exists")
)

// Info describes a stored object.
type Info struct {
	Name    string
	Size    int64
	ModTime time.Time
	ETag    string
}

// Fingerprint identifies the current content of an object. It changes
// whenever the object is overwritten.
func (i Info) Fingerprint() string {
	if i.ETag != "" {
		return i.ETag
	}
	return strconv.FormatInt(i.Size, 10) + ":" + strconv.FormatInt(i.ModTime.UnixNano(), 10)
}

// Storage is the flat image namespace shared by enrollment and recognition.
type Storage interface {
	// Put writes data under name, replacing any existing object.
	Put(ctx context.Context, name string, data []byte) error
	// Promote moves src to dst without overwriting. Returns ErrExists when
	// dst is already present; src is left untouched in that case.
	Promote(ctx context.Context, src, dst string) error
	// Read returns the full object content.
	Read(ctx context.Context, name string) ([]byte, error)
	// Open streams an object.
	Open(ctx context.Context, name string) (io.ReadCloser, Info, error)
	Stat(ctx context.Context, name string) (Info, error)
	Exists(ctx context.Context, name string) (bool, error)
	// Remove deletes an object. Removing a missing object is not an error.
	Remove(ctx context.Context, name string) error
}

// New creates the storage backend selected by configuration.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocal(cfg.Dir)
	case "s3":
		client, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("creating S3 client: %w", err)
		}
		s := NewS3(client, cfg.Bucket, "")
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
