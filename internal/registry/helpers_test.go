package registry

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/kozaktomas/face-registry/internal/database/mock"
	"github.com/kozaktomas/face-registry/internal/extractor"
	"github.com/kozaktomas/face-registry/internal/storage"
)

// fakeExtractor answers by image content.
type fakeExtractor struct {
	mu     sync.RWMutex
	faces  map[string][]extractor.Face
	errors map[string]error
	calls  atomic.Int64
}

func newFakeExtractor() *fakeExtractor {
	return &fakeExtractor{
		faces:  make(map[string][]extractor.Face),
		errors: make(map[string]error),
	}
}

// face registers a single-face photo.
func (f *fakeExtractor) face(photo string, vector ...float32) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faces[photo] = []extractor.Face{{Index: 0, Vector: vector}}
	return []byte(photo)
}

func (f *fakeExtractor) multi(photo string, faces ...extractor.Face) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faces[photo] = faces
	return []byte(photo)
}

func (f *fakeExtractor) fail(photo string, err error) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors[photo] = err
	return []byte(photo)
}

func (f *fakeExtractor) Extract(ctx context.Context, image []byte) ([]extractor.Face, error) {
	f.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if err, ok := f.errors[string(image)]; ok {
		return nil, err
	}
	return f.faces[string(image)], nil
}

type fixture struct {
	svc       *Service
	store     *mock.MockStore
	storage   *storage.Local
	extractor *fakeExtractor
	clock     *fakeClock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	return newFixtureWithStore(t, mock.NewMockStore(), nil, opts...)
}

// newFixtureWithStore builds a service over store. writer overrides the store
// handed to the service when set.
func newFixtureWithStore(t *testing.T, store *mock.MockStore, writer database.EnrolleeWriter, opts ...Option) *fixture {
	t.Helper()
	st, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	ex := newFakeExtractor()
	clock := &fakeClock{now: time.Unix(1700000000, 0)}

	var ids atomic.Int64
	base := []Option{
		WithClock(clock.Now),
		WithIDGenerator(func() string { return fmt.Sprintf("id%d", ids.Add(1)) }),
	}

	if writer == nil {
		writer = store
	}
	cfg := config.MatchingConfig{Tolerance: 0.5, Index: "linear", Workers: 3}
	svc, err := New(cfg, writer, st, ex, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return &fixture{svc: svc, store: store, storage: st, extractor: ex, clock: clock}
}

// seed stores an image and an enrollee record pointing at it.
func (f *fixture) seed(t *testing.T, name, imagePath string, photo []byte) database.Enrollee {
	t.Helper()
	if err := f.storage.Put(context.Background(), imagePath, photo); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	return f.store.AddEnrollee(name, "", imagePath)
}

func (f *fixture) files(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.storage.Dir())
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func configWithIndex(index string) config.MatchingConfig {
	return config.MatchingConfig{Tolerance: 0.5, Index: index, Workers: 2}
}
