package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/kozaktomas/face-registry/internal/config"
)

// OpenFunc opens a backend from configuration.
type OpenFunc func(ctx context.Context, cfg *config.DatabaseConfig) (Store, error)

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]OpenFunc)
)

// RegisterDriver registers a backend constructor under a driver name.
// This is called by the backend packages to avoid import cycles.
func RegisterDriver(name string, open OpenFunc) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if open == nil {
		panic("database: RegisterDriver open func is nil")
	}
	if _, dup := drivers[name]; dup {
		panic("database: RegisterDriver called twice for driver " + name)
	}
	drivers[name] = open
}

// Drivers returns the sorted names of the registered drivers.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Retry policy used while waiting for the database to come up.
var (
	ConnectAttempts uint64 = 5
	ConnectBackoff         = 500 * time.Millisecond
)

// Open opens the configured backend, retrying with exponential backoff while
// the server is unreachable.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (Store, error) {
	driversMu.RLock()
	open, ok := drivers[cfg.Driver]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("database driver %q not registered (have %v)", cfg.Driver, Drivers())
	}

	var store Store
	err := WaitForDB(ctx, func(ctx context.Context) error {
		s, err := open(ctx, cfg)
		if err != nil {
			return err
		}
		store = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// WaitForDB runs fn until it succeeds or the retry budget is spent.
func WaitForDB(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(ConnectAttempts, retry.NewExponential(ConnectBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
