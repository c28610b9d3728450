// Package cache implements the two-tier content cache: a ristretto
// in-memory LRU tier backed by a BadgerDB on-disk tier, with singleflight
// coalescing so that concurrent misses on the same key trigger at most one
// upstream load.
package cache

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/novelforge/novelcore/internal/domain"
)

// Store is the process-wide cache used by every Source Adapter. A single
// Store instance is shared across sources; keys are namespaced by Kind and
// SourceID so that collisions across sources are structurally impossible.
type Store struct {
	mem  *memTier
	disk *diskTier
	sf   singleflight.Group
}

// New constructs a Store from opts. Close must be called on shutdown to
// flush the disk tier.
func New(opts Options) (*Store, error) {
	mem, err := newMemTier(opts)
	if err != nil {
		return nil, err
	}
	disk, err := newDiskTier(opts)
	if err != nil {
		mem.Close()
		return nil, err
	}
	return &Store{mem: mem, disk: disk}, nil
}

// Get satisfies domain.Cache: memory tier first, falling back to disk and
// promoting a disk hit back into memory.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := s.mem.Get(key); ok {
		return v, nil
	}
	v, err := s.disk.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	s.mem.Set(key, v, TTLSearch) // memory tier caps its own lifetime via LRU pressure regardless
	return v, nil
}

// Set satisfies domain.Cache, writing through both tiers.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mem.Set(key, value, ttl)
	return s.disk.Set(ctx, key, value, ttl)
}

// Has satisfies domain.Cache.
func (s *Store) Has(ctx context.Context, key string) bool {
	if _, ok := s.mem.Get(key); ok {
		return true
	}
	return s.disk.Has(ctx, key)
}

// Delete satisfies domain.Cache, removing the key from both tiers.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mem.Delete(key)
	return s.disk.Delete(ctx, key)
}

// Close satisfies domain.Cache.
func (s *Store) Close() error {
	s.mem.Close()
	return s.disk.Close()
}

// Clear drops every entry from both tiers, returning the number of disk
// entries removed.
func (s *Store) Clear(ctx context.Context) (int, error) {
	n := s.disk.Size()
	if err := s.disk.db.DropAll(); err != nil {
		return 0, err
	}
	s.mem.Close()
	mem, err := newMemTier(DefaultOptions())
	if err != nil {
		return 0, err
	}
	s.mem = mem
	return int(n), nil
}

// Loader fetches the value for a cache miss. It is invoked at most once
// per key among any goroutines racing to fill it.
type Loader func(ctx context.Context) ([]byte, error)

// GetOrLoad returns the cached value for key, or calls load exactly once
// on a miss — concurrent callers for the same key block on that single
// call rather than each issuing their own upstream fetch. This is how the
// Source Adapter coalesces parallel requests for the same search keyword
// or chapter URL.
func (s *Store) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load Loader) ([]byte, bool, error) {
	return s.GetOrLoadValid(ctx, key, ttl, func([]byte) bool { return true }, load)
}

// GetOrLoadValid behaves like GetOrLoad but treats a cache hit that fails
// isValid as a miss, so a truncated chapter cache entry (below the
// CacheEntry invariant) is transparently refetched rather than served
// forever.
func (s *Store) GetOrLoadValid(ctx context.Context, key string, ttl time.Duration, isValid func([]byte) bool, load Loader) ([]byte, bool, error) {
	if v, err := s.Get(ctx, key); err == nil {
		if isValid(v) {
			return v, true, nil
		}
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		return nil, false, err
	}

	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		// Re-check: another goroutine may have refreshed this key while
		// we were deciding the existing entry was stale.
		if v, err := s.Get(ctx, key); err == nil && isValid(v) {
			return v, nil
		}
		loaded, loadErr := load(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		if setErr := s.Set(ctx, key, loaded, ttl); setErr != nil {
			return nil, setErr
		}
		return loaded, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]byte), false, nil
}
