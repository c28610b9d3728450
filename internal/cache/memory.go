package cache

import (
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// memTier is the in-process LRU tier consulted before the disk tier. It
// holds raw cache values keyed by the already-hashed cache key; costing is
// by byte length so MaxCost translates directly into a memory budget.
type memTier struct {
	cache *ristretto.Cache[string, []byte]
}

func newMemTier(opts Options) (*memTier, error) {
	maxCost := int64(opts.MemoryMaxGB * 1e9)
	if maxCost <= 0 {
		maxCost = int64(0.25 * 1e9)
	}
	numCounters := opts.MemoryCount * 10
	if numCounters <= 0 {
		numCounters = 1e6
	}

	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: numCounters,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &memTier{cache: c}, nil
}

func (m *memTier) Get(key string) ([]byte, bool) {
	return m.cache.Get(key)
}

func (m *memTier) Set(key string, value []byte, ttl time.Duration) {
	m.cache.SetWithTTL(key, value, int64(len(value)), ttl)
	m.cache.Wait()
}

func (m *memTier) Delete(key string) {
	m.cache.Del(key)
}

func (m *memTier) Close() {
	m.cache.Close()
}
