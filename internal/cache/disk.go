package cache

import (
	"context"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/novelforge/novelcore/internal/domain"
)

// diskTier is the persistent, content-addressed cache tier backed by
// BadgerDB. Keys handed to it are already the final hashed cache key;
// diskTier does no further derivation.
type diskTier struct {
	db *badger.DB
}

func newDiskTier(opts Options) (*diskTier, error) {
	var badgerOpts badger.Options

	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Directory == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			opts.Directory = homeDir + "/.novelcore/cache"
		}
		if err := os.MkdirAll(opts.Directory, 0755); err != nil {
			return nil, err
		}
		badgerOpts = badger.DefaultOptions(opts.Directory)
	}

	if !opts.BadgerLogger {
		badgerOpts = badgerOpts.WithLogger(nil)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}

	t := &diskTier{db: db}
	go t.runGC()
	return t, nil
}

func (t *diskTier) runGC() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		_ = t.db.RunValueLogGC(0.5)
	}
}

func (t *diskTier) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte
	err := t.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return domain.ErrCacheMiss
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (t *diskTier) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	return t.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

func (t *diskTier) Has(_ context.Context, key string) bool {
	err := t.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	return err == nil
}

func (t *diskTier) Delete(_ context.Context, key string) error {
	return t.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (t *diskTier) Close() error {
	return t.db.Close()
}

func (t *diskTier) Size() int64 {
	var count int64
	_ = t.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count
}

func (t *diskTier) Stats() map[string]interface{} {
	lsm, vlog := t.db.Size()
	return map[string]interface{}{
		"entries":   t.Size(),
		"lsm_size":  lsm,
		"vlog_size": vlog,
	}
}
