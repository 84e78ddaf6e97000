package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/s2"
	"github.com/quantmind-br/repo2llm/internal/domain"
)

// value envelope markers
const (
	markRaw        byte = 'r'
	markCompressed byte = 's'
)

// BadgerCache is an in-memory BadgerDB store. It lives for one run and is
// discarded on Close; nothing reaches disk.
type BadgerCache struct {
	db       *badger.DB
	compress bool

	hits   atomic.Int64
	misses atomic.Int64
}

// NewBadgerCache creates a new in-memory BadgerDB cache
func NewBadgerCache(opts Options) (*BadgerCache, error) {
	badgerOpts := badger.DefaultOptions("").WithInMemory(true)

	// Disable logging unless explicitly enabled
	if !opts.Logger {
		badgerOpts = badgerOpts.WithLogger(nil)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open response cache: %w", err)
	}

	return &BadgerCache{db: db, compress: opts.Compress}, nil
}

// Get retrieves a value from cache
func (c *BadgerCache) Get(ctx context.Context, key string) ([]byte, error) {
	var stored []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domain.ErrCacheMiss
			}
			return err
		}

		stored, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			c.misses.Add(1)
		}
		return nil, err
	}

	value, err := unwrapValue(stored)
	if err != nil {
		return nil, fmt.Errorf("cache entry %s: %w", key, err)
	}
	c.hits.Add(1)
	return value, nil
}

// Set stores a value in cache. Entries never expire during a run.
func (c *BadgerCache) Set(ctx context.Context, key string, value []byte) error {
	stored := wrapValue(value, c.compress)
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), stored))
	})
}

// Has checks if a key exists in cache
func (c *BadgerCache) Has(ctx context.Context, key string) bool {
	err := c.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})

	return err == nil
}

// Close releases cache resources
func (c *BadgerCache) Close() error {
	return c.db.Close()
}

// Size returns the number of entries in the cache
func (c *BadgerCache) Size() int64 {
	var count int64
	_ = c.db.View(func(txn *badger.Txn) error {
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

// Stats returns cache statistics
func (c *BadgerCache) Stats() map[string]int64 {
	return map[string]int64{
		"entries": c.Size(),
		"hits":    c.hits.Load(),
		"misses":  c.misses.Load(),
	}
}

func wrapValue(value []byte, compress bool) []byte {
	if compress {
		out := s2.Encode(nil, value)
		return append([]byte{markCompressed}, out...)
	}
	return append([]byte{markRaw}, value...)
}

func unwrapValue(stored []byte) ([]byte, error) {
	if len(stored) == 0 {
		return nil, fmt.Errorf("empty cache value")
	}
	switch stored[0] {
	case markRaw:
		return stored[1:], nil
	case markCompressed:
		return s2.Decode(nil, stored[1:])
	}
	return nil, fmt.Errorf("unknown cache value marker %q", stored[0])
}
