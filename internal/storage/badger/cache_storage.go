package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mgp/internal/interfaces"
)

// cachePrefix keeps raw cache keys apart from badgerhold's typed keys
const cachePrefix = "cache:"

// CacheStorage stores raw bytes with badger's native entry TTL
type CacheStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCacheStorage creates a new CacheStorage instance
func NewCacheStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CacheStorage {
	return &CacheStorage{
		db:     db,
		logger: logger,
	}
}

// Get returns the cached bytes or interfaces.ErrNotFound
func (s *CacheStorage) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.Store().Badger().View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(cachePrefix + key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key; ttl <= 0 stores without expiry
func (s *CacheStorage) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	entry := badger.NewEntry([]byte(cachePrefix+key), value)
	if ttl > 0 {
		entry = entry.WithTTL(ttl)
	}

	err := s.db.Store().Badger().Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}

// Delete removes key; missing keys are not an error
func (s *CacheStorage) Delete(ctx context.Context, key string) error {
	err := s.db.Store().Badger().Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(cachePrefix + key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete cache key %s: %w", key, err)
	}
	return nil
}
