package streamcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coocood/freecache"
)

// MemoryBackend keeps entries in process. It stands in for the remote store
// when no Redis is configured.
//
// freecache refuses entries larger than about 1/1024 of its size, so a 50MB
// backend holds stream lists up to roughly 50KB. Larger lists are only kept
// by the file backend.
type MemoryBackend struct {
	cache *freecache.Cache
}

func NewMemoryBackend(sizeInBytes int) *MemoryBackend {
	return &MemoryBackend{cache: freecache.NewCache(sizeInBytes)}
}

// MaxEntrySize is the approximate largest value Set accepts.
func MaxEntrySize(sizeInBytes int) int {
	return sizeInBytes / 1024
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	value, err := m.cache.Get([]byte(key))
	if errors.Is(err, freecache.ErrNotFound) {
		return nil, ErrMiss
	}
	return value, err
}

func (m *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	expireSeconds := int(ttl / time.Second)
	if expireSeconds < 1 {
		expireSeconds = 1
	}
	if err := m.cache.Set([]byte(key), value, expireSeconds); err != nil {
		if errors.Is(err, freecache.ErrLargeEntry) {
			return fmt.Errorf("memory: %d byte entry for %s is over the size limit: %w", len(value), key, err)
		}
		return err
	}
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.cache.Del([]byte(key))
	return nil
}

func (m *MemoryBackend) Name() string {
	return "memory"
}
