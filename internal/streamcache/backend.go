package streamcache

import (
	"context"
	"errors"
	"time"
)

var ErrMiss = errors.New("streamcache: miss")

// Backend is a byte store keyed by the derived cache key. Get returns ErrMiss
// when the key is absent.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Name() string
}
