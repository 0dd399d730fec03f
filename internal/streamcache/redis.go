package streamcache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisDialTimeout  = 2 * time.Second
	redisIOTimeout    = time.Second
	redisMaxRetries   = 1
	redisPoolTimeout  = 2 * time.Second
	redisMinRetryWait = 50 * time.Millisecond
	redisMaxRetryWait = 250 * time.Millisecond
)

type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend accepts either a redis:// URL or a bare host:port. Timeouts
// and retries are kept short so an unreachable server degrades to the file
// store instead of holding the request.
func NewRedisBackend(addr string) (*RedisBackend, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	opts.DialTimeout = redisDialTimeout
	opts.ReadTimeout = redisIOTimeout
	opts.WriteTimeout = redisIOTimeout
	opts.PoolTimeout = redisPoolTimeout
	opts.MaxRetries = redisMaxRetries
	opts.MinRetryBackoff = redisMinRetryWait
	opts.MaxRetryBackoff = redisMaxRetryWait

	return &RedisBackend{client: redis.NewClient(opts)}, nil
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return value, err
}

func (r *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisBackend) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}

func (r *RedisBackend) Name() string {
	return "redis"
}
