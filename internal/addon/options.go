package addon

import (
	"time"

	"github.com/dbytex91/streamhub/internal/fanout"
	"github.com/dbytex91/streamhub/internal/model"
	"github.com/dbytex91/streamhub/internal/provider"
	"github.com/dbytex91/streamhub/internal/streamcache"
)

func WithID(id string) Option {
	return func(a *Addon) {
		a.id = id
	}
}

func WithName(name string) Option {
	return func(a *Addon) {
		a.name = name
	}
}

func WithVersion(version string) Option {
	return func(a *Addon) {
		a.version = version
	}
}

func WithDescription(description string) Option {
	return func(a *Addon) {
		a.description = description
	}
}

// WithRegistry sets the enabled providers and their fetchers.
func WithRegistry(registry *provider.Registry) Option {
	return func(a *Addon) {
		a.registry = registry
	}
}

func WithCache(cache *streamcache.Store) Option {
	return func(a *Addon) {
		a.cache = cache
	}
}

func WithExecutor(executor *fanout.Executor[model.Stream]) Option {
	return func(a *Addon) {
		a.executor = executor
	}
}

func WithResolver(resolver Resolver) Option {
	return func(a *Addon) {
		a.resolver = resolver
	}
}

// WithMetadata sets the metadata source queried by TMDB id.
func WithMetadata(meta MetaSource) Option {
	return func(a *Addon) {
		a.meta = meta
	}
}

// WithFallbackMetadata sets the metadata source queried by IMDb id when the
// primary one fails.
func WithFallbackMetadata(meta MetaSource) Option {
	return func(a *Addon) {
		a.fallbackMeta = meta
	}
}

// WithDeadline bounds how long a stream request waits for providers.
func WithDeadline(deadline time.Duration) Option {
	return func(a *Addon) {
		if deadline > 0 {
			a.deadline = deadline
		}
	}
}

// WithFailedTTL sets how long a failed fetch is remembered.
func WithFailedTTL(ttl time.Duration) Option {
	return func(a *Addon) {
		if ttl > 0 {
			a.failedTTL = ttl
		}
	}
}
