package streamcache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/multiformats/go-multihash"

	"github.com/dbytex91/streamhub/internal/model"
	"github.com/dbytex91/streamhub/internal/provider"
)

const (
	DefaultTTL       = 30 * time.Minute
	cookieHashLength = 16
)

type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Entry is what gets stored per key. Times are unix milliseconds.
type Entry struct {
	Streams   []model.Stream `json:"streams"`
	Status    Status         `json:"status"`
	Expiry    int64          `json:"expiry"`
	Timestamp int64          `json:"timestamp"`
}

// KeyMaterial is identity data that changes what a provider returns. Only a
// hash of the cookies ends up in the key.
type KeyMaterial struct {
	Region  string
	Cookies []string
}

type Key struct {
	Provider provider.ID
	Type     model.ContentType
	ID       string
	Season   int
	Episode  int
	Material *KeyMaterial
}

func (k Key) String() string {
	var b strings.Builder
	b.WriteString(k.Provider.String())
	b.WriteByte(':')
	b.WriteString(string(k.Type))
	b.WriteByte(':')
	b.WriteString(k.ID)
	if k.Season > 0 || k.Episode > 0 {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(k.Season))
		if k.Episode > 0 {
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(k.Episode))
		}
	}

	if k.Material != nil {
		if k.Material.Region != "" {
			b.WriteString(":r=")
			b.WriteString(strings.ToLower(k.Material.Region))
		}
		if hash := hashCookies(k.Material.Cookies); hash != "" {
			b.WriteString(":c=")
			b.WriteString(hash)
		}
	}

	return b.String()
}

func hashCookies(cookies []string) string {
	if len(cookies) == 0 {
		return ""
	}

	mh, err := multihash.Sum([]byte(strings.Join(cookies, "\n")), multihash.SHA2_256, -1)
	if err != nil {
		return ""
	}
	decoded, err := multihash.Decode(mh)
	if err != nil {
		return ""
	}

	digest := hex.EncodeToString(decoded.Digest)
	if len(digest) > cookieHashLength {
		digest = digest[:cookieHashLength]
	}
	return digest
}

// Store reads from the remote backend first and falls back to the file
// backend. Writes go to both.
type Store struct {
	remote   Backend
	file     Backend
	ttl      time.Duration
	disabled bool
	now      func() time.Time
}

type Option func(*Store)

func WithRemote(b Backend) Option {
	return func(s *Store) {
		s.remote = b
	}
}

func WithFile(b Backend) Option {
	return func(s *Store) {
		s.file = b
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Disabled turns every call into a no-op.
func Disabled() Option {
	return func(s *Store) {
		s.disabled = true
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		ttl: DefaultTTL,
		now: time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Store) active(k Key) bool {
	return !s.disabled && k.Provider.Cacheable()
}

// Get returns a usable entry. Expired entries are removed from wherever they
// were found; failed entries are reported as absent so the next request
// retries the provider.
func (s *Store) Get(ctx context.Context, k Key) (*Entry, bool) {
	if !s.active(k) {
		return nil, false
	}

	key := k.String()
	data, backend, err := s.read(ctx, key)
	if err != nil {
		return nil, false
	}

	entry := &Entry{}
	if err := json.Unmarshal(data, entry); err != nil {
		log.Warnf("Dropping unreadable cache entry %s from %s: %v", key, backend.Name(), err)
		s.delete(ctx, backend, key)
		return nil, false
	}

	if s.now().UnixMilli() >= entry.Expiry {
		log.Debugf("Cache entry %s expired in %s", key, backend.Name())
		s.delete(ctx, backend, key)
		return nil, false
	}

	if entry.Status == StatusFailed {
		log.Debugf("Cache entry %s holds a failed fetch, retrying", key)
		return nil, false
	}

	return entry, true
}

func (s *Store) read(ctx context.Context, key string) ([]byte, Backend, error) {
	if s.remote != nil {
		data, err := s.remote.Get(ctx, key)
		if err == nil {
			return data, s.remote, nil
		}
		if !errors.Is(err, ErrMiss) {
			log.Warnf("Remote cache %s unavailable for %s, trying file cache: %v", s.remote.Name(), key, err)
		}
	}

	if s.file != nil {
		data, err := s.file.Get(ctx, key)
		if err == nil {
			return data, s.file, nil
		}
		if !errors.Is(err, ErrMiss) {
			log.Warnf("Failed to read file cache for %s: %v", key, err)
		}
	}

	return nil, nil, ErrMiss
}

func (s *Store) delete(ctx context.Context, backend Backend, key string) {
	if err := backend.Delete(ctx, key); err != nil {
		log.Warnf("Failed to delete %s from %s cache: %v", key, backend.Name(), err)
	}
}

// Set records the outcome of a fetch. A ttl of zero uses the store default.
func (s *Store) Set(ctx context.Context, k Key, streams []model.Stream, status Status, ttl time.Duration) {
	if !s.active(k) {
		return
	}

	if ttl <= 0 {
		ttl = s.ttl
	}
	if streams == nil {
		streams = []model.Stream{}
	}

	now := s.now()
	data, err := json.Marshal(&Entry{
		Streams:   streams,
		Status:    status,
		Expiry:    now.Add(ttl).UnixMilli(),
		Timestamp: now.UnixMilli(),
	})
	if err != nil {
		log.Errorf("Failed to encode cache entry for %s: %v", k, err)
		return
	}

	key := k.String()
	if s.remote != nil {
		if err := s.remote.Set(ctx, key, data, ttl); err != nil {
			log.Warnf("Failed to write %s to %s cache: %v", key, s.remote.Name(), err)
		}
	}
	if s.file != nil {
		if err := s.file.Set(ctx, key, data, ttl); err != nil {
			log.Errorf("Failed to write %s to file cache: %v", key, err)
		}
	}
}
