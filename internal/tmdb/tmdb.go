package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/coocood/freecache"
	"github.com/go-resty/resty/v2"
	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/dbytex91/streamhub/internal/model"
)

const (
	DefaultBaseURL = "https://api.themoviedb.org/3"

	cacheSize         = 8 * 1024 * 1024 // 8MB
	cacheExpiry       = 24 * 60 * 60    // 1 day
	animationGenreID  = 16
	defaultRatePerSec = 20
	defaultBurst      = 40
	defaultTimeout    = 10 * time.Second
)

var ErrNotFound = errors.New("tmdb: not found")

type TMDB struct {
	client  *resty.Client
	apiKey  string
	timeout time.Duration
	cache   *freecache.Cache
	group   singleflight.Group
	limiter *rate.Limiter
}

type Option func(*TMDB)

func WithBaseURL(baseURL string) Option {
	return func(t *TMDB) {
		t.client.SetBaseURL(baseURL)
	}
}

func WithRateLimit(perSecond float64, burst int) Option {
	return func(t *TMDB) {
		t.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(t *TMDB) {
		if timeout > 0 {
			t.timeout = timeout
			t.client.SetTimeout(timeout)
		}
	}
}

func New(apiKey string, opts ...Option) *TMDB {
	t := &TMDB{
		client:  resty.New().SetBaseURL(DefaultBaseURL).SetTimeout(defaultTimeout),
		apiKey:  apiKey,
		timeout: defaultTimeout,
		cache:   freecache.NewCache(cacheSize),
		limiter: rate.NewLimiter(defaultRatePerSec, defaultBurst),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type findResult struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Name     string `json:"name"`
	GenreIDs []int  `json:"genre_ids"`
}

type findResponse struct {
	MovieResults []findResult `json:"movie_results"`
	TVResults    []findResult `json:"tv_results"`
}

type genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type detailsResponse struct {
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	IMDBID       string  `json:"imdb_id"`
	Genres       []genre `json:"genres"`
}

// Resolve maps a Stremio content id to its TMDB identity. IMDb ids are looked
// up with /find. TMDB ids pass through, enriched from the details endpoint
// when it answers.
func (t *TMDB) Resolve(ctx context.Context, contentType model.ContentType, id ContentID) (*model.ResolvedID, error) {
	switch id.Source {
	case SourceTMDB:
		return t.resolveTMDB(ctx, contentType, id.ID), nil
	case SourceIMDB:
	default:
		return nil, fmt.Errorf("%w: unknown source %q", ErrInvalidID, id.Source)
	}

	cacheKey := "find:" + string(contentType) + ":" + id.ID
	resolved := &model.ResolvedID{}
	if t.cached(cacheKey, resolved) {
		return resolved, nil
	}

	v, err := t.shared(ctx, cacheKey, func(ctx context.Context) (any, error) {
		found, err := t.find(ctx, contentType, id.ID)
		if err != nil {
			return nil, err
		}
		t.store(cacheKey, found)
		return found, nil
	})
	if err != nil {
		return nil, err
	}

	*resolved = *v.(*model.ResolvedID)
	return resolved, nil
}

func (t *TMDB) resolveTMDB(ctx context.Context, contentType model.ContentType, tmdbID string) *model.ResolvedID {
	resolved := &model.ResolvedID{TMDBID: tmdbID, Type: contentType}

	meta, err := t.GetMeta(ctx, contentType, tmdbID)
	if err != nil {
		log.Warnf("Couldn't enrich tmdb %s %s: %v", contentType, tmdbID, err)
		return resolved
	}

	resolved.IMDBID = meta.IMDBID
	resolved.Title = meta.Name
	resolved.IsAnimation = meta.IsAnimation
	return resolved
}

// shared runs fn once for every concurrent caller of key. The call is
// detached from the caller that started it and bounded by the client
// timeout; each caller still stops waiting when its own context ends.
func (t *TMDB) shared(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := t.group.DoChan(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.timeout)
		defer cancel()
		return fn(callCtx)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *TMDB) cached(key string, v any) bool {
	raw, err := t.cache.Get([]byte(key))
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

func (t *TMDB) store(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := t.cache.Set([]byte(key), raw, cacheExpiry); err != nil {
		log.Warnf("Failed to cache tmdb %s: %v", key, err)
	}
}

func (t *TMDB) find(ctx context.Context, contentType model.ContentType, imdbID string) (*model.ResolvedID, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("tmdb find %s: %w", imdbID, err)
	}

	resp, err := t.client.R().
		SetContext(ctx).
		SetResult(&findResponse{}).
		SetPathParam("id", imdbID).
		SetQueryParams(map[string]string{
			"api_key":         t.apiKey,
			"external_source": "imdb_id",
		}).
		Get("/find/{id}")
	if err != nil {
		return nil, fmt.Errorf("tmdb find %s: %w", imdbID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("tmdb find %s: unexpected status %d", imdbID, resp.StatusCode())
	}

	result := resp.Result().(*findResponse)
	results := result.MovieResults
	if contentType == model.ContentTypeSeries {
		results = result.TVResults
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, contentType, imdbID)
	}

	title := results[0].Title
	if title == "" {
		title = results[0].Name
	}

	return &model.ResolvedID{
		TMDBID:      strconv.FormatInt(results[0].ID, 10),
		IMDBID:      imdbID,
		Type:        contentType,
		Title:       title,
		IsAnimation: slices.Contains(results[0].GenreIDs, animationGenreID),
	}, nil
}

// GetMeta fetches display metadata for a resolved TMDB id.
func (t *TMDB) GetMeta(ctx context.Context, contentType model.ContentType, tmdbID string) (*model.MetaInfo, error) {
	cacheKey := "details:" + string(contentType) + ":" + tmdbID
	meta := &model.MetaInfo{}
	if t.cached(cacheKey, meta) {
		return meta, nil
	}

	v, err := t.shared(ctx, cacheKey, func(ctx context.Context) (any, error) {
		details, err := t.details(ctx, contentType, tmdbID)
		if err != nil {
			return nil, err
		}
		t.store(cacheKey, details)
		return details, nil
	})
	if err != nil {
		return nil, err
	}

	*meta = *v.(*model.MetaInfo)
	return meta, nil
}

func (t *TMDB) details(ctx context.Context, contentType model.ContentType, tmdbID string) (*model.MetaInfo, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("tmdb details %s: %w", tmdbID, err)
	}

	kind := "movie"
	if contentType == model.ContentTypeSeries {
		kind = "tv"
	}

	resp, err := t.client.R().
		SetContext(ctx).
		SetResult(&detailsResponse{}).
		SetPathParams(map[string]string{
			"kind": kind,
			"id":   tmdbID,
		}).
		SetQueryParam("api_key", t.apiKey).
		Get("/{kind}/{id}")
	if err != nil {
		return nil, fmt.Errorf("tmdb details %s: %w", tmdbID, err)
	}
	if resp.StatusCode() == 404 {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind, tmdbID)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("tmdb details %s: unexpected status %d", tmdbID, resp.StatusCode())
	}

	result := resp.Result().(*detailsResponse)
	meta := &model.MetaInfo{
		Name:   result.Title,
		IMDBID: result.IMDBID,
	}
	if meta.Name == "" {
		meta.Name = result.Name
	}

	date := result.ReleaseDate
	if date == "" {
		date = result.FirstAirDate
	}
	if year, _, ok := strings.Cut(date, "-"); ok {
		meta.Year, _ = strconv.Atoi(year)
	}

	for _, g := range result.Genres {
		if g.ID == animationGenreID {
			meta.IsAnimation = true
		}
	}

	if meta.Name == "" {
		return nil, fmt.Errorf("%w: %s %s has no title", ErrNotFound, kind, tmdbID)
	}

	return meta, nil
}
