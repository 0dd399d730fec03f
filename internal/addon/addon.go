package addon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/dbytex91/streamhub/internal/fanout"
	"github.com/dbytex91/streamhub/internal/model"
	"github.com/dbytex91/streamhub/internal/provider"
	"github.com/dbytex91/streamhub/internal/ranking"
	"github.com/dbytex91/streamhub/internal/streamcache"
	"github.com/dbytex91/streamhub/internal/tmdb"
)

const (
	DefaultDeadline  = 15 * time.Second
	DefaultFailedTTL = 5 * time.Minute
)

// Resolver maps a Stremio content id to its TMDB identity.
type Resolver interface {
	Resolve(ctx context.Context, contentType model.ContentType, id tmdb.ContentID) (*model.ResolvedID, error)
}

// MetaSource looks up display metadata for a content id.
type MetaSource interface {
	GetMeta(ctx context.Context, contentType model.ContentType, id string) (*model.MetaInfo, error)
}

// Addon implements a Stremio addon
type Addon struct {
	id          string
	name        string
	version     string
	description string

	registry     *provider.Registry
	cache        *streamcache.Store
	executor     *fanout.Executor[model.Stream]
	resolver     Resolver
	meta         MetaSource
	fallbackMeta MetaSource
	deadline     time.Duration
	failedTTL    time.Duration
}

type Option func(*Addon)

func New(opts ...Option) *Addon {
	addon := &Addon{
		description: "Direct streams for movies and series from MoviesDrive, 4KHDHub and friends",
		deadline:    DefaultDeadline,
		failedTTL:   DefaultFailedTTL,
	}

	for _, opt := range opts {
		opt(addon)
	}

	if addon.registry == nil {
		addon.registry = provider.NewRegistry(nil)
	}
	if addon.cache == nil {
		addon.cache = streamcache.New(streamcache.Disabled())
	}
	if addon.executor == nil {
		addon.executor = fanout.New[model.Stream]()
	}

	if addon.registry.EnabledSet().IsEmpty() {
		log.Warn("No provider is enabled, every stream request will be empty")
	}
	if addon.resolver == nil {
		log.Warn("No id resolver configured, only tmdb: ids can be served")
	}

	return addon
}

func (add *Addon) HandleGetManifest(c *fiber.Ctx) error {
	manifest := &Manifest{
		ID:          add.id,
		Name:        add.name,
		Description: add.description,
		Version:     add.version,
		ResourceItems: []ResourceItem{
			{
				Name:       ResourceStream,
				Types:      []model.ContentType{model.ContentTypeMovie, model.ContentTypeSeries},
				IDPrefixes: idPrefixes,
			},
		},
		Types:      []model.ContentType{model.ContentTypeMovie, model.ContentTypeSeries},
		Catalogs:   []CatalogItem{},
		IDPrefixes: idPrefixes,
		BehaviorHints: &BehaviorHints{
			Configurable: true,
		},
	}

	return c.JSON(manifest)
}

func (add *Addon) HandleHealth(c *fiber.Ctx) error {
	enabled := make([]string, 0, len(provider.All))
	for _, id := range add.registry.Select(0) {
		enabled = append(enabled, id.String())
	}

	return c.JSON(fiber.Map{
		"status":    "ok",
		"version":   add.version,
		"providers": enabled,
	})
}

// HandleGetStreams always answers 200. Every failure along the way ends up as
// fewer (or no) streams.
func (add *Addon) HandleGetStreams(c *fiber.Ctx) error {
	streams := add.getStreams(c.UserContext(), c.Params("userData"), model.ContentType(c.Params("type")), c.Params("id"))

	if len(streams) == 0 {
		c.Response().Header.Add("Cache-control", "max-age=60, public")
	} else {
		c.Response().Header.Add("Cache-control", "max-age=1800, public, stale-while-revalidate=604800, stale-if-error=604800")
	}
	return c.JSON(GetStreamsResponse{
		Streams: streams,
	})
}

func (add *Addon) getStreams(ctx context.Context, rawUserData string, contentType model.ContentType, rawID string) []StreamItem {
	results := []StreamItem{}

	userData, err := parseUserData(rawUserData)
	if err != nil {
		log.Warnf("Using default configuration, failed to parse user data: %v", err)
	}

	if !contentType.IsSupported() {
		log.Infof("Unsupported content type %q", contentType)
		return results
	}

	contentID, err := tmdb.ParseID(rawID)
	if err != nil {
		log.Warnf("Couldn't parse content id: %v", err)
		return results
	}

	resolved, err := add.resolve(ctx, contentType, contentID)
	if err != nil {
		log.Warnf("Couldn't resolve %s %s: %v", contentType, contentID.ID, err)
		return results
	}
	if resolved.Type == "" {
		resolved.Type = contentType
	}

	rc := newRequestContext(userData, contentType, resolved.TMDBID, contentID.Season, contentID.Episode)
	rc.Animation = resolved.IsAnimation
	ids := add.registry.Select(rc.Selection)
	if len(ids) == 0 {
		log.Infof("No provider selected for %s %s", contentType, resolved.TMDBID)
		return results
	}

	metaCtx, cancel := context.WithTimeout(ctx, add.deadline)
	defer cancel()
	metaCh := make(chan *displayMeta, 1)
	go func() {
		metaCh <- add.lookupMeta(metaCtx, resolved, contentID)
	}()

	tasks := make(map[string]fanout.Task[model.Stream], len(ids))
	for _, id := range ids {
		tasks[id.String()] = add.providerTask(rc, id)
	}
	fetched := add.executor.RunAll(ctx, tasks, add.deadline)

	meta := <-metaCh
	for _, id := range ids {
		streams := ranking.Sort(ranking.Filter(fetched[id.String()], rc.Rule(id)))
		for i := range streams {
			results = append(results, formatStream(id, &streams[i], meta))
		}
	}

	log.Infof("Returning %d streams for %s %s from %d providers", len(results), contentType, resolved.TMDBID, len(ids))
	return results
}

func (add *Addon) resolve(ctx context.Context, contentType model.ContentType, id tmdb.ContentID) (*model.ResolvedID, error) {
	if add.resolver != nil {
		return add.resolver.Resolve(ctx, contentType, id)
	}
	if id.Source == tmdb.SourceTMDB {
		return &model.ResolvedID{TMDBID: id.ID, Type: contentType}, nil
	}
	return nil, errors.New("no resolver for imdb ids")
}

// providerTask is the per-provider pipeline: cache lookup, then fetch and
// record the outcome. It runs detached from the request so a slow provider
// still fills the cache.
func (add *Addon) providerTask(rc *RequestContext, id provider.ID) fanout.Task[model.Stream] {
	return func(ctx context.Context) ([]model.Stream, error) {
		key := rc.CacheKey(id)
		if entry, ok := add.cache.Get(ctx, key); ok {
			log.Debugf("Cache hit for %s with %d streams", key, len(entry.Streams))
			return tagStreams(entry.Streams, id), nil
		}

		fetcher := add.registry.Fetcher(id)
		if fetcher == nil {
			return nil, fmt.Errorf("%w: %s is not enabled", provider.ErrUnknownProvider, id)
		}

		raw, err := fetcher.FetchStreams(ctx, rc.Query(id))
		if err != nil {
			add.cache.Set(ctx, key, nil, streamcache.StatusFailed, add.failedTTL)
			return nil, err
		}

		streams := tagStreams(raw, id)
		add.cache.Set(ctx, key, streams, streamcache.StatusOK, 0)
		return streams, nil
	}
}

func tagStreams(raw []model.Stream, id provider.ID) []model.Stream {
	streams := make([]model.Stream, 0, len(raw))
	for _, s := range raw {
		streams = append(streams, s.WithProvider(id.String()))
	}
	return streams
}

// lookupMeta asks the primary source, then the fallback, and finally settles
// for what id resolution returned.
func (add *Addon) lookupMeta(ctx context.Context, resolved *model.ResolvedID, id tmdb.ContentID) *displayMeta {
	meta := &displayMeta{
		Name:    resolved.Title,
		Season:  id.Season,
		Episode: id.Episode,
	}

	var info *model.MetaInfo
	var err error
	if add.meta != nil && resolved.TMDBID != "" {
		info, err = add.meta.GetMeta(ctx, resolved.Type, resolved.TMDBID)
		if err != nil {
			log.Warnf("Couldn't fetch metadata for tmdb %s: %v", resolved.TMDBID, err)
		}
	}

	imdbID := resolved.IMDBID
	if imdbID == "" && id.Source == tmdb.SourceIMDB {
		imdbID = id.ID
	}
	if info == nil && add.fallbackMeta != nil && imdbID != "" {
		info, err = add.fallbackMeta.GetMeta(ctx, resolved.Type, imdbID)
		if err != nil {
			log.Warnf("Couldn't fetch fallback metadata for %s: %v", imdbID, err)
		}
	}

	if info != nil && info.Name != "" {
		meta.Name = info.Name
		meta.Year = info.Year
		log.Debugf("Metadata for %s: %q (%d) animation=%t", resolved.TMDBID, info.Name, info.Year, info.IsAnimation)
	}

	return meta
}
