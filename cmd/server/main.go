package main

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/afero"

	"github.com/dbytex91/streamhub/internal/addon"
	"github.com/dbytex91/streamhub/internal/cinemeta"
	"github.com/dbytex91/streamhub/internal/fanout"
	"github.com/dbytex91/streamhub/internal/model"
	"github.com/dbytex91/streamhub/internal/provider"
	"github.com/dbytex91/streamhub/internal/static"
	"github.com/dbytex91/streamhub/internal/streamcache"
	"github.com/dbytex91/streamhub/internal/tmdb"
)

type config struct {
	Port        int    `env:"PORT" envDefault:"7000"`
	SSLEnabled  bool   `env:"SSL_ENABLED"`
	SSLPort     int    `env:"SSL_PORT" envDefault:"7443"`
	SSLDomain   string `env:"SSL_DOMAIN"`
	SSLCertFile string `env:"SSL_CERT_FILE" envDefault:"/etc/ssl/local-ip-co/server.pem"`
	SSLKeyFile  string `env:"SSL_KEY_FILE" envDefault:"/etc/ssl/local-ip-co/server.key"`

	// MEMORY_CACHE_SIZE also caps a single entry at about 1/1024 of it (~50KB
	// by default); larger stream lists are only cached on disk.
	CacheEnabled    bool          `env:"CACHE_ENABLED" envDefault:"true"`
	CacheDir        string        `env:"CACHE_DIR" envDefault:".cache/streams"`
	CacheTTL        time.Duration `env:"CACHE_TTL" envDefault:"30m"`
	FailedTTL       time.Duration `env:"FAILED_TTL" envDefault:"5m"`
	RedisURL        string        `env:"REDIS_URL"`
	MemoryCacheSize int           `env:"MEMORY_CACHE_SIZE" envDefault:"52428800"`

	FanoutDeadline time.Duration `env:"FANOUT_DEADLINE" envDefault:"15s"`
	FanoutGrace    time.Duration `env:"FANOUT_GRACE" envDefault:"100ms"`
	TaskTimeout    time.Duration `env:"TASK_TIMEOUT" envDefault:"60s"`

	TMDBAPIKey     string        `env:"TMDB_API_KEY"`
	TMDBTimeout    time.Duration `env:"TMDB_TIMEOUT" envDefault:"10s"`
	ScraperURL     string        `env:"SCRAPER_URL" envDefault:"http://localhost:8080"`
	ScraperAPIKey  string        `env:"SCRAPER_API_KEY"`
	ScraperTimeout time.Duration `env:"SCRAPER_TIMEOUT" envDefault:"30s"`

	EnableMoviesDrive bool `env:"ENABLE_MOVIESDRIVE" envDefault:"true"`
	Enable4KHDHub     bool `env:"ENABLE_4KHDHUB" envDefault:"true"`
	EnableShowBox     bool `env:"ENABLE_SHOWBOX"`
	EnableFebBox      bool `env:"ENABLE_FEBBOX"`
}

var (
	maskedPathPattern = regexp.MustCompile(`^/([^/]+)/(?:configure|stream|manifest)`)
	version           = "1.0.0"
)

func main() {
	cfg, err := env.ParseAs[config]()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	metadata := tmdb.New(cfg.TMDBAPIKey, tmdb.WithTimeout(cfg.TMDBTimeout))

	add := addon.New(
		addon.WithID("com.streamhub.addon"),
		addon.WithName("StreamHub"),
		addon.WithVersion(version),
		addon.WithDescription("Direct HTTP streams for movies and series from MoviesDrive, 4KHDHub, ShowBox and FebBox"),
		addon.WithRegistry(newRegistry(cfg)),
		addon.WithCache(newCache(cfg)),
		addon.WithExecutor(fanout.New[model.Stream](
			fanout.WithGrace(cfg.FanoutGrace),
			fanout.WithTaskTimeout(cfg.TaskTimeout),
		)),
		addon.WithResolver(metadata),
		addon.WithMetadata(metadata),
		addon.WithFallbackMetadata(cinemeta.New(cinemeta.DefaultBaseURL)),
		addon.WithDeadline(cfg.FanoutDeadline),
		addon.WithFailedTTL(cfg.FailedTTL),
	)

	if cfg.SSLEnabled {
		go func() {
			httpsApp := newApp(add, "StreamHub SSL")
			log.Infof("Starting HTTPS server on :%d with SSL domain: %s", cfg.SSLPort, cfg.SSLDomain)
			log.Fatal(httpsApp.ListenTLS(fmt.Sprintf(":%d", cfg.SSLPort), cfg.SSLCertFile, cfg.SSLKeyFile))
		}()
	}

	app := newApp(add, "StreamHub")
	log.Infof("Starting HTTP server on :%d", cfg.Port)
	log.Fatal(app.Listen(fmt.Sprintf(":%d", cfg.Port)))
}

func newApp(add *addon.Addon, name string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: name,
	})
	app.Use(cors.New())
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))

	app.Use(logger.New(logger.Config{
		CustomTags: map[string]logger.LogFunc{
			"maskedPath": func(output logger.Buffer, c *fiber.Ctx, data *logger.Data, extraParam string) (int, error) {
				urlPath := c.Path()
				loc := maskedPathPattern.FindStringSubmatchIndex(urlPath)
				if len(loc) > 3 {
					return output.WriteString(urlPath[:loc[2]] + "***" + urlPath[loc[3]:])
				} else {
					return output.WriteString(urlPath)
				}
			},
		},
		Format:        "${time} | ${status} | ${latency} | ${locals:requestid} | ${method} | ${maskedPath} | ${error}\n",
		TimeFormat:    "15:04:05",
		TimeZone:      "Local",
		TimeInterval:  500 * time.Millisecond,
		Output:        os.Stdout,
		DisableColors: false,
	}))

	configure := static.HandleConfigure(version)

	app.Get("/health", add.HandleHealth)
	app.Get("/manifest.json", add.HandleGetManifest)
	app.Get("/:userData/manifest.json", add.HandleGetManifest)
	app.Get("/stream/:type/:id.json", add.HandleGetStreams)
	app.Get("/:userData/stream/:type/:id.json", add.HandleGetStreams)
	app.Get("/configure", configure)
	app.Get("/:userData/configure", configure)

	return app
}

func newRegistry(cfg config) *provider.Registry {
	scraper := provider.NewScraper(cfg.ScraperURL, cfg.ScraperAPIKey, cfg.ScraperTimeout)

	enabled := map[provider.ID]bool{
		provider.MoviesDrive: cfg.EnableMoviesDrive,
		provider.FourKHDHub:  cfg.Enable4KHDHub,
		provider.ShowBox:     cfg.EnableShowBox,
		provider.FebBox:      cfg.EnableFebBox,
	}

	fetchers := make(map[provider.ID]provider.Fetcher, len(enabled))
	for _, id := range provider.All {
		if enabled[id] {
			fetchers[id] = scraper
			log.Infof("Provider %s enabled", id.Label())
		}
	}

	return provider.NewRegistry(fetchers)
}

func newCache(cfg config) *streamcache.Store {
	if !cfg.CacheEnabled {
		log.Info("Stream cache disabled")
		return streamcache.New(streamcache.Disabled())
	}

	opts := []streamcache.Option{
		streamcache.WithTTL(cfg.CacheTTL),
		streamcache.WithFile(streamcache.NewFileBackend(afero.NewOsFs(), cfg.CacheDir)),
	}

	if cfg.RedisURL != "" {
		redis, err := streamcache.NewRedisBackend(cfg.RedisURL)
		if err != nil {
			log.Errorf("Ignoring REDIS_URL, falling back to the file cache: %v", err)
			return streamcache.New(opts...)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := redis.Ping(ctx); err != nil {
			log.Warnf("Redis is not reachable yet, reads will fall back to the file cache: %v", err)
		}

		log.Infof("Stream cache: redis with file fallback in %s", cfg.CacheDir)
		return streamcache.New(append(opts, streamcache.WithRemote(redis))...)
	}

	log.Infof("Stream cache: memory (%s, entries up to ~%s) with file fallback in %s",
		humanize.Bytes(uint64(cfg.MemoryCacheSize)), humanize.Bytes(uint64(streamcache.MaxEntrySize(cfg.MemoryCacheSize))), cfg.CacheDir)
	return streamcache.New(append(opts, streamcache.WithRemote(streamcache.NewMemoryBackend(cfg.MemoryCacheSize)))...)
}
