package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/marketplace/pkg/clientip"
	"github.com/dmitrymomot/marketplace/pkg/config"
	"github.com/dmitrymomot/marketplace/pkg/httpserver"
	"github.com/dmitrymomot/marketplace/pkg/logger"
	"github.com/dmitrymomot/marketplace/pkg/media"
	"github.com/dmitrymomot/marketplace/pkg/pg"
	"github.com/dmitrymomot/marketplace/pkg/redis"
	"github.com/dmitrymomot/marketplace/pkg/requestid"
	"github.com/dmitrymomot/marketplace/pkg/schema"
	"github.com/dmitrymomot/marketplace/pkg/tenant"
	"github.com/dmitrymomot/marketplace/svc/catalog"
	"github.com/dmitrymomot/marketplace/svc/provision"
	"github.com/dmitrymomot/marketplace/svc/registry"
)

// Config is the process configuration read from the environment.
type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"APP_NAME" envDefault:"marketplace"`

	// TenantCache selects where resolved tenants are cached: auto, redis, memory or none.
	// auto uses redis when REDIS_URL is set and disables caching otherwise.
	TenantCache    string        `env:"TENANT_CACHE" envDefault:"auto"`
	TenantCacheTTL time.Duration `env:"TENANT_CACHE_TTL" envDefault:"5m"`
	// ForwardedHostHeader resolves tenants from a proxy header instead of Host.
	ForwardedHostHeader string `env:"TENANT_FORWARDED_HOST_HEADER"`
	// TrustProxy reads the client IP from proxy headers.
	TrustProxy bool `env:"HTTP_TRUST_PROXY" envDefault:"false"`

	Log   logger.Config
	PG    pg.Config
	Redis redis.Config
	HTTP  httpserver.Config
	Media media.Config
}

// Tenant cache modes.
const (
	CacheAuto   = "auto"
	CacheRedis  = "redis"
	CacheMemory = "memory"
	CacheNone   = "none"
)

// CacheMode returns the tenant cache backend after resolving auto.
// An in-memory cache only suits a single process: deletes made by the CLI
// or another replica never reach it.
func (c *Config) CacheMode() string {
	mode := strings.ToLower(strings.TrimSpace(c.TenantCache))
	if mode == "" || mode == CacheAuto {
		if c.Redis.Enabled() {
			return CacheRedis
		}
		return CacheNone
	}
	return mode
}

func (c *Config) Validate() error {
	if c.Log.Level != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
			return fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}
	switch logger.Format(strings.ToLower(c.Log.Format)) {
	case "", logger.FormatJSON, logger.FormatText:
	default:
		return fmt.Errorf("LOG_FORMAT: unknown format %q", c.Log.Format)
	}
	switch c.CacheMode() {
	case CacheRedis:
		if !c.Redis.Enabled() {
			return errors.New("TENANT_CACHE=redis requires REDIS_URL")
		}
	case CacheMemory, CacheNone:
	default:
		return fmt.Errorf("TENANT_CACHE: unknown mode %q", c.TenantCache)
	}
	if c.TenantCacheTTL < 0 {
		return errors.New("TENANT_CACHE_TTL must not be negative")
	}
	return nil
}

// app holds the connections shared by every command.
type app struct {
	cfg      Config
	log      *slog.Logger
	pool     *pgxpool.Pool
	redis    *goredis.Client
	cache    tenant.Cache
	registry *registry.Store
	media    media.Storage
}

func newApp(ctx context.Context) (*app, error) {
	if err := config.LoadEnv(envFiles...); err != nil {
		return nil, err
	}
	cfg, err := config.Load[Config]()
	if err != nil {
		return nil, err
	}

	log := logger.New(
		logger.WithEnvironment(cfg.AppEnv, cfg.ServiceName),
		logger.WithConfig(cfg.Log),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			clientip.LoggerExtractor(),
			tenant.LoggerExtractor(),
			schema.LoggerExtractor(),
		),
	)
	logger.SetAsDefault(log)

	a := &app{cfg: cfg, log: log}

	a.pool, err = pg.Connect(ctx, cfg.PG)
	if err != nil {
		return nil, err
	}

	if cfg.Redis.Enabled() {
		a.redis, err = redis.Connect(ctx, cfg.Redis)
		if err != nil {
			a.Close()
			return nil, err
		}
	}
	switch cfg.CacheMode() {
	case CacheRedis:
		a.cache = tenant.NewRedisCache(a.redis, cfg.Redis.KeyPrefix)
	case CacheMemory:
		a.cache = tenant.NewInMemoryCache()
	default:
		a.cache = tenant.NewNoOpCache()
	}

	a.media, err = media.New(ctx, cfg.Media)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.registry = registry.New(a.pool, registry.WithCache(a.cache), registry.WithLogger(log))
	return a, nil
}

func (a *app) provisioner() *provision.Service {
	return provision.New(provision.NewPGStore(a.pool),
		provision.WithMedia(a.media),
		provision.WithCacheInvalidator(a.registry),
		provision.WithLogger(a.log),
	)
}

func (a *app) catalog() *catalog.Service {
	return catalog.New(a.log)
}

func (a *app) source() schema.Source {
	return schema.FromPool(a.pool)
}

func (a *app) Close() {
	if a.cache != nil {
		_ = a.cache.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

// withApp runs fn with a connected app and closes it afterwards.
func withApp(ctx context.Context, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
