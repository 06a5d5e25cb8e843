package tenant

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/marketplace/pkg/logger"
	"github.com/dmitrymomot/marketplace/pkg/schema"
)

// Response headers carrying the resolved tenant for observability.
const (
	HeaderSchema = "X-Tenant-Schema"
	HeaderName   = "X-Tenant-Name"
)

// Middleware resolves the tenant owning the request host and runs the rest of
// the chain on a dedicated connection switched to that tenant's schema.
//
// Unknown hosts fall back to the public schema. A registry failure or an
// inability to switch schema aborts the request with a server error; neither
// ever degrades into the public schema. The previous schema is restored on
// every exit path and a connection that cannot be restored is closed.
// A cached tenant whose schema no longer exists is evicted and the host is
// resolved again through the provider.
func Middleware(provider Provider, src schema.Source, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		resolver:      NewHostResolver(),
		cacheTTL:      5 * time.Minute,
		errorHandler:  WriteError,
		requireActive: true,
		logger:        slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.cache == nil {
		cfg.cache = NewInMemoryCache()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			ctx := r.Context()

			host, t, cached, err := cfg.resolve(ctx, provider, r, true)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}

			started, err := cfg.serve(ctx, src, t, w, r, next)
			if !started && cached && errors.Is(err, schema.ErrSchemaNotFound) {
				// The tenant was removed by another process after it was cached.
				cfg.logger.WarnContext(ctx, "cached tenant schema is gone, resolving again",
					logger.Host(host), logger.Schema(t.SchemaName))
				cfg.cache.Delete(ctx, host)

				_, t, _, err = cfg.resolve(ctx, provider, r, false)
				if err != nil {
					cfg.errorHandler(w, r, err)
					return
				}
				started, err = cfg.serve(ctx, src, t, w, r, next)
			}
			if err == nil {
				return
			}

			name := schemaOf(t)
			if !started {
				cfg.logger.ErrorContext(ctx, "failed to activate tenant schema",
					logger.Schema(name), logger.Error(err))
				cfg.errorHandler(w, r, err)
				return
			}
			// The response is already written; the connection has been discarded.
			cfg.logger.ErrorContext(ctx, "failed to restore schema after request",
				logger.Schema(name), logger.Error(err))
		})
	}
}

// serve runs next on a connection switched to the schema of t, or public
// when t is nil. started reports whether next was invoked.
func (c *config) serve(ctx context.Context, src schema.Source, t *Tenant, w http.ResponseWriter, r *http.Request, next http.Handler) (bool, error) {
	name := schemaOf(t)
	if t != nil {
		ctx = WithTenant(ctx, t)
	}

	started := false
	err := schema.Scoped(ctx, src, name, func(ctx context.Context) error {
		started = true
		w.Header().Set(HeaderSchema, name)
		w.Header().Set(HeaderName, DisplayName(t))
		next.ServeHTTP(w, r.WithContext(ctx))
		return nil
	})
	return started, err
}

func schemaOf(t *Tenant) string {
	if t == nil {
		return schema.Public
	}
	return t.SchemaName
}

// resolve returns the normalized host and the tenant owning it, or a nil
// tenant for the public schema. cached reports a cache hit.
func (c *config) resolve(ctx context.Context, provider Provider, r *http.Request, useCache bool) (host string, t *Tenant, cached bool, err error) {
	host, err = c.resolver.Resolve(r)
	if err != nil {
		c.logger.DebugContext(ctx, "unresolvable host, using public schema",
			logger.Host(r.Host), logger.Error(err))
		return "", nil, false, nil
	}
	if host == "" {
		return "", nil, false, nil
	}

	if useCache {
		if hit, ok := c.cache.Get(ctx, host); ok {
			if c.requireActive && !hit.Active {
				return host, nil, true, ErrInactiveTenant
			}
			return host, hit, true, nil
		}
	}

	t, err = provider.GetByDomain(ctx, host)
	if errors.Is(err, ErrTenantNotFound) {
		return host, nil, false, nil
	}
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to load tenant", logger.Host(host), logger.Error(err))
		return host, nil, false, err
	}

	if c.requireActive && !t.Active {
		return host, nil, false, ErrInactiveTenant
	}

	c.cache.Set(ctx, host, t, c.cacheTTL)
	return host, t, false, nil
}

// RequireTenant creates middleware that ensures a tenant is present in the context.
// Mount it on routes that only make sense inside a tenant schema.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = WriteError
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := FromContext(r.Context()); !ok {
				errorHandler(w, r, ErrNoTenantInContext)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
