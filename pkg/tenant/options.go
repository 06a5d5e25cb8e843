package tenant

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/marketplace/pkg/schema"
)

// ErrorHandler handles errors that occur during tenant resolution.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// config holds middleware configuration.
type config struct {
	resolver      Resolver
	cache         Cache
	cacheTTL      time.Duration
	errorHandler  ErrorHandler
	skipPaths     []string
	requireActive bool
	logger        *slog.Logger
}

// Option configures the middleware.
type Option func(*config)

// WithResolver replaces the default Host header resolver.
func WithResolver(resolver Resolver) Option {
	return func(c *config) {
		if resolver != nil {
			c.resolver = resolver
		}
	}
}

// WithCache sets a custom cache implementation.
func WithCache(cache Cache) Option {
	return func(c *config) {
		if cache != nil {
			c.cache = cache
		}
	}
}

// WithCacheTTL sets how long a resolved tenant stays cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *config) {
		c.cacheTTL = ttl
	}
}

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(c *config) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// WithSkipPaths sets paths that bypass tenant resolution and schema switching.
func WithSkipPaths(paths []string) Option {
	return func(c *config) {
		c.skipPaths = paths
	}
}

// WithRequireActive rejects requests for inactive tenants instead of serving them.
func WithRequireActive(require bool) Option {
	return func(c *config) {
		c.requireActive = require
	}
}

// WithLogger sets a custom logger for the middleware.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// errorBody mirrors the JSON error envelope used by API handlers.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// WriteError renders err as a JSON error envelope with a status derived from its kind.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := classify(err)

	var body errorBody
	body.Error.Code = code
	body.Error.Message = message

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, ErrInactiveTenant):
		return http.StatusForbidden, "tenant_inactive", "Tenant is inactive"
	case errors.Is(err, ErrNoTenantInContext), errors.Is(err, ErrTenantNotFound):
		return http.StatusNotFound, "tenant_not_found", "No tenant is bound to this host"
	case errors.Is(err, schema.ErrSwitchFailed):
		return http.StatusInternalServerError, "schema_switch_failed", "Tenant schema is unavailable"
	default:
		return http.StatusInternalServerError, "internal_error", "Internal server error"
	}
}
