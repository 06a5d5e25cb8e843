package schema

import (
	"context"
	"log/slog"
)

type nameKey struct{}

type sessionKey struct{}

// WithName returns a context carrying name as the active schema.
func WithName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, nameKey{}, name)
}

// FromContext returns the active schema name, or Public when none is set.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return Public
	}
	if name, ok := ctx.Value(nameKey{}).(string); ok && name != "" {
		return name
	}
	return Public
}

// Run executes fn with name as the active schema of the derived context.
// The caller's context is never mutated, so the enclosing schema is restored
// on every exit path by construction.
func Run(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	return fn(WithName(ctx, name))
}

// WithSession binds a connection-level session to the context.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session bound to the context.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}

// LoggerExtractor returns a logger context extractor adding the active schema.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if name, ok := ctx.Value(nameKey{}).(string); ok && name != "" {
			return slog.String("schema", name), true
		}
		return slog.Attr{}, false
	}
}
