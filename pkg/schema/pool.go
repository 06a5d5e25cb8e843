package schema

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Conn is a connection checked out for the duration of one scoped operation.
type Conn interface {
	Querier
	// Release returns the connection to its pool.
	Release()
	// Destroy closes the connection instead of returning it to the pool.
	Destroy(ctx context.Context) error
}

// Source hands out dedicated connections.
type Source interface {
	Acquire(ctx context.Context) (Conn, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (Conn, error)

// Acquire calls f.
func (f SourceFunc) Acquire(ctx context.Context) (Conn, error) {
	return f(ctx)
}

// FromPool returns a Source backed by a pgx connection pool.
func FromPool(pool *pgxpool.Pool) Source {
	return SourceFunc(func(ctx context.Context) (Conn, error) {
		c, err := pool.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		return poolConn{c}, nil
	})
}

type poolConn struct {
	*pgxpool.Conn
}

func (c poolConn) Destroy(ctx context.Context) error {
	return c.Hijack().Close(ctx)
}

// Scoped acquires a connection, runs fn on it with name as the active schema
// and gives the connection back. A connection whose schema could not be
// restored is destroyed instead of being returned to the pool.
func Scoped(ctx context.Context, src Source, name string, fn func(ctx context.Context) error) error {
	conn, err := src.Acquire(ctx)
	if err != nil {
		return errors.Join(ErrSwitchFailed, err)
	}

	sess := NewSession(conn)
	defer func() {
		if sess.Broken() {
			_ = conn.Destroy(context.WithoutCancel(ctx))
			return
		}
		conn.Release()
	}()

	return sess.Run(ctx, name, fn)
}
