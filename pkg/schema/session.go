package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx connection, pool and transaction methods a
// Session needs. *pgxpool.Conn, *pgx.Conn and pgx.Tx all satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// switchSQL sets search_path only when the target namespace exists, so a
// missing schema yields no rows instead of a silently ignored search_path entry.
const switchSQL = `SELECT set_config('search_path', $1, $2) FROM pg_catalog.pg_namespace WHERE nspname = $3`

// Session tracks the active schema of one connection or transaction.
// It is not safe for concurrent use.
type Session struct {
	q      Querier
	local  bool
	active string
	broken bool
}

// NewSession binds a session to a dedicated connection.
// The connection is assumed to start on the public schema.
func NewSession(q Querier) *Session {
	return &Session{q: q, active: Public}
}

// NewTxSession binds a session to a transaction. Schema switches are
// transaction-local and vanish on commit or rollback.
func NewTxSession(tx Querier) *Session {
	return &Session{q: tx, local: true, active: Public}
}

// Active returns the schema currently selected on the connection.
func (s *Session) Active() string {
	return s.active
}

// Broken reports whether a restore failed. A broken session's connection
// holds an unknown search_path and must be closed rather than reused.
func (s *Session) Broken() bool {
	return s.broken
}

// Run switches the connection to name, executes fn and restores the
// previously active schema on every exit path, including panics and context
// cancellation. Calls may be nested; each level restores its enclosing schema.
func (s *Session) Run(ctx context.Context, name string, fn func(ctx context.Context) error) (err error) {
	if s.broken {
		return ErrRestoreFailed
	}
	if name == "" {
		name = Public
	}

	prev := s.active
	if err := s.switchTo(ctx, name); err != nil {
		return err
	}

	defer func() {
		// Restoration must run even when the request was cancelled.
		if rerr := s.switchTo(context.WithoutCancel(ctx), prev); rerr != nil {
			s.broken = true
			err = errors.Join(err, ErrRestoreFailed, rerr)
		}
	}()

	return fn(WithSession(WithName(ctx, name), s))
}

// Do is Run for operations that produce a value.
func Do[T any](ctx context.Context, s *Session, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := s.Run(ctx, name, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

// Exec runs a statement against the active schema.
func (s *Session) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return s.q.Exec(ctx, sql, args...)
}

// Query runs a query against the active schema.
func (s *Session) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return s.q.Query(ctx, sql, args...)
}

// QueryRow runs a single-row query against the active schema.
func (s *Session) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return s.q.QueryRow(ctx, sql, args...)
}

func (s *Session) switchTo(ctx context.Context, name string) error {
	target := name
	if IsPublic(target) {
		target = Public
	}

	var applied string
	err := s.q.QueryRow(ctx, switchSQL, SearchPath(target), s.local, target).Scan(&applied)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return errors.Join(ErrSwitchFailed, fmt.Errorf("%w: %s", ErrSchemaNotFound, target))
	case err != nil:
		return errors.Join(ErrSwitchFailed, err)
	}

	s.active = target
	return nil
}

// QuerierFromContext returns the session bound to ctx as a Querier.
func QuerierFromContext(ctx context.Context) (Querier, error) {
	s, ok := SessionFromContext(ctx)
	if !ok {
		return nil, ErrNoSession
	}
	return s, nil
}
