package schema_test

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeConn emulates the search_path behaviour of a PostgreSQL connection.
type fakeConn struct {
	mu        sync.Mutex
	schemas   map[string]bool
	current   string
	history   []string
	local     []bool
	failOn    map[string]error
	released  bool
	destroyed bool
}

func newFakeConn(schemas ...string) *fakeConn {
	c := &fakeConn{
		schemas: map[string]bool{"public": true},
		current: "public",
		failOn:  map[string]error{},
	}
	for _, s := range schemas {
		c.schemas[s] = true
	}
	return c
}

func (c *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (c *fakeConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (c *fakeConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fakeRow{err: err}
	}
	path, _ := args[0].(string)
	local, _ := args[1].(bool)
	target, _ := args[2].(string)

	if err, ok := c.failOn[target]; ok {
		return fakeRow{err: err}
	}
	if !c.schemas[target] {
		return fakeRow{err: pgx.ErrNoRows}
	}
	c.current = target
	c.history = append(c.history, target)
	c.local = append(c.local, local)
	return fakeRow{value: path}
}

func (c *fakeConn) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.released = true
}

func (c *fakeConn) Destroy(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.destroyed = true
	return nil
}

func (c *fakeConn) fail(target string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failOn[target] = err
}

func (c *fakeConn) active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

type fakeRow struct {
	value string
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if p, ok := dest[0].(*string); ok {
		*p = r.value
	}
	return nil
}
