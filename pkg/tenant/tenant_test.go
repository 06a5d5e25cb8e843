package tenant_test

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/marketplace/pkg/schema"
	"github.com/dmitrymomot/marketplace/pkg/tenant"
)

// mockProvider implements tenant.Provider for testing.
type mockProvider struct {
	mu      sync.RWMutex
	domains map[string]*tenant.Tenant
	calls   int
	err     error
}

func newMockProvider() *mockProvider {
	return &mockProvider{domains: make(map[string]*tenant.Tenant)}
}

func (m *mockProvider) GetByDomain(ctx context.Context, host string) (*tenant.Tenant, error) {
	m.mu.Lock()
	m.calls++
	err := m.err
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	t, ok := m.domains[host]
	m.mu.RUnlock()

	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	return t, nil
}

func (m *mockProvider) addDomain(host string, t *tenant.Tenant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.domains[host] = t
}

func (m *mockProvider) removeDomain(host string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.domains, host)
}

func (m *mockProvider) setError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *mockProvider) getCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

func createTestTenant(schemaName string, active bool) *tenant.Tenant {
	return &tenant.Tenant{
		SchemaName: schemaName,
		Name:       schemaName + " Store",
		Email:      "admin@" + schemaName + ".local",
		Active:     active,
		CreatedOn:  time.Now().Truncate(24 * time.Hour),
		OnTrial:    true,
	}
}

// fakePool hands out fake connections that track search_path per connection.
type fakePool struct {
	mu       sync.Mutex
	schemas  map[string]bool
	conns    []*fakeConn
	err      error
	failNext map[string]error
}

func newFakePool(schemas ...string) *fakePool {
	p := &fakePool{schemas: map[string]bool{"public": true}, failNext: map[string]error{}}
	for _, s := range schemas {
		p.schemas[s] = true
	}
	return p
}

func (p *fakePool) Acquire(ctx context.Context) (schema.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	c := &fakeConn{pool: p, current: "public"}
	p.conns = append(p.conns, c)
	return c, nil
}

func (p *fakePool) failSwitch(target string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failNext[target] = err
}

func (p *fakePool) dropSchema(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.schemas, name)
}

func (p *fakePool) snapshot() []*fakeConn {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*fakeConn(nil), p.conns...)
}

type fakeConn struct {
	pool      *fakePool
	mu        sync.Mutex
	current   string
	released  bool
	destroyed bool
}

func (c *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (c *fakeConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

func (c *fakeConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	target, _ := args[2].(string)

	c.pool.mu.Lock()
	err, fail := c.pool.failNext[target]
	exists := c.pool.schemas[target]
	c.pool.mu.Unlock()

	if fail {
		return fakeRow{err: err}
	}
	if !exists {
		return fakeRow{err: pgx.ErrNoRows}
	}

	c.mu.Lock()
	c.current = target
	c.mu.Unlock()
	return fakeRow{}
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

func (c *fakeConn) state() (string, bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.released, c.destroyed
}

type fakeRow struct {
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if p, ok := dest[0].(*string); ok {
		*p = "ok"
	}
	return nil
}
