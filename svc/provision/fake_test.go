package provision_test

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/dmitrymomot/marketplace/pkg/tenant"
	"github.com/dmitrymomot/marketplace/svc/provision"
	"github.com/dmitrymomot/marketplace/svc/registry"
)

// state is the committed content of the fake database.
type state struct {
	tenants map[string]tenant.Tenant
	domains map[string]tenant.Domain
	schemas map[string][]string // schema -> tables
}

func (s state) clone() state {
	out := state{
		tenants: maps.Clone(s.tenants),
		domains: maps.Clone(s.domains),
		schemas: make(map[string][]string, len(s.schemas)),
	}
	for k, v := range s.schemas {
		out.schemas[k] = slices.Clone(v)
	}
	return out
}

// memStore is a transactional in-memory Store. Each transaction works on a
// copy of the state which replaces the committed state only on success.
type memStore struct {
	mu      sync.Mutex
	db      state
	failOn  map[string]error
	commits int
}

func newMemStore() *memStore {
	return &memStore{
		db: state{
			tenants: map[string]tenant.Tenant{},
			domains: map[string]tenant.Domain{},
			schemas: map[string][]string{"public": {"tenants", "domains"}},
		},
		failOn: map[string]error{},
	}
}

func (m *memStore) fail(step string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn[step] = err
}

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx provision.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{store: m, st: m.db.clone()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.db = tx.st
	m.commits++
	return nil
}

func (m *memStore) Schemas(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOn["schemas"]; err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(m.db.tenants)), nil
}

func (m *memStore) snapshot() state {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.clone()
}

type memTx struct {
	store *memStore
	st    state
}

func (t *memTx) check(step string) error {
	return t.store.failOn[step]
}

func (t *memTx) TenantExists(ctx context.Context, name string) (bool, error) {
	_, ok := t.st.tenants[name]
	return ok, nil
}

func (t *memTx) DomainExists(ctx context.Context, host string) (bool, error) {
	_, ok := t.st.domains[host]
	return ok, nil
}

func (t *memTx) InsertTenant(ctx context.Context, ten *tenant.Tenant) error {
	if err := t.check("insert_tenant"); err != nil {
		return err
	}
	if _, ok := t.st.tenants[ten.SchemaName]; ok {
		return registry.ErrTenantExists
	}
	t.st.tenants[ten.SchemaName] = *ten
	return nil
}

func (t *memTx) InsertDomain(ctx context.Context, d tenant.Domain) error {
	if err := t.check("insert_domain"); err != nil {
		return err
	}
	if _, ok := t.st.domains[d.Host]; ok {
		return registry.ErrDomainTaken
	}
	if _, ok := t.st.tenants[d.TenantSchema]; !ok {
		return registry.ErrTenantNotFound
	}
	t.st.domains[d.Host] = d
	return nil
}

func (t *memTx) Domains(ctx context.Context, name string) ([]tenant.Domain, error) {
	var out []tenant.Domain
	for _, d := range t.st.domains {
		if d.TenantSchema == name {
			out = append(out, d)
		}
	}
	return out, nil
}

func (t *memTx) DeleteTenant(ctx context.Context, name string) error {
	if _, ok := t.st.tenants[name]; !ok {
		return registry.ErrTenantNotFound
	}
	delete(t.st.tenants, name)
	for host, d := range t.st.domains {
		if d.TenantSchema == name {
			delete(t.st.domains, host)
		}
	}
	return nil
}

func (t *memTx) CreateSchema(ctx context.Context, name string) error {
	if err := t.check("create_schema"); err != nil {
		return err
	}
	if _, ok := t.st.schemas[name]; !ok {
		t.st.schemas[name] = nil
	}
	return nil
}

func (t *memTx) DropSchema(ctx context.Context, name string) error {
	if err := t.check("drop_schema"); err != nil {
		return err
	}
	delete(t.st.schemas, name)
	return nil
}

func (t *memTx) ApplyEntities(ctx context.Context, name string, entities []provision.Entity) error {
	if err := t.check("apply:" + name); err != nil {
		return err
	}
	if err := t.check("apply"); err != nil {
		return err
	}
	tables, ok := t.st.schemas[name]
	if !ok {
		return errors.New("schema " + name + " does not exist")
	}
	for _, e := range entities {
		if !slices.Contains(tables, e.Name) {
			tables = append(tables, e.Name)
		}
	}
	t.st.schemas[name] = tables
	return nil
}

type fakeMedia struct {
	deleted []string
	err     error
}

func (f *fakeMedia) DeleteDir(ctx context.Context, dir string) error {
	f.deleted = append(f.deleted, dir)
	return f.err
}

type fakeInvalidator struct {
	hosts []string
}

func (f *fakeInvalidator) InvalidateHosts(ctx context.Context, domains []tenant.Domain) {
	for _, d := range domains {
		f.hosts = append(f.hosts, d.Host)
	}
}
