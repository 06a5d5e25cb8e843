package storefront_test

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/marketplace/pkg/schema"
	"github.com/dmitrymomot/marketplace/pkg/tenant"
	"github.com/dmitrymomot/marketplace/svc/catalog"
)

type fakeRow struct {
	value string
	n     int64
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	switch p := dest[0].(type) {
	case *string:
		*p = r.value
	case *int64:
		*p = r.n
	}
	return nil
}

// tableCounts holds row counts keyed by schema-qualified table.
var tableCounts = map[string]int64{
	"techstore.products": 3,
	"fashion.products":   2,
	"public.tenants":     3,
}

// fakeConn tracks search_path the way a PostgreSQL session does.
type fakeConn struct {
	mu      sync.Mutex
	schemas map[string]bool
	path    string
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

	if strings.HasPrefix(sql, "SHOW search_path") {
		return fakeRow{value: c.path}
	}
	if table, ok := strings.CutPrefix(sql, "SELECT count(*) FROM "); ok {
		if !strings.Contains(table, ".") {
			first, _, _ := strings.Cut(c.path, ",")
			table = strings.Trim(first, `"`) + "." + table
		}
		n, ok := tableCounts[table]
		if !ok {
			return fakeRow{err: errors.New("relation " + table + " does not exist")}
		}
		return fakeRow{n: n}
	}
	target, _ := args[2].(string)
	if !c.schemas[target] {
		return fakeRow{err: pgx.ErrNoRows}
	}
	c.path, _ = args[0].(string)
	return fakeRow{value: c.path}
}

func (c *fakeConn) Release()                          {}
func (c *fakeConn) Destroy(ctx context.Context) error { return nil }

func newSource(schemas ...string) schema.Source {
	known := map[string]bool{schema.Public: true}
	for _, s := range schemas {
		known[s] = true
	}
	return schema.SourceFunc(func(ctx context.Context) (schema.Conn, error) {
		return &fakeConn{schemas: known, path: schema.SearchPath(schema.Public)}, nil
	})
}

type fakeDirectory struct {
	tenants []*tenant.Tenant
	primary map[string]string
	err     error
}

func (d *fakeDirectory) ListTenants(ctx context.Context) ([]*tenant.Tenant, error) {
	return d.tenants, d.err
}

func (d *fakeDirectory) PrimaryDomains(ctx context.Context) (map[string]string, error) {
	return d.primary, d.err
}

func (d *fakeDirectory) GetByDomain(ctx context.Context, host string) (*tenant.Tenant, error) {
	for _, t := range d.tenants {
		if d.primary[t.SchemaName] == host {
			return t, nil
		}
	}
	return nil, tenant.ErrTenantNotFound
}

// fakeCatalog records the schema each call ran in.
type fakeCatalog struct {
	mu       sync.Mutex
	schemas  []string
	products map[string][]catalog.Product
	err      error
}

func (c *fakeCatalog) seen(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name := schema.FromContext(ctx)
	c.schemas = append(c.schemas, name)
	if c.err != nil {
		return "", c.err
	}
	if schema.IsPublic(name) {
		return "", catalog.ErrNotInTenantSchema
	}
	return name, nil
}

func (c *fakeCatalog) Summary(ctx context.Context) (*catalog.Summary, error) {
	name, err := c.seen(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	sum := &catalog.Summary{Schema: name, Products: c.products[name]}
	sum.Counts.Products = len(sum.Products)
	return sum, nil
}

func (c *fakeCatalog) CreateProduct(ctx context.Context, in catalog.NewProduct) (*catalog.Product, error) {
	name, err := c.seen(ctx)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	p := catalog.Product{ID: int64(len(c.products[name]) + 1), Name: in.Name, Price: in.Price}
	if c.products == nil {
		c.products = map[string][]catalog.Product{}
	}
	c.products[name] = append(c.products[name], p)
	return &p, nil
}

func (c *fakeCatalog) CreateOrder(ctx context.Context, in catalog.NewOrder) (*catalog.Order, error) {
	if _, err := c.seen(ctx); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return &catalog.Order{ID: 1, OrderNumber: in.OrderNumber, TotalAmount: in.TotalAmount}, nil
}
