package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/marketplace/pkg/pg"
	"github.com/dmitrymomot/marketplace/pkg/schema"
	"github.com/dmitrymomot/marketplace/pkg/tenant"
	"github.com/dmitrymomot/marketplace/svc/registry"
)

// Store runs provisioning steps inside transactions.
type Store interface {
	// WithTx commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Schemas lists the schema names of all registered tenants.
	Schemas(ctx context.Context) ([]string, error)
}

// Tx is the set of statements a provisioning transaction can run.
type Tx interface {
	TenantExists(ctx context.Context, name string) (bool, error)
	DomainExists(ctx context.Context, host string) (bool, error)
	InsertTenant(ctx context.Context, t *tenant.Tenant) error
	InsertDomain(ctx context.Context, d tenant.Domain) error
	Domains(ctx context.Context, name string) ([]tenant.Domain, error)
	DeleteTenant(ctx context.Context, name string) error
	CreateSchema(ctx context.Context, name string) error
	DropSchema(ctx context.Context, name string) error
	// ApplyEntities runs the DDL of entities with name as the active schema.
	ApplyEntities(ctx context.Context, name string, entities []Entity) error
}

// PGStore is the PostgreSQL Store.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a Store on pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// WithTx implements Store.
func (s *PGStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return pg.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTx{Queries: registry.NewQueries(tx), tx: tx})
	})
}

// Schemas implements Store.
func (s *PGStore) Schemas(ctx context.Context) ([]string, error) {
	tenants, err := registry.NewQueries(s.pool).Tenants(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(tenants))
	for _, t := range tenants {
		names = append(names, t.SchemaName)
	}
	return names, nil
}

type pgTx struct {
	*registry.Queries
	tx pgx.Tx
}

func (t *pgTx) CreateSchema(ctx context.Context, name string) error {
	if err := schema.ValidateName(name); err != nil {
		return err
	}
	_, err := t.tx.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{name}.Sanitize())
	return err
}

func (t *pgTx) DropSchema(ctx context.Context, name string) error {
	if err := schema.ValidateName(name); err != nil {
		return err
	}
	_, err := t.tx.Exec(ctx, "DROP SCHEMA IF EXISTS "+pgx.Identifier{name}.Sanitize()+" CASCADE")
	return err
}

func (t *pgTx) ApplyEntities(ctx context.Context, name string, entities []Entity) error {
	// The switch is transaction-local, so it cannot leak past commit or rollback.
	return schema.NewTxSession(t.tx).Run(ctx, name, func(ctx context.Context) error {
		for _, e := range entities {
			for _, ddl := range e.DDL {
				if _, err := t.tx.Exec(ctx, ddl); err != nil {
					return errors.Join(fmt.Errorf("apply %s to %s", e.Name, name), err)
				}
			}
		}
		return nil
	})
}
