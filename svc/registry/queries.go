package registry

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/marketplace/pkg/pg"
	"github.com/dmitrymomot/marketplace/pkg/schema"
	"github.com/dmitrymomot/marketplace/pkg/tenant"
)

const tenantColumns = `t.schema_name, t.name, t.email, t.description, t.is_active, t.created_on, t.on_trial, t.paid_until`

const domainColumns = `d.domain, d.tenant_schema, d.is_primary, d.ssl_enabled`

// Queries runs registry statements on a connection, pool or transaction.
// Every table is schema-qualified, so results do not depend on search_path.
type Queries struct {
	q schema.Querier
}

// NewQueries binds the statements to q.
func NewQueries(q schema.Querier) *Queries {
	return &Queries{q: q}
}

// TenantByDomain returns the tenant owning host. host must already be normalized.
func (q *Queries) TenantByDomain(ctx context.Context, host string) (*tenant.Tenant, error) {
	row := q.q.QueryRow(ctx, `SELECT `+tenantColumns+`
		FROM public.domains d JOIN public.tenants t ON t.schema_name = d.tenant_schema
		WHERE d.domain = $1`, host)

	t, err := scanTenant(row)
	if pg.IsNotFoundError(err) {
		return nil, tenant.ErrTenantNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrStoreFailed, err)
	}
	return t, nil
}

// Tenant returns the tenant registered under name.
func (q *Queries) Tenant(ctx context.Context, name string) (*tenant.Tenant, error) {
	row := q.q.QueryRow(ctx, `SELECT `+tenantColumns+` FROM public.tenants t WHERE t.schema_name = $1`, name)

	t, err := scanTenant(row)
	if pg.IsNotFoundError(err) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrStoreFailed, err)
	}
	return t, nil
}

// Tenants returns every tenant ordered by schema name.
func (q *Queries) Tenants(ctx context.Context) ([]*tenant.Tenant, error) {
	rows, err := q.q.Query(ctx, `SELECT `+tenantColumns+` FROM public.tenants t ORDER BY t.schema_name`)
	if err != nil {
		return nil, errors.Join(ErrStoreFailed, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*tenant.Tenant, error) {
		return scanTenant(row)
	})
	if err != nil {
		return nil, errors.Join(ErrStoreFailed, err)
	}
	return out, nil
}

// TenantExists reports whether name is registered.
func (q *Queries) TenantExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := q.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM public.tenants WHERE schema_name = $1)`, name).Scan(&exists)
	if err != nil {
		return false, errors.Join(ErrStoreFailed, err)
	}
	return exists, nil
}

// DomainExists reports whether host is bound to any tenant.
func (q *Queries) DomainExists(ctx context.Context, host string) (bool, error) {
	var exists bool
	err := q.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM public.domains WHERE domain = $1)`, host).Scan(&exists)
	if err != nil {
		return false, errors.Join(ErrStoreFailed, err)
	}
	return exists, nil
}

// InsertTenant registers t. CreatedOn is assigned by the store when zero.
func (q *Queries) InsertTenant(ctx context.Context, t *tenant.Tenant) error {
	var createdOn *time.Time
	if !t.CreatedOn.IsZero() {
		createdOn = &t.CreatedOn
	}

	err := q.q.QueryRow(ctx, `INSERT INTO public.tenants
		(schema_name, name, email, description, is_active, created_on, on_trial, paid_until)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, CURRENT_DATE), $7, $8)
		RETURNING created_on`,
		t.SchemaName, t.Name, t.Email, t.Description, t.Active, createdOn, t.OnTrial, t.PaidUntil,
	).Scan(&t.CreatedOn)
	if pg.IsDuplicateKeyError(err) {
		return errors.Join(ErrTenantExists, err)
	}
	if err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

// InsertDomain binds d.Host to d.TenantSchema. A primary domain demotes the
// tenant's other domains first.
func (q *Queries) InsertDomain(ctx context.Context, d tenant.Domain) error {
	if d.IsPrimary {
		if err := q.demote(ctx, d.TenantSchema); err != nil {
			return err
		}
	}

	_, err := q.q.Exec(ctx, `INSERT INTO public.domains (domain, tenant_schema, is_primary, ssl_enabled)
		VALUES ($1, $2, $3, $4)`, d.Host, d.TenantSchema, d.IsPrimary, d.SSLEnabled)
	switch {
	case pg.IsDuplicateKeyError(err):
		return errors.Join(ErrDomainTaken, err)
	case pg.IsForeignKeyViolationError(err):
		return errors.Join(ErrTenantNotFound, err)
	case err != nil:
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

// Domains returns the domains of name, or of every tenant when name is empty.
func (q *Queries) Domains(ctx context.Context, name string) ([]tenant.Domain, error) {
	rows, err := q.q.Query(ctx, `SELECT `+domainColumns+` FROM public.domains d
		WHERE $1::text = '' OR d.tenant_schema = $1
		ORDER BY d.tenant_schema, d.is_primary DESC, d.domain`, name)
	if err != nil {
		return nil, errors.Join(ErrStoreFailed, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (tenant.Domain, error) {
		var d tenant.Domain
		err := row.Scan(&d.Host, &d.TenantSchema, &d.IsPrimary, &d.SSLEnabled)
		return d, err
	})
	if err != nil {
		return nil, errors.Join(ErrStoreFailed, err)
	}
	return out, nil
}

// MakePrimary marks host as the primary domain of its tenant and returns that tenant's schema.
func (q *Queries) MakePrimary(ctx context.Context, host string) (string, error) {
	var owner string
	err := q.q.QueryRow(ctx, `SELECT tenant_schema FROM public.domains WHERE domain = $1 FOR UPDATE`, host).Scan(&owner)
	if pg.IsNotFoundError(err) {
		return "", ErrDomainNotFound
	}
	if err != nil {
		return "", errors.Join(ErrStoreFailed, err)
	}

	if err := q.demote(ctx, owner); err != nil {
		return "", err
	}
	if _, err := q.q.Exec(ctx, `UPDATE public.domains SET is_primary = TRUE WHERE domain = $1`, host); err != nil {
		return "", errors.Join(ErrStoreFailed, err)
	}
	return owner, nil
}

// UpdateTenant applies p to the tenant registered under name.
func (q *Queries) UpdateTenant(ctx context.Context, name string, p Patch) (*tenant.Tenant, error) {
	row := q.q.QueryRow(ctx, `UPDATE public.tenants t SET
			name        = COALESCE($2, t.name),
			email       = COALESCE($3, t.email),
			description = COALESCE($4, t.description),
			is_active   = COALESCE($5, t.is_active),
			on_trial    = COALESCE($6, t.on_trial),
			paid_until  = CASE WHEN $8::boolean THEN NULL ELSE COALESCE($7, t.paid_until) END
		WHERE t.schema_name = $1
		RETURNING `+tenantColumns,
		name, p.Name, p.Email, p.Description, p.Active, p.OnTrial, p.PaidUntil, p.ClearPaidUntil,
	)

	t, err := scanTenant(row)
	if pg.IsNotFoundError(err) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrStoreFailed, err)
	}
	return t, nil
}

// DeleteTenant removes the tenant record. Its domains cascade.
func (q *Queries) DeleteTenant(ctx context.Context, name string) error {
	tag, err := q.q.Exec(ctx, `DELETE FROM public.tenants WHERE schema_name = $1`, name)
	if err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

func (q *Queries) demote(ctx context.Context, name string) error {
	_, err := q.q.Exec(ctx, `UPDATE public.domains SET is_primary = FALSE WHERE tenant_schema = $1 AND is_primary`, name)
	if err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

func scanTenant(row pgx.Row) (*tenant.Tenant, error) {
	var t tenant.Tenant
	err := row.Scan(&t.SchemaName, &t.Name, &t.Email, &t.Description, &t.Active, &t.CreatedOn, &t.OnTrial, &t.PaidUntil)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
