package registry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/marketplace/pkg/logger"
	"github.com/dmitrymomot/marketplace/pkg/pg"
	"github.com/dmitrymomot/marketplace/pkg/schema"
	"github.com/dmitrymomot/marketplace/pkg/tenant"
	"github.com/dmitrymomot/marketplace/pkg/validator"
)

// DB is satisfied by *pgxpool.Pool.
type DB interface {
	schema.Querier
	pg.TxBeginner
}

// Patch lists the editable tenant fields. Nil fields are left untouched.
// The schema name and creation date are not editable.
type Patch struct {
	Name           *string    `json:"name,omitempty"`
	Email          *string    `json:"email,omitempty"`
	Description    *string    `json:"description,omitempty"`
	Active         *bool      `json:"is_active,omitempty"`
	OnTrial        *bool      `json:"on_trial,omitempty"`
	PaidUntil      *time.Time `json:"paid_until,omitempty"`
	ClearPaidUntil bool       `json:"clear_paid_until,omitempty"`
}

// Validate checks the fields present in the patch.
func (p Patch) Validate() error {
	var rules []validator.Rule
	if p.Name != nil {
		rules = append(rules,
			validator.RequiredString("name", *p.Name),
			validator.MaxLenString("name", *p.Name, 100),
		)
	}
	if p.Email != nil {
		rules = append(rules, validator.ValidEmail("email", *p.Email))
	}
	if p.ClearPaidUntil && p.PaidUntil != nil {
		rules = append(rules, validator.Check("paid_until", func() error {
			return errors.New("conflicting paid_until values")
		}, "cannot be set and cleared at once"))
	}
	return validator.Apply(rules...)
}

// Store is the registry backed by the shared schema.
type Store struct {
	db     DB
	cache  tenant.Cache
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithCache lets the store evict hosts from the middleware cache when
// tenant or domain records change.
func WithCache(cache tenant.Cache) Option {
	return func(s *Store) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a registry store.
func New(db DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		cache:  tenant.NewNoOpCache(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetByDomain implements tenant.Provider.
func (s *Store) GetByDomain(ctx context.Context, host string) (*tenant.Tenant, error) {
	host, err := tenant.NormalizeHost(host)
	if err != nil || host == "" {
		return nil, tenant.ErrTenantNotFound
	}
	return NewQueries(s.db).TenantByDomain(ctx, host)
}

// GetTenant returns the tenant registered under name.
func (s *Store) GetTenant(ctx context.Context, name string) (*tenant.Tenant, error) {
	return NewQueries(s.db).Tenant(ctx, name)
}

// ListTenants returns every registered tenant.
func (s *Store) ListTenants(ctx context.Context) ([]*tenant.Tenant, error) {
	return NewQueries(s.db).Tenants(ctx)
}

// UpdateTenant edits the mutable fields of a tenant.
func (s *Store) UpdateTenant(ctx context.Context, name string, p Patch) (*tenant.Tenant, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	t, err := NewQueries(s.db).UpdateTenant(ctx, name, p)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tenant updated", slog.String("schema", name))
	s.Invalidate(ctx, name)
	return t, nil
}

// AddDomain binds a new host to an existing tenant.
func (s *Store) AddDomain(ctx context.Context, d tenant.Domain) (tenant.Domain, error) {
	host, err := tenant.NormalizeHost(d.Host)
	if err == nil {
		d.Host = host
	}
	if err := validator.Apply(
		validator.ValidDomainName("domain", d.Host),
		validator.RequiredString("tenant_schema", d.TenantSchema),
	); err != nil {
		return tenant.Domain{}, err
	}

	err = pg.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		return NewQueries(tx).InsertDomain(ctx, d)
	})
	if errors.Is(err, ErrDomainTaken) {
		return tenant.Domain{}, validator.NewError("domain", "domain is already registered", "validation.unique")
	}
	if err != nil {
		return tenant.Domain{}, err
	}

	s.logger.InfoContext(ctx, "domain added",
		slog.String("schema", d.TenantSchema), slog.String("domain", d.Host), slog.Bool("primary", d.IsPrimary))
	return d, nil
}

// ListDomains returns the domains of name, or all domains when name is empty.
func (s *Store) ListDomains(ctx context.Context, name string) ([]tenant.Domain, error) {
	return NewQueries(s.db).Domains(ctx, name)
}

// SetPrimaryDomain makes host the only primary domain of its tenant.
func (s *Store) SetPrimaryDomain(ctx context.Context, host string) error {
	if normalized, err := tenant.NormalizeHost(host); err == nil {
		host = normalized
	}
	if err := validator.Apply(validator.ValidDomainName("domain", host)); err != nil {
		return err
	}

	var owner string
	err := pg.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		var err error
		owner, err = NewQueries(tx).MakePrimary(ctx, host)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "primary domain changed", slog.String("schema", owner), slog.String("domain", host))
	return nil
}

// PrimaryDomains maps each tenant schema to its primary host.
func (s *Store) PrimaryDomains(ctx context.Context) (map[string]string, error) {
	domains, err := s.ListDomains(ctx, "")
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(domains))
	for _, d := range domains {
		if d.IsPrimary {
			out[d.TenantSchema] = d.Host
		}
	}
	return out, nil
}

// Invalidate evicts every host of name from the resolution cache.
func (s *Store) Invalidate(ctx context.Context, name string) {
	domains, err := s.ListDomains(ctx, name)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to list domains for cache eviction",
			slog.String("schema", name), logger.Error(err))
		return
	}
	s.InvalidateHosts(ctx, domains)
}

// InvalidateHosts evicts the given domains from the resolution cache.
func (s *Store) InvalidateHosts(ctx context.Context, domains []tenant.Domain) {
	for _, d := range domains {
		s.cache.Delete(ctx, d.Host)
	}
}
