package provision

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/marketplace/pkg/logger"
	"github.com/dmitrymomot/marketplace/pkg/media"
	"github.com/dmitrymomot/marketplace/pkg/schema"
	"github.com/dmitrymomot/marketplace/pkg/tenant"
	"github.com/dmitrymomot/marketplace/pkg/validator"
	"github.com/dmitrymomot/marketplace/svc/registry"
)

// Params describes a tenant to create.
type Params struct {
	Name        string     `json:"name" yaml:"name"`
	Email       string     `json:"email" yaml:"email"`
	SchemaName  string     `json:"schema_name" yaml:"schema"`
	Domain      string     `json:"domain" yaml:"domain"`
	Description string     `json:"description" yaml:"description"`
	OnTrial     bool       `json:"on_trial" yaml:"on_trial"`
	PaidUntil   *time.Time `json:"paid_until,omitempty" yaml:"paid_until"`
}

// normalize trims input and lowercases identifiers.
func (p Params) normalize() Params {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.SchemaName = strings.ToLower(strings.TrimSpace(p.SchemaName))
	p.Description = strings.TrimSpace(p.Description)
	if host, err := tenant.NormalizeHost(p.Domain); err == nil {
		p.Domain = host
	}
	return p
}

// Validate checks the field formats. Uniqueness is checked by Provision.
func (p Params) Validate() error {
	return validator.Apply(
		validator.RequiredString("name", p.Name),
		validator.MaxLenString("name", p.Name, 100),
		validator.ValidEmail("email", p.Email),
		validator.Check("schema_name", func() error { return schema.ValidateName(p.SchemaName) },
			"must start with a lowercase letter, contain only lowercase letters, digits and underscores, and not be reserved"),
		validator.ValidDomainName("domain", p.Domain),
	)
}

// Result is the outcome of a successful provisioning.
type Result struct {
	Tenant *tenant.Tenant `json:"tenant"`
	Domain tenant.Domain  `json:"domain"`
}

// MediaStore removes a tenant's stored files.
type MediaStore interface {
	DeleteDir(ctx context.Context, dir string) error
}

// CacheInvalidator evicts hosts from the tenant resolution cache.
type CacheInvalidator interface {
	InvalidateHosts(ctx context.Context, domains []tenant.Domain)
}

// Service provisions and removes tenants.
type Service struct {
	store  Store
	media  MediaStore
	cache  CacheInvalidator
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithMedia removes tenant media on deprovisioning.
func WithMedia(m MediaStore) Option {
	return func(s *Service) { s.media = m }
}

// WithCacheInvalidator evicts removed hosts from the resolution cache.
func WithCacheInvalidator(c CacheInvalidator) Option {
	return func(s *Service) { s.cache = c }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a provisioning service.
func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Provision registers a tenant, creates its schema and tables and binds its
// primary domain in one transaction.
func (s *Service) Provision(ctx context.Context, p Params) (*Result, error) {
	p = p.normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	t := &tenant.Tenant{
		SchemaName:  p.SchemaName,
		Name:        p.Name,
		Email:       p.Email,
		Description: p.Description,
		Active:      true,
		OnTrial:     p.OnTrial,
		PaidUntil:   p.PaidUntil,
	}
	d := tenant.Domain{Host: p.Domain, TenantSchema: p.SchemaName, IsPrimary: true}

	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := checkUnique(ctx, tx, p); err != nil {
			return err
		}
		if err := tx.InsertTenant(ctx, t); err != nil {
			return err
		}
		if err := tx.CreateSchema(ctx, t.SchemaName); err != nil {
			return err
		}
		if err := tx.ApplyEntities(ctx, t.SchemaName, TenantEntities()); err != nil {
			return err
		}
		return tx.InsertDomain(ctx, d)
	})
	if err != nil {
		if verrs := uniqueViolation(err); verrs != nil {
			return nil, verrs
		}
		s.logger.ErrorContext(ctx, "failed to provision tenant",
			slog.String("schema", p.SchemaName), logger.Error(err))
		return nil, errors.Join(ErrProvisionFailed, err)
	}

	s.logger.InfoContext(ctx, "tenant provisioned",
		slog.String("schema", t.SchemaName), slog.String("domain", d.Host))
	return &Result{Tenant: t, Domain: d}, nil
}

func checkUnique(ctx context.Context, tx Tx, p Params) error {
	var verrs validator.ValidationErrors

	exists, err := tx.TenantExists(ctx, p.SchemaName)
	if err != nil {
		return err
	}
	if exists {
		verrs = append(verrs, validator.NewError("schema_name", "tenant with this schema name already exists", "validation.unique")...)
	}

	exists, err = tx.DomainExists(ctx, p.Domain)
	if err != nil {
		return err
	}
	if exists {
		verrs = append(verrs, validator.NewError("domain", "domain is already registered", "validation.unique")...)
	}

	if verrs.IsEmpty() {
		return nil
	}
	return verrs
}

// uniqueViolation maps uniqueness failures, including those caught by the
// store's constraints under concurrent provisioning, to field errors.
func uniqueViolation(err error) validator.ValidationErrors {
	if verrs := validator.ExtractValidationErrors(err); verrs != nil {
		return verrs
	}
	switch {
	case errors.Is(err, registry.ErrTenantExists):
		return validator.NewError("schema_name", "tenant with this schema name already exists", "validation.unique")
	case errors.Is(err, registry.ErrDomainTaken):
		return validator.NewError("domain", "domain is already registered", "validation.unique")
	}
	return nil
}

// Deprovision irreversibly deletes a tenant, its domains, its schema with
// all data, and its media. confirm must equal name.
func (s *Service) Deprovision(ctx context.Context, name, confirm string) error {
	if confirm != name {
		return ErrConfirmationMismatch
	}
	if err := schema.ValidateName(name); err != nil {
		return err
	}

	var domains []tenant.Domain
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		if domains, err = tx.Domains(ctx, name); err != nil {
			return err
		}
		if err := tx.DeleteTenant(ctx, name); err != nil {
			return err
		}
		return tx.DropSchema(ctx, name)
	})
	if errors.Is(err, registry.ErrTenantNotFound) {
		return registry.ErrTenantNotFound
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to deprovision tenant", slog.String("schema", name), logger.Error(err))
		return errors.Join(ErrDeprovisionFailed, err)
	}

	if s.cache != nil {
		s.cache.InvalidateHosts(ctx, domains)
	}
	s.logger.WarnContext(ctx, "tenant deprovisioned", slog.String("schema", name), slog.Int("domains", len(domains)))

	if s.media != nil {
		if err := s.media.DeleteDir(ctx, media.TenantDir(name)); err != nil {
			s.logger.ErrorContext(ctx, "failed to remove tenant media", slog.String("schema", name), logger.Error(err))
			return errors.Join(ErrMediaCleanupFailed, err)
		}
	}
	return nil
}

// SyncSchemas applies the tenant-scoped entities to every registered schema.
// Each schema is synced in its own transaction; failures are collected and
// do not stop the remaining schemas.
func (s *Service) SyncSchemas(ctx context.Context) ([]string, error) {
	names, err := s.store.Schemas(ctx)
	if err != nil {
		return nil, errors.Join(ErrSyncFailed, err)
	}

	var (
		synced []string
		errs   []error
	)
	for _, name := range names {
		err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
			return tx.ApplyEntities(ctx, name, TenantEntities())
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to sync tenant schema", slog.String("schema", name), logger.Error(err))
			errs = append(errs, err)
			continue
		}
		synced = append(synced, name)
	}

	if len(errs) > 0 {
		return synced, errors.Join(append([]error{ErrSyncFailed}, errs...)...)
	}
	s.logger.InfoContext(ctx, "tenant schemas synced", slog.Int("count", len(synced)))
	return synced, nil
}
