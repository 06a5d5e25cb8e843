package tenant

import (
	"context"
	"fmt"
	"time"
)

// NoTenant is reported in place of a tenant name when a request runs on the public schema.
const NoTenant = "No tenant"

// Tenant is a customer whose data lives in its own schema.
type Tenant struct {
	SchemaName  string     `json:"schema_name"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Description string     `json:"description"`
	Active      bool       `json:"is_active"`
	CreatedOn   time.Time  `json:"created_on"`
	OnTrial     bool       `json:"on_trial"`
	PaidUntil   *time.Time `json:"paid_until,omitempty"`
}

func (t *Tenant) String() string {
	return fmt.Sprintf("%s (Schema: %s)", t.Name, t.SchemaName)
}

// Domain maps a fully-qualified host name to the tenant that owns it.
type Domain struct {
	Host         string `json:"domain"`
	TenantSchema string `json:"tenant_schema"`
	IsPrimary    bool   `json:"is_primary"`
	SSLEnabled   bool   `json:"ssl_enabled"`
}

// DisplayName returns the tenant name or the NoTenant sentinel for nil.
func DisplayName(t *Tenant) string {
	if t == nil {
		return NoTenant
	}
	return t.Name
}

// Provider loads tenants by the host names bound to them.
type Provider interface {
	// GetByDomain returns the tenant owning host.
	// Returns ErrTenantNotFound if no domain record matches exactly.
	GetByDomain(ctx context.Context, host string) (*Tenant, error)
}

// ProviderFunc is an adapter to allow the use of ordinary functions as Providers.
type ProviderFunc func(ctx context.Context, host string) (*Tenant, error)

// GetByDomain calls f.
func (f ProviderFunc) GetByDomain(ctx context.Context, host string) (*Tenant, error) {
	return f(ctx, host)
}
