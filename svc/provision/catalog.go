package provision

// Scope tells which schema an entity's table lives in.
type Scope string

const (
	// ScopeShared tables live once in the public schema.
	ScopeShared Scope = "shared"
	// ScopeTenant tables are created inside every tenant schema.
	ScopeTenant Scope = "tenant"
)

// Entity is a table together with its scope. DDL is applied with the target
// schema active, so statements must use unqualified names and be idempotent.
type Entity struct {
	Name  string   `json:"name"`
	Scope Scope    `json:"scope"`
	DDL   []string `json:"-"`
}

// Entities is the static scope table. Shared tables are owned by the
// migrations of the public schema and carry no DDL here.
var Entities = []Entity{
	{Name: "tenants", Scope: ScopeShared},
	{Name: "domains", Scope: ScopeShared},
	{
		Name:  "products",
		Scope: ScopeTenant,
		DDL: []string{
			`CREATE TABLE IF NOT EXISTS products (
				id         BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
				name       VARCHAR(100)   NOT NULL,
				price      NUMERIC(10, 2) NOT NULL CHECK (price >= 0),
				created_at TIMESTAMPTZ    NOT NULL DEFAULT now()
			)`,
		},
	},
	{
		Name:  "orders",
		Scope: ScopeTenant,
		DDL: []string{
			`CREATE TABLE IF NOT EXISTS orders (
				id           BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
				order_number VARCHAR(50)    NOT NULL UNIQUE,
				total_amount NUMERIC(10, 2) NOT NULL CHECK (total_amount >= 0),
				created_at   TIMESTAMPTZ    NOT NULL DEFAULT now()
			)`,
		},
	},
}

// TenantEntities returns the entities created inside each tenant schema.
func TenantEntities() []Entity {
	return entitiesIn(ScopeTenant)
}

// SharedEntities returns the entities of the public schema.
func SharedEntities() []Entity {
	return entitiesIn(ScopeShared)
}

// ScopeOf returns the scope of the named entity.
func ScopeOf(name string) (Scope, bool) {
	for _, e := range Entities {
		if e.Name == name {
			return e.Scope, true
		}
	}
	return "", false
}

func entitiesIn(scope Scope) []Entity {
	var out []Entity
	for _, e := range Entities {
		if e.Scope == scope {
			out = append(out, e)
		}
	}
	return out
}
