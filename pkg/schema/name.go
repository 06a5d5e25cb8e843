package schema

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// Public is the shared schema holding the tenant registry and domain map.
	Public = "public"

	// MaxNameLength is PostgreSQL's identifier limit (NAMEDATALEN - 1).
	MaxNameLength = 63
)

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// reserved holds identifiers that PostgreSQL or this service own.
var reserved = map[string]bool{
	Public:               true,
	"information_schema": true,
}

// ValidateName checks that name can be used as a tenant schema.
func ValidateName(name string) error {
	if name == "" || len(name) > MaxNameLength {
		return fmt.Errorf("%w: length must be between 1 and %d", ErrInvalidName, MaxNameLength)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q must start with a lowercase letter and contain only lowercase letters, digits and underscores", ErrInvalidName, name)
	}
	if IsReserved(name) {
		return fmt.Errorf("%w: %q", ErrReservedName, name)
	}
	return nil
}

// IsReserved reports whether name is reserved for the store or the shared schema.
func IsReserved(name string) bool {
	return reserved[name] || strings.HasPrefix(name, "pg_")
}

// IsPublic reports whether name denotes the shared schema.
func IsPublic(name string) bool {
	return name == "" || name == Public
}

// SearchPath builds the search_path value for the given schema.
// Tenant schemas keep public as a secondary entry so shared tables stay reachable.
func SearchPath(name string) string {
	if IsPublic(name) {
		return quoteIdent(Public)
	}
	return quoteIdent(name) + ", " + quoteIdent(Public)
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
