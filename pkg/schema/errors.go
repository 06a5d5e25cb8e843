package schema

import "errors"

var (
	// ErrInvalidName is returned when a schema identifier violates the naming grammar.
	ErrInvalidName = errors.New("invalid schema name")

	// ErrReservedName is returned for identifiers that can never belong to a tenant.
	ErrReservedName = errors.New("reserved schema name")

	// ErrSchemaNotFound is returned when the target schema does not exist in the store.
	ErrSchemaNotFound = errors.New("schema not found")

	// ErrSwitchFailed is returned when the active schema could not be established.
	ErrSwitchFailed = errors.New("failed to switch schema")

	// ErrRestoreFailed is returned when the previous schema could not be restored.
	// The underlying connection must not be reused after this error.
	ErrRestoreFailed = errors.New("failed to restore schema")

	// ErrNoSession is returned when no session is bound to the context.
	ErrNoSession = errors.New("no schema session in context")
)
