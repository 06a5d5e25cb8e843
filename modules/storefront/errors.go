package storefront

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/marketplace/handler"
	"github.com/dmitrymomot/marketplace/pkg/media"
	"github.com/dmitrymomot/marketplace/pkg/schema"
	"github.com/dmitrymomot/marketplace/pkg/tenant"
	"github.com/dmitrymomot/marketplace/svc/catalog"
)

var (
	ErrTenantRequired = handler.HTTPError{Code: http.StatusNotFound, Key: "tenant_required"}
	ErrInvalidUpload  = handler.HTTPError{Code: http.StatusBadRequest, Key: "invalid_upload"}
	ErrFileTooLarge   = handler.HTTPError{Code: http.StatusRequestEntityTooLarge, Key: "file_too_large"}
	ErrTenantInactive = handler.HTTPError{Code: http.StatusForbidden, Key: "tenant_inactive"}
	ErrSchemaSwitch   = handler.HTTPError{Code: http.StatusInternalServerError, Key: "schema_switch_failed"}
)

// MapError translates domain errors raised behind storefront routes.
func MapError(err error) (handler.HTTPError, bool) {
	switch {
	case errors.Is(err, tenant.ErrNoTenantInContext), errors.Is(err, catalog.ErrNotInTenantSchema):
		return ErrTenantRequired, true
	case errors.Is(err, tenant.ErrInactiveTenant):
		return ErrTenantInactive, true
	case errors.Is(err, schema.ErrSwitchFailed):
		return ErrSchemaSwitch, true
	case errors.Is(err, media.ErrInvalidKey):
		return ErrInvalidUpload, true
	case errors.Is(err, media.ErrNotFound):
		return handler.ErrNotFound, true
	case errors.Is(err, media.ErrUnavailable):
		return handler.ErrServiceUnavailable, true
	}
	return handler.HTTPError{}, false
}
