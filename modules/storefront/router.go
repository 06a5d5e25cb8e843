package storefront

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/marketplace/handler"
	"github.com/dmitrymomot/marketplace/pkg/tenant"
)

// Registrar adds a service's routes to a router.
type Registrar interface {
	Register(r chi.Router, eh handler.ErrorHandler[handler.Context])
}

// RouterOptions selects the services to expose. Nil services are skipped.
type RouterOptions struct {
	// Info routes answer on every host, including the public schema.
	Info Registrar

	// Tenant-only routes answer 404 when the host maps to no tenant.
	Catalog Registrar
	Media   Registrar
}

// Router builds the storefront router. A nil error handler defaults to the
// JSON error handler with the storefront error mapping.
func Router(opts RouterOptions, eh handler.ErrorHandler[handler.Context]) chi.Router {
	if eh == nil {
		eh = handler.NewErrorHandler(nil, MapError)
	}

	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		eh(handler.NewContext(w, req), handler.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		eh(handler.NewContext(w, req), handler.ErrMethodNotAllowed)
	})

	if opts.Info != nil {
		opts.Info.Register(r, eh)
	}

	r.Group(func(r chi.Router) {
		r.Use(tenant.RequireTenant(func(w http.ResponseWriter, req *http.Request, err error) {
			eh(handler.NewContext(w, req), err)
		}))
		for _, svc := range []Registrar{opts.Catalog, opts.Media} {
			if svc != nil {
				svc.Register(r, eh)
			}
		}
	})

	return r
}

// route adapts a typed handler to the storefront error handler.
func route[R any](h handler.HandlerFunc[handler.Context, R], eh handler.ErrorHandler[handler.Context], binders ...handler.Bind) http.HandlerFunc {
	return handler.Wrap(h,
		handler.WithErrorHandler[handler.Context, R](eh),
		handler.WithBinders[handler.Context, R](binders...),
	)
}
