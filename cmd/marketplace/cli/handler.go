package cli

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/marketplace/handler"
	"github.com/dmitrymomot/marketplace/modules/storefront"
	"github.com/dmitrymomot/marketplace/pkg/clientip"
	"github.com/dmitrymomot/marketplace/pkg/environment"
	"github.com/dmitrymomot/marketplace/pkg/httpserver"
	"github.com/dmitrymomot/marketplace/pkg/logger"
	"github.com/dmitrymomot/marketplace/pkg/media"
	"github.com/dmitrymomot/marketplace/pkg/requestid"
	"github.com/dmitrymomot/marketplace/pkg/schema"
	"github.com/dmitrymomot/marketplace/pkg/tenant"
)

// readinessTimeout bounds all readiness checks together.
const readinessTimeout = 3 * time.Second

// Registry is the tenant registry the HTTP stack reads from.
type Registry interface {
	tenant.Provider
	storefront.Directory
}

// Deps are the collaborators of the HTTP handler.
type Deps struct {
	Env        environment.Environment
	TrustProxy bool
	Logger     *slog.Logger
	Registry   Registry
	Source     schema.Source
	Catalog    storefront.Catalog
	Media      media.Storage
	// MediaConfig selects the upload limit and the public URL of local files.
	MediaConfig media.Config
	// TenantOptions are appended to the tenant middleware defaults.
	TenantOptions []tenant.Option
	Checks        map[string]httpserver.Check
}

// NewHandler assembles the HTTP stack: request id, panic recovery and
// environment for every route; health checks and local media files outside
// the tenant scope; the storefront behind the tenant middleware.
func NewHandler(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = logger.Discard()
	}
	eh := handler.NewErrorHandler(log.With(logger.Component("http")), storefront.MapError)

	r := chi.NewRouter()
	r.Use(
		requestid.Middleware,
		clientip.Middleware(d.TrustProxy),
		middleware.Recoverer,
		middleware.StripSlashes,
		environment.Middleware(d.Env),
	)

	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(log, readinessTimeout, d.Checks))

	if local, ok := d.Media.(*media.LocalStorage); ok {
		prefix := "/" + strings.Trim(d.MediaConfig.BaseURL, "/") + "/"
		if prefix != "//" {
			files := http.StripPrefix(prefix, http.FileServer(http.Dir(local.BaseDir())))
			r.Handle(prefix+"*", files)
		}
	}

	tenantOpts := append([]tenant.Option{
		tenant.WithLogger(log.With(logger.Component("tenant"))),
		tenant.WithErrorHandler(func(w http.ResponseWriter, req *http.Request, err error) {
			eh(handler.NewContext(w, req), err)
		}),
	}, d.TenantOptions...)

	r.Group(func(r chi.Router) {
		r.Use(tenant.Middleware(d.Registry, d.Source, tenantOpts...))
		r.Mount("/", storefront.Router(storefront.RouterOptions{
			Info: storefront.NewInfoService(d.Registry, d.Media, storefront.Settings{
				MediaBackend: d.MediaConfig.Backend,
			}, log),
			Catalog: storefront.NewCatalogService(d.Catalog),
			Media:   storefront.NewMediaService(d.Media, d.MediaConfig.MaxUploadSize),
		}, eh))
	})

	return r
}
