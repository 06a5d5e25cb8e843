package cli

import (
	"context"
	"log/slog"
	"net"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/marketplace/pkg/environment"
	"github.com/dmitrymomot/marketplace/pkg/httpserver"
	"github.com/dmitrymomot/marketplace/pkg/pg"
	"github.com/dmitrymomot/marketplace/pkg/redis"
	"github.com/dmitrymomot/marketplace/pkg/tenant"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the HTTP server. Each request runs in the schema of the tenant owning its host.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), runServer)
	},
}

func runServer(ctx context.Context, a *app) error {
	checks := map[string]httpserver.Check{"postgres": pg.Healthcheck(a.pool)}
	if a.redis != nil {
		checks["redis"] = redis.Healthcheck(a.redis)
	}

	opts := []tenant.Option{
		tenant.WithCache(a.cache),
		tenant.WithCacheTTL(a.cfg.TenantCacheTTL),
	}
	if h := a.cfg.ForwardedHostHeader; h != "" {
		opts = append(opts, tenant.WithResolver(tenant.NewForwardedHostResolver(h)))
	}

	h := NewHandler(Deps{
		Env:           environment.Parse(a.cfg.AppEnv),
		TrustProxy:    a.cfg.TrustProxy,
		Logger:        a.log,
		Registry:      a.registry,
		Source:        a.source(),
		Catalog:       a.catalog(),
		Media:         a.media,
		MediaConfig:   a.cfg.Media,
		TenantOptions: opts,
		Checks:        checks,
	})

	srv := httpserver.New(a.cfg.HTTP,
		httpserver.WithLogger(a.log),
		httpserver.WithListenHook(func(addr net.Addr) {
			a.log.InfoContext(ctx, "serving marketplace",
				slog.String("addr", addr.String()),
				slog.String("media_backend", a.cfg.Media.Backend),
			)
		}),
	)
	return srv.Run(ctx, h)
}
