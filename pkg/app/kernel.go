package app

import (
	"net/http"

	"github.com/mmartin-estofados/storefront/app/controllers"
	"github.com/mmartin-estofados/storefront/app/routes"
	"github.com/mmartin-estofados/storefront/config"
	"github.com/mmartin-estofados/storefront/pkg/auth"
	"github.com/mmartin-estofados/storefront/pkg/metrics"
	"github.com/mmartin-estofados/storefront/pkg/middleware"
	"github.com/mmartin-estofados/storefront/pkg/reqid"
	"github.com/mmartin-estofados/storefront/pkg/router"
	"github.com/mmartin-estofados/storefront/pkg/storage"
)

// Handler builds the router with the global middleware stack.
func (a *App) Handler() http.Handler {
	r := router.New()

	// Outermost first: metrics see the full latency, recovery catches
	// panics from everything below, and the request id exists before
	// anything logs.
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(a.cors))
	r.Use(a.Limiter.Middleware)
	r.Use(middleware.Authenticate(a.Services.Identity, auth.NewAllowList(config.AdminEmails()...)))

	r.Handle("/metrics", metrics.Handler())
	if local, ok := a.Disk.(*storage.LocalDisk); ok {
		r.Handle("/storage/*", http.StripPrefix("/storage/", http.FileServer(http.Dir(local.Root()))))
	}

	var documents controllers.Pinger
	if a.Documents != nil {
		documents = a.Documents
	}
	routes.RegisterAPI(r, routes.Deps{
		Services:     a.Services,
		Health:       controllers.NewHealthController(a.DB, documents),
		Live:         a.Hub,
		SetupKeyHash: config.SetupKeyHash(),
	})
	return r.Handler()
}
