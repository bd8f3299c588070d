package app

import (
	"context"

	"github.com/mmartin-estofados/storefront/config"
	"github.com/mmartin-estofados/storefront/internal/server"
)

// Serve runs the HTTP server until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	return server.Run(ctx, ":"+config.AppPort(), a.Handler())
}
