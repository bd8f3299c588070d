// Package app boots the storefront: it connects the backing stores, wires
// the services and their event listeners, and builds the HTTP handler the
// server runs.
//
//	a, err := app.Boot(ctx)
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//	return a.Serve(ctx)
package app

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mmartin-estofados/storefront/app/services"
	"github.com/mmartin-estofados/storefront/config"
	"github.com/mmartin-estofados/storefront/pkg/cache"
	"github.com/mmartin-estofados/storefront/pkg/database"
	"github.com/mmartin-estofados/storefront/pkg/docstore"
	"github.com/mmartin-estofados/storefront/pkg/event"
	"github.com/mmartin-estofados/storefront/pkg/logger"
	"github.com/mmartin-estofados/storefront/pkg/middleware"
	"github.com/mmartin-estofados/storefront/pkg/storage"
	"github.com/mmartin-estofados/storefront/pkg/workerpool"
	"github.com/mmartin-estofados/storefront/pkg/ws"
)

const (
	defaultWorkers = 4
	shutdownGrace  = 10 * time.Second
	sweepEvery     = time.Minute
)

// App holds every long-lived collaborator of a running storefront.
type App struct {
	DB        *gorm.DB
	Documents *docstore.Store // nil when MONGO_URI is unset
	Disk      storage.Disk
	Pool      *workerpool.Pool
	Bus       *event.Bus
	Hub       *ws.Hub
	Limiter   *middleware.RateLimiter
	Services  *services.Registry

	cors   middleware.CORSOptions
	cancel context.CancelFunc
}

// Boot loads configuration and connects everything. Redis and log
// shipping are optional and only warn when unreachable; the database,
// the storage disk and a configured document store are required.
func Boot(ctx context.Context) (*App, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := logger.AttachMongo(config.LogMongoURI(), config.MongoDatabase()); err != nil {
		logger.Warn("app: log shipping disabled", "error", err)
	}

	db, err := database.Connect(ctx)
	if err != nil {
		return nil, err
	}
	a := &App{DB: db}

	if err := cache.Connect(ctx); err != nil {
		logger.Warn("app: redis unavailable, caching disabled", "error", err)
	}

	// Deps.Documents must stay a nil interface when the store is off.
	var documents services.OrderDocumentStore
	if uri := config.MongoURI(); uri != "" {
		store, err := docstore.Connect(ctx, uri, config.MongoDatabase())
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Documents = store
		documents = store
	}

	if a.Disk, err = storage.New(config.StorageDefault()); err != nil {
		a.Close()
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.cors = middleware.DefaultCORSOptions(config.CORSOrigins())
	a.Pool = workerpool.New(config.Int("WORKERS", defaultWorkers))
	a.Bus = event.NewBus(a.Pool)
	a.Hub = ws.NewHub(a.cors.OriginAllowed)
	a.Limiter = middleware.NewRateLimiter(config.RateLimitPerMinute(), time.Minute)

	a.Services = services.NewRegistry(services.Deps{
		DB:        db,
		Bus:       a.Bus,
		Disk:      a.Disk,
		Documents: documents,
		Payment: services.PaymentConfig{
			GatewayURL:      config.MercadoPagoBaseURL(),
			AccessToken:     config.MercadoPagoAccessToken(),
			NotificationURL: config.MercadoPagoNotificationURL(),
			StoreURL:        config.StoreURL(),
			WhatsAppNumber:  config.WhatsAppNumber(),
		},
		CacheTTL: config.ProductCacheTTL(),
		Identity: services.NewIdentityService(config.IdentityURL(), config.IdentityAPIKey()),
	})
	a.listen()

	go a.Hub.Run(runCtx)
	go a.sweep(runCtx)

	logger.Info("app: booted",
		"env", config.AppEnv(),
		"db", config.DatabaseDriver(),
		"redis", cache.RDB != nil,
		"documents", a.Documents != nil,
		"disk", config.StorageDefault())
	return a, nil
}

// listen registers the event listeners.
func (a *App) listen() {
	a.Bus.Listen(event.StockLow, services.LowStockNotifier(config.LowStockWebhookURL()))
	if a.Services.Documents.Enabled() {
		a.Bus.Listen(event.OrderCreated, a.Services.Documents.MirrorListener)
	}

	for _, name := range []string{event.OrderCreated, event.OrderStatusChanged, event.OrderPaymentUpdate, event.StockLow} {
		a.Bus.Listen(name, func(_ context.Context, payload interface{}) error {
			return a.Hub.BroadcastJSON(ws.Envelope{Type: name, Data: payload})
		})
	}
}

func (a *App) sweep(ctx context.Context) {
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			a.Limiter.Sweep(now)
		}
	}
}

// Close drains background work and disconnects every store.
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.Pool != nil {
		a.Pool.Shutdown(shutdownGrace)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if a.Documents != nil {
		if err := a.Documents.Close(ctx); err != nil {
			logger.Warn("app: document store close", "error", err)
		}
	}
	if err := cache.Close(); err != nil {
		logger.Warn("app: redis close", "error", err)
	}
	if err := database.Close(a.DB); err != nil {
		logger.Warn("app: database close", "error", err)
	}
	logger.Close()
}
