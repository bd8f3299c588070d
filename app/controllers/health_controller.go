package controllers

import (
	"context"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/mmartin-estofados/storefront/pkg/cache"
	"github.com/mmartin-estofados/storefront/pkg/ctx"
)

// Pinger is implemented by the document store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController reports the state of every backing store. Only the
// relational database is required; the others are optional.
type HealthController struct {
	db        *gorm.DB
	documents Pinger
}

// NewHealthController builds the /health handler. documents may be nil.
func NewHealthController(db *gorm.DB, documents Pinger) *HealthController {
	return &HealthController{db: db, documents: documents}
}

func (hc *HealthController) Show(c *ctx.Context) {
	checkCtx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{
		"database": hc.database(checkCtx),
		"redis":    "disabled",
		"mongo":    "disabled",
	}
	if cache.RDB != nil {
		checks["redis"] = status(cache.RDB.Ping(checkCtx).Err())
	}
	if hc.documents != nil {
		checks["mongo"] = status(hc.documents.Ping(checkCtx))
	}

	code, overall := http.StatusOK, "ok"
	if checks["database"] != "ok" {
		code, overall = http.StatusServiceUnavailable, "degraded"
	}
	c.JSON(code, map[string]any{
		"status": code,
		"data":   map[string]any{"status": overall, "checks": checks},
	})
}

func (hc *HealthController) database(ctx context.Context) string {
	if hc.db == nil {
		return "down"
	}
	sqlDB, err := hc.db.DB()
	if err != nil {
		return "down"
	}
	return status(sqlDB.PingContext(ctx))
}

func status(err error) string {
	if err != nil {
		return "down"
	}
	return "ok"
}
