package services

import (
	"context"

	"gorm.io/gorm"

	_ "github.com/mmartin-estofados/storefront/database/migrations"
	"github.com/mmartin-estofados/storefront/database/seeders"
	"github.com/mmartin-estofados/storefront/pkg/cache"
	"github.com/mmartin-estofados/storefront/pkg/logger"
	"github.com/mmartin-estofados/storefront/pkg/migration"
)

// SetupService provisions a fresh database. Both operations are
// idempotent.
type SetupService struct {
	db *gorm.DB
}

func NewSetupService(db *gorm.DB) *SetupService {
	return &SetupService{db: db}
}

// InitDB runs pending migrations and returns their names.
func (s *SetupService) InitDB(ctx context.Context) ([]string, error) {
	ran, err := migration.New(s.db).Run(ctx)
	if err != nil {
		return ran, err
	}
	logger.WithCtx(ctx).Info("setup: migrations applied", "count", len(ran))
	return ran, nil
}

// Seed loads the default settings, cushion kit and sample catalogue,
// leaving existing rows alone. It returns rows created per seeder.
func (s *SetupService) Seed(ctx context.Context) (map[string]int, error) {
	created, err := seeders.RunAll(ctx, s.db)
	if err != nil {
		return created, err
	}
	if created["products"] > 0 {
		if err := cache.Bump(ctx, productsVersionKey); err != nil {
			logger.WithCtx(ctx).Warn("setup: cache invalidation failed", "error", err)
		}
	}
	return created, nil
}
