// Package services holds the storefront business logic. Controllers call
// services; services call repositories and the outside world.
package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/mmartin-estofados/storefront/pkg/event"
	"github.com/mmartin-estofados/storefront/pkg/storage"
)

// Deps are the collaborators shared by every service.
type Deps struct {
	DB        *gorm.DB
	Bus       *event.Bus
	Disk      storage.Disk
	Documents OrderDocumentStore // nil disables the document order path
	Payment   PaymentConfig
	CacheTTL  time.Duration
	Identity  *IdentityService
}

// Registry is the set of services the HTTP layer is built from.
type Registry struct {
	Identity   *IdentityService
	Catalog    *CatalogService
	Stock      *StockService
	Orders     *OrderService
	Payments   *PaymentService
	Settings   *SettingService
	Reviews    *ReviewService
	CushionKit *CushionKitService
	Setup      *SetupService
	Documents  *DocumentOrderService
}

func NewRegistry(d Deps) *Registry {
	payments := NewPaymentService(d.DB, d.Payment, d.Documents, d.Bus)
	return &Registry{
		Identity:   d.Identity,
		Catalog:    NewCatalogService(d.DB, d.Disk, d.CacheTTL),
		Stock:      NewStockService(d.DB, d.Bus),
		Orders:     NewOrderService(d.DB, d.Bus),
		Payments:   payments,
		Settings:   NewSettingService(d.DB),
		Reviews:    NewReviewService(d.DB),
		CushionKit: NewCushionKitService(d.DB),
		Setup:      NewSetupService(d.DB),
		Documents:  NewDocumentOrderService(d.DB, d.Documents, payments),
	}
}
