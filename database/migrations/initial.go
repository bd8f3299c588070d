// Package migrations contains every schema change. Each file registers its
// migrations from init(); importing the package for side effects is enough
// for `storefront migrate` and POST /api/init-db to see them.
package migrations

import (
	"gorm.io/gorm"

	"github.com/mmartin-estofados/storefront/app/models"
	"github.com/mmartin-estofados/storefront/pkg/migration"
)

func init() {
	migration.Register("20240301000000_create_products_table", &CreateProductsTable{})
	migration.Register("20240301000001_create_stock_table", &CreateStockTable{})
	migration.Register("20240301000002_create_orders_table", &CreateOrdersTable{})
	migration.Register("20240301000003_create_reviews_table", &CreateReviewsTable{})
	migration.Register("20240301000004_create_settings_table", &CreateSettingsTable{})
	migration.Register("20240301000005_create_cushion_kit_table", &CreateCushionKitTable{})
}

// -------- 0001: products --------

type CreateProductsTable struct{}

func (m *CreateProductsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Product{})
}

func (m *CreateProductsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("products")
}

// -------- 0002: stock --------

type CreateStockTable struct{}

func (m *CreateStockTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Stock{})
}

func (m *CreateStockTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("stock")
}

// -------- 0003: orders --------

type CreateOrdersTable struct{}

func (m *CreateOrdersTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Order{})
}

func (m *CreateOrdersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("orders")
}

// -------- 0004: reviews --------

// CreateReviewsTable also creates chk_reviews_rating, keeping ratings in
// 1..5 even for rows written outside the API.
type CreateReviewsTable struct{}

func (m *CreateReviewsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Review{})
}

func (m *CreateReviewsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("reviews")
}

// -------- 0005: settings --------

type CreateSettingsTable struct{}

func (m *CreateSettingsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Setting{})
}

func (m *CreateSettingsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("settings")
}

// -------- 0006: cushion_kit --------

// CreateCushionKitTable creates the singleton table; chk_cushion_kit_singleton
// rejects any id other than 1.
type CreateCushionKitTable struct{}

func (m *CreateCushionKitTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.CushionKit{})
}

func (m *CreateCushionKitTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("cushion_kit")
}
