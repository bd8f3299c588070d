package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

func init() {
	// Prices go over the wire as JSON numbers, the shape the storefront
	// client already reads.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is a catalogue item. The id is a human-readable slug
// ("sofa-retratil-lisboa") chosen by the admin.
type Product struct {
	ID            string                      `gorm:"primaryKey;size:100"            json:"id"`
	Name          string                      `gorm:"size:255;not null;index"        json:"name"`
	Category      string                      `gorm:"size:100;not null;index"        json:"category"`
	Description   string                      `gorm:"type:text"                      json:"description"`
	Price         decimal.Decimal             `gorm:"type:decimal(12,2);not null"    json:"price"`
	OriginalPrice *decimal.Decimal            `gorm:"type:decimal(12,2)"             json:"original_price"`
	Images        datatypes.JSONSlice[string] `json:"images"`
	Features      datatypes.JSONSlice[string] `json:"features"`
	Fabrics       datatypes.JSONSlice[string] `json:"fabrics"`
	Dimensions    string                      `gorm:"size:255"                       json:"dimensions"`
	Featured      bool                        `gorm:"not null;index"                 json:"featured"`
	Active        bool                        `gorm:"not null;index"                 json:"active"`
	IsKit         bool                        `gorm:"not null"                       json:"is_kit"`
	KitPieces     int                         `gorm:"not null"                       json:"kit_pieces"`
	StockManaged  bool                        `gorm:"not null"                       json:"stock_managed"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

// OnSale reports whether the product shows a struck-through original price.
func (p Product) OnSale() bool {
	return p.OriginalPrice != nil && p.OriginalPrice.GreaterThan(p.Price)
}
