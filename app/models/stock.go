package models

import "time"

// Stock is the on-hand quantity of one product. A product without a stock
// row is not tracked and never blocks an order.
type Stock struct {
	ProductID   string    `gorm:"primaryKey;size:100" json:"product_id"`
	Quantity    int       `gorm:"not null"            json:"quantity"`
	MinQuantity int       `gorm:"not null"            json:"min_quantity"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Stock) TableName() string { return "stock" }

// Low reports whether the quantity is at or below the reorder threshold.
func (s Stock) Low() bool { return s.Quantity <= s.MinQuantity }

// StockLevel is a stock row joined with its product for the admin screen.
type StockLevel struct {
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	MinQuantity int       `json:"min_quantity"`
	Low         bool      `json:"low"`
	UpdatedAt   time.Time `json:"updated_at"`
}
