package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	OrderPending    = "pending"
	OrderConfirmed  = "confirmed"
	OrderPaid       = "paid"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

// OrderStatuses lists every valid order status in lifecycle order.
var OrderStatuses = []string{
	OrderPending, OrderConfirmed, OrderPaid, OrderProcessing,
	OrderShipped, OrderDelivered, OrderCancelled,
}

// ValidOrderStatus reports whether s is a known status.
func ValidOrderStatus(s string) bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

const (
	PaymentWhatsApp    = "whatsapp"
	PaymentMercadoPago = "mercadopago"
	PaymentPix         = "pix"
)

// Customer is the buyer contact and delivery address captured at checkout.
type Customer struct {
	Name     string `json:"name"     validate:"required,max=255"`
	Email    string `json:"email"    validate:"required,email"`
	Phone    string `json:"phone"    validate:"required,max=40"`
	Document string `json:"document" validate:"max=20"`
	Address  string `json:"address"  validate:"max=255"`
	City     string `json:"city"     validate:"max=100"`
	State    string `json:"state"    validate:"max=2"`
	Zip      string `json:"zip"      validate:"max=10"`
}

// OrderItem is one order line. Price is the server-side unit price at the
// time the order was placed.
type OrderItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Fabric    string          `json:"fabric,omitempty"`
	Color     string          `json:"color,omitempty"`
	// Decremented is set when this line took units out of the stock table,
	// so a cancellation knows what to give back.
	Decremented bool `json:"decremented,omitempty"`
}

// Subtotal is price × quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID               uint                           `gorm:"primaryKey"                  json:"id"`
	Customer         datatypes.JSONType[Customer]   `gorm:"not null"                    json:"customer"`
	Items            datatypes.JSONSlice[OrderItem] `gorm:"not null"                    json:"items"`
	Status           string                         `gorm:"size:20;not null;index"      json:"status"`
	Total            decimal.Decimal                `gorm:"type:decimal(12,2);not null" json:"total"`
	PaymentMethod    string                         `gorm:"size:20"                     json:"payment_method"`
	PaymentReference string                         `gorm:"size:100;index"              json:"payment_reference"`
	PaymentStatus    string                         `gorm:"size:40"                     json:"payment_status"`
	PaymentURL       string                         `gorm:"size:500"                    json:"payment_url"`
	Notes            string                         `gorm:"type:text"                   json:"notes"`
	UserID           *string                        `gorm:"size:128;index"              json:"user_id"`
	StockReleased    bool                           `gorm:"not null"                    json:"-"`
	CreatedAt        time.Time                      `json:"created_at"`
	UpdatedAt        time.Time                      `json:"updated_at"`
}

// OwnedBy reports whether uid placed this order.
func (o Order) OwnedBy(uid string) bool {
	return uid != "" && o.UserID != nil && *o.UserID == uid
}
