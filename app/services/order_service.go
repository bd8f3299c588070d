package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mmartin-estofados/storefront/app/models"
	"github.com/mmartin-estofados/storefront/app/repositories"
	"github.com/mmartin-estofados/storefront/pkg/auth"
	"github.com/mmartin-estofados/storefront/pkg/event"
	"github.com/mmartin-estofados/storefront/pkg/logger"
	"github.com/mmartin-estofados/storefront/pkg/metrics"
	"github.com/mmartin-estofados/storefront/pkg/orm"
	"github.com/mmartin-estofados/storefront/pkg/validate"
)

const maxOrderItems = 50

// OrderItemInput is one requested line. A client-sent price is accepted
// for compatibility and always replaced by the catalogue price.
type OrderItemInput struct {
	ProductID string           `json:"product_id" validate:"required,max=100"`
	Name      string           `json:"name"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Quantity  int              `json:"quantity"   validate:"gte=1,lte=999"`
	Fabric    string           `json:"fabric"     validate:"max=100"`
	Color     string           `json:"color"      validate:"max=100"`
}

// OrderInput is the body of POST /api/orders and /functions/createOrder.
type OrderInput struct {
	Customer      models.Customer  `json:"customer"`
	Items         []OrderItemInput `json:"items"          validate:"required"`
	PaymentMethod string           `json:"payment_method" validate:"nullable,in=whatsapp|mercadopago|pix"`
	Notes         string           `json:"notes"          validate:"max=2000"`
}

// Validate checks the order, its customer and every line. Nested failures
// are keyed "customer.email", "items.0.quantity" and so on.
func (in OrderInput) Validate() map[string]string {
	errs := validate.Struct(in)
	for field, msg := range validate.Struct(in.Customer) {
		errs["customer."+field] = msg
	}
	if len(in.Items) > maxOrderItems {
		errs["items"] = fmt.Sprintf("An order may have at most %d items.", maxOrderItems)
	}
	for i, item := range in.Items {
		for field, msg := range validate.Struct(item) {
			errs[fmt.Sprintf("items.%d.%s", i, field)] = msg
		}
	}
	return errs
}

func (in OrderInput) paymentMethod() string {
	if in.PaymentMethod == "" {
		return models.PaymentWhatsApp
	}
	return in.PaymentMethod
}

// OrderUpdate is the body of PUT /api/orders/{id}.
type OrderUpdate struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes" validate:"nullable,max=2000"`
}

// StatusChange is the payload of event.OrderStatusChanged.
type StatusChange struct {
	OrderID uint   `json:"order_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}

type OrderService struct {
	db       *gorm.DB
	orders   *repositories.OrderRepository
	products *repositories.ProductRepository
	stock    *repositories.StockRepository
	bus      *event.Bus
}

func NewOrderService(db *gorm.DB, bus *event.Bus) *OrderService {
	return &OrderService{
		db:       db,
		orders:   repositories.NewOrderRepository(db),
		products: repositories.NewProductRepository(db),
		stock:    repositories.NewStockRepository(db),
		bus:      bus,
	}
}

// Create places an order. Every line is checked against the catalogue,
// priced server-side and, for stock-managed products with a stock row,
// decremented with a conditional update. The first failing line rolls the
// whole transaction back.
func (s *OrderService) Create(ctx context.Context, in OrderInput, userID string) (*models.Order, error) {
	if errs := in.Validate(); validate.HasErrors(errs) {
		metrics.OrdersRejected.WithLabelValues("validation").Inc()
		return nil, &ValidationError{Fields: errs}
	}

	var (
		order *models.Order
		lows  []models.Stock
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)
		stock := s.stock.WithTx(tx)

		items := make([]models.OrderItem, 0, len(in.Items))
		total := decimal.Zero
		lows = lows[:0]

		for i, line := range in.Items {
			p, err := products.Find(ctx, line.ProductID)
			if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !p.Active) {
				return &ItemError{Err: ErrInvalidItem, Index: i, ProductID: line.ProductID, Name: line.Name}
			}
			if err != nil {
				return err
			}

			item := models.OrderItem{
				ProductID: p.ID,
				Name:      p.Name,
				Price:     p.Price,
				Quantity:  line.Quantity,
				Fabric:    strings.TrimSpace(line.Fabric),
				Color:     strings.TrimSpace(line.Color),
			}

			if p.StockManaged {
				row, err := stock.Find(ctx, p.ID)
				switch {
				case errors.Is(err, gorm.ErrRecordNotFound):
					// untracked product, nothing to take
				case err != nil:
					return err
				default:
					ok, err := stock.Decrement(ctx, p.ID, line.Quantity)
					if err != nil {
						return err
					}
					if !ok {
						return &ItemError{Err: ErrInsufficientStock, Index: i, ProductID: p.ID, Name: p.Name, Available: row.Quantity}
					}
					item.Decremented = true

					after := *row
					after.Quantity -= line.Quantity
					if crossedLow(after, line.Quantity) {
						lows = append(lows, after)
					}
				}
			}

			total = total.Add(item.Subtotal())
			items = append(items, item)
		}

		order = &models.Order{
			Customer:      datatypes.NewJSONType(in.Customer),
			Items:         datatypes.JSONSlice[models.OrderItem](items),
			Status:        models.OrderPending,
			Total:         total,
			PaymentMethod: in.paymentMethod(),
			PaymentStatus: "pending",
			Notes:         strings.TrimSpace(in.Notes),
		}
		if userID != "" {
			order.UserID = &userID
		}
		return s.orders.WithTx(tx).Create(ctx, order)
	})
	if err != nil {
		metrics.OrdersRejected.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}

	metrics.OrdersCreated.WithLabelValues("sql").Inc()
	metrics.OrderValue.Observe(order.Total.InexactFloat64())
	logger.WithCtx(ctx).Info("order: created",
		"order_id", order.ID, "total", order.Total.StringFixed(2), "items", len(order.Items))

	s.bus.FireAsync(ctx, event.OrderCreated, order)
	for _, row := range lows {
		s.bus.FireAsync(ctx, event.StockLow, StockLowEvent{
			ProductID:   row.ProductID,
			Quantity:    row.Quantity,
			MinQuantity: row.MinQuantity,
			At:          order.CreatedAt,
		})
	}
	return order, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientStock):
		return "stock"
	case errors.Is(err, ErrInvalidItem):
		return "product"
	default:
		return "error"
	}
}

// List returns a page of orders, newest first.
func (s *OrderService) List(ctx context.Context, status string, p orm.Pagination) ([]models.Order, orm.Pagination, error) {
	if status != "" && !models.ValidOrderStatus(status) {
		return nil, p, invalid("status", "The selected status is invalid.")
	}
	return s.orders.List(ctx, status, p)
}

// ListMine returns the orders placed by the caller.
func (s *OrderService) ListMine(ctx context.Context, caller *auth.Identity) ([]models.Order, error) {
	if caller == nil {
		return nil, ErrForbidden
	}
	return s.orders.ListByUser(ctx, caller.UserID)
}

// Find returns an order.
func (s *OrderService) Find(ctx context.Context, id uint) (*models.Order, error) {
	o, err := s.orders.Find(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Order")
	}
	return o, err
}

// FindFor returns an order the caller may see: admins see every order,
// customers only their own.
func (s *OrderService) FindFor(ctx context.Context, id uint, caller *auth.Identity) (*models.Order, error) {
	o, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSee(o, caller) {
		return nil, ErrForbidden
	}
	return o, nil
}

func canSee(o *models.Order, caller *auth.Identity) bool {
	return caller != nil && (caller.Admin || o.OwnedBy(caller.UserID))
}

// Update changes status and notes. Moving an order to cancelled gives back
// the stock its lines took, once, in the same transaction. A cancelled order
// keeps its status: its stock is already released.
func (s *OrderService) Update(ctx context.Context, id uint, in OrderUpdate) (*models.Order, error) {
	errs := validate.Struct(in)
	if in.Status != nil && !models.ValidOrderStatus(*in.Status) {
		errs["status"] = "The selected status is invalid."
	}
	if validate.HasErrors(errs) {
		return nil, &ValidationError{Fields: errs}
	}

	var (
		order *models.Order
		from  string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		o, err := orders.Find(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("Order")
		}
		if err != nil {
			return err
		}
		from = o.Status

		if in.Notes != nil {
			o.Notes = strings.TrimSpace(*in.Notes)
		}
		if in.Status != nil {
			if from == models.OrderCancelled && *in.Status != models.OrderCancelled {
				return fmt.Errorf("cancelled orders cannot be reopened: %w", ErrConflict)
			}
			o.Status = *in.Status
		}
		if o.Status == models.OrderCancelled && !o.StockReleased {
			if err := s.releaseStock(ctx, tx, o); err != nil {
				return err
			}
		}

		order = o
		return orders.Save(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	if order.Status != from {
		logger.WithCtx(ctx).Info("order: status changed", "order_id", order.ID, "from", from, "to", order.Status)
		s.bus.FireAsync(ctx, event.OrderStatusChanged, StatusChange{OrderID: order.ID, From: from, To: order.Status})
	}
	return order, nil
}

func (s *OrderService) releaseStock(ctx context.Context, tx *gorm.DB, o *models.Order) error {
	stock := s.stock.WithTx(tx)
	for _, item := range o.Items {
		if !item.Decremented {
			continue
		}
		ok, err := stock.Adjust(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			logger.WithCtx(ctx).Warn("order: stock row gone, units not restored",
				"order_id", o.ID, "product_id", item.ProductID, "quantity", item.Quantity)
		}
	}
	o.StockReleased = true
	return nil
}

// Delete removes an order.
func (s *OrderService) Delete(ctx context.Context, id uint) error {
	n, err := s.orders.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("Order")
	}
	return nil
}
