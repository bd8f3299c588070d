package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mmartin-estofados/storefront/app/models"
	"github.com/mmartin-estofados/storefront/app/repositories"
	"github.com/mmartin-estofados/storefront/pkg/event"
	apphttp "github.com/mmartin-estofados/storefront/pkg/http"
	"github.com/mmartin-estofados/storefront/pkg/logger"
	"github.com/mmartin-estofados/storefront/pkg/metrics"
)

// StockInput is the body of PUT /api/stock/{productID}.
type StockInput struct {
	Quantity    int  `json:"quantity"`
	MinQuantity *int `json:"min_quantity" validate:"nullable,gte=0"`
}

// AdjustInput is the body of POST /api/stock/{productID}/adjust.
type AdjustInput struct {
	Delta  int    `json:"delta"  validate:"required"`
	Reason string `json:"reason" validate:"max=255"`
}

// StockLowEvent is the payload of event.StockLow.
type StockLowEvent struct {
	ProductID   string    `json:"product_id"`
	Quantity    int       `json:"quantity"`
	MinQuantity int       `json:"min_quantity"`
	At          time.Time `json:"at"`
}

// crossedLow reports whether taking taken units moved s from above its
// threshold to at or below it.
func crossedLow(s models.Stock, taken int) bool {
	return taken > 0 && s.Low() && s.Quantity+taken > s.MinQuantity
}

type StockService struct {
	db       *gorm.DB
	stock    *repositories.StockRepository
	products *repositories.ProductRepository
	bus      *event.Bus
}

func NewStockService(db *gorm.DB, bus *event.Bus) *StockService {
	return &StockService{
		db:       db,
		stock:    repositories.NewStockRepository(db),
		products: repositories.NewProductRepository(db),
		bus:      bus,
	}
}

// Levels lists every tracked product with its low flag.
func (s *StockService) Levels(ctx context.Context) ([]models.StockLevel, error) {
	return s.stock.Levels(ctx)
}

// Find returns the stock row of one product.
func (s *StockService) Find(ctx context.Context, productID string) (*models.Stock, error) {
	row, err := s.stock.Find(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Stock")
	}
	return row, err
}

// Set writes the absolute quantity of a product, floored at zero. The
// threshold is kept when MinQuantity is omitted.
func (s *StockService) Set(ctx context.Context, productID string, in StockInput) (*models.Stock, error) {
	exists, err := s.products.Exists(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, notFound("Product")
	}

	row := models.Stock{ProductID: productID}
	before, err := s.stock.Find(ctx, productID)
	switch {
	case err == nil:
		row.MinQuantity = before.MinQuantity
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	row.Quantity = max(in.Quantity, 0)
	if in.MinQuantity != nil {
		row.MinQuantity = *in.MinQuantity
	}
	if err := s.stock.Upsert(ctx, &row); err != nil {
		return nil, err
	}

	if before != nil && !before.Low() && row.Low() {
		s.fireLow(ctx, row)
	}
	return &row, nil
}

// Adjust adds delta to the quantity of a tracked product, floored at zero.
func (s *StockService) Adjust(ctx context.Context, productID string, in AdjustInput) (*models.Stock, error) {
	before, err := s.Find(ctx, productID)
	if err != nil {
		return nil, err
	}

	ok, err := s.stock.Adjust(ctx, productID, in.Delta)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("Stock")
	}

	after, err := s.Find(ctx, productID)
	if err != nil {
		return nil, err
	}
	logger.WithCtx(ctx).Info("stock: adjusted",
		"product_id", productID, "delta", in.Delta, "reason", in.Reason, "quantity", after.Quantity)

	if !before.Low() && after.Low() {
		s.fireLow(ctx, *after)
	}
	return after, nil
}

// Delete stops tracking a product.
func (s *StockService) Delete(ctx context.Context, productID string) error {
	n, err := s.stock.Delete(ctx, productID)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("Stock")
	}
	return nil
}

func (s *StockService) fireLow(ctx context.Context, row models.Stock) {
	s.bus.FireAsync(ctx, event.StockLow, StockLowEvent{
		ProductID:   row.ProductID,
		Quantity:    row.Quantity,
		MinQuantity: row.MinQuantity,
		At:          time.Now().UTC(),
	})
}

// LowStockNotifier is the event.StockLow listener: it counts and logs the
// event and POSTs it to webhookURL when one is configured.
func LowStockNotifier(webhookURL string) event.Handler {
	return func(ctx context.Context, payload interface{}) error {
		e, ok := payload.(StockLowEvent)
		if !ok {
			return nil
		}

		metrics.StockLow.WithLabelValues(e.ProductID).Inc()
		logger.WithCtx(ctx).Warn("stock: low",
			"product_id", e.ProductID, "quantity", e.Quantity, "min_quantity", e.MinQuantity)

		if webhookURL == "" {
			return nil
		}
		resp, err := apphttp.Post(webhookURL).
			WithContext(ctx).
			Body(map[string]interface{}{"event": event.StockLow, "data": e}).
			Retry(3, 500*time.Millisecond).
			Send()
		if err != nil {
			return err
		}
		return resp.Throw()
	}
}
