package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mmartin-estofados/storefront/app/models"
)

type StockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) *StockRepository {
	return &StockRepository{db: db}
}

func (r *StockRepository) WithTx(tx *gorm.DB) *StockRepository {
	return &StockRepository{db: tx}
}

// Levels returns every stock row joined with its product name, lowest
// quantity first.
func (r *StockRepository) Levels(ctx context.Context) ([]models.StockLevel, error) {
	var rows []struct {
		models.Stock
		ProductName string
	}
	err := r.db.WithContext(ctx).
		Table("stock").
		Select("stock.*, products.name AS product_name").
		Joins("LEFT JOIN products ON products.id = stock.product_id").
		Order("stock.quantity asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	levels := make([]models.StockLevel, 0, len(rows))
	for _, row := range rows {
		levels = append(levels, models.StockLevel{
			ProductID:   row.ProductID,
			ProductName: row.ProductName,
			Quantity:    row.Quantity,
			MinQuantity: row.MinQuantity,
			Low:         row.Low(),
			UpdatedAt:   row.UpdatedAt,
		})
	}
	return levels, nil
}

// Find returns the stock row for productID or gorm.ErrRecordNotFound.
func (r *StockRepository) Find(ctx context.Context, productID string) (*models.Stock, error) {
	var s models.Stock
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// Upsert inserts s or overwrites quantity and threshold of the existing row.
func (r *StockRepository) Upsert(ctx context.Context, s *models.Stock) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "min_quantity", "updated_at"}),
	}).Create(s).Error
}

// Decrement takes qty units from productID only if that many are on hand.
// The check and the write are one statement, so two concurrent orders
// cannot both take the last unit. Reports false when stock was short.
func (r *StockRepository) Decrement(ctx context.Context, productID string, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Stock{}).
		Where("product_id = ? AND quantity >= ?", productID, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Adjust adds delta (which may be negative) to the quantity, flooring the
// result at zero. Reports false when productID has no stock row.
func (r *StockRepository) Adjust(ctx context.Context, productID string, delta int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Stock{}).
		Where("product_id = ?", productID).
		Update("quantity", gorm.Expr("CASE WHEN quantity + ? < 0 THEN 0 ELSE quantity + ? END", delta, delta))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Delete removes the stock row; the product becomes untracked.
func (r *StockRepository) Delete(ctx context.Context, productID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&models.Stock{})
	return res.RowsAffected, res.Error
}
