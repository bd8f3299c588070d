package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/mmartin-estofados/storefront/app/models"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// List returns reviews newest first. An empty productID lists every product.
func (r *ReviewRepository) List(ctx context.Context, productID string, includeUnapproved bool) ([]models.Review, error) {
	q := r.db.WithContext(ctx).Model(&models.Review{})
	if productID != "" {
		q = q.Where("product_id = ?", productID)
	}
	if !includeUnapproved {
		q = q.Where("approved = ?", true)
	}

	reviews := []models.Review{}
	err := q.Order("created_at desc, id desc").Find(&reviews).Error
	return reviews, err
}

// Summary averages the approved ratings of productID.
func (r *ReviewRepository) Summary(ctx context.Context, productID string) (models.ReviewSummary, error) {
	var row struct {
		Average *float64
		Count   int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("AVG(rating) AS average, COUNT(*) AS count").
		Where("product_id = ? AND approved = ?", productID, true).
		Scan(&row).Error

	summary := models.ReviewSummary{ProductID: productID, Count: row.Count}
	if row.Average != nil {
		summary.Average = *row.Average
	}
	return summary, err
}

func (r *ReviewRepository) Find(ctx context.Context, id uint) (*models.Review, error) {
	var rv models.Review
	if err := r.db.WithContext(ctx).First(&rv, id).Error; err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *ReviewRepository) Create(ctx context.Context, rv *models.Review) error {
	return r.db.WithContext(ctx).Create(rv).Error
}

func (r *ReviewRepository) Save(ctx context.Context, rv *models.Review) error {
	return r.db.WithContext(ctx).Save(rv).Error
}

func (r *ReviewRepository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Review{}, id)
	return res.RowsAffected, res.Error
}
