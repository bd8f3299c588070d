package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/mmartin-estofados/storefront/app/models"
	"github.com/mmartin-estofados/storefront/pkg/orm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository {
	return &OrderRepository{db: tx}
}

func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

// Find looks up an order by primary key.
func (r *OrderRepository) Find(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.db.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// FindByPaymentReference finds the order a gateway notification refers to.
func (r *OrderRepository) FindByPaymentReference(ctx context.Context, ref string) (*models.Order, error) {
	var o models.Order
	if err := r.db.WithContext(ctx).Where("payment_reference = ?", ref).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// List returns one page of orders, newest first, optionally by status.
func (r *OrderRepository) List(ctx context.Context, status string, p orm.Pagination) ([]models.Order, orm.Pagination, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	orders := []models.Order{}
	p, err := orm.Paginate(q, p, "created_at desc, id desc", &orders)
	return orders, p, err
}

// ListByUser returns every order placed by uid, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, uid string) ([]models.Order, error) {
	orders := []models.Order{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", uid).
		Order("created_at desc, id desc").
		Find(&orders).Error
	return orders, err
}

// Save writes every column of o.
func (r *OrderRepository) Save(ctx context.Context, o *models.Order) error {
	return r.db.WithContext(ctx).Save(o).Error
}

// UpdatePayment writes only the payment columns, leaving status and items
// untouched.
func (r *OrderRepository) UpdatePayment(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(fields).Error
}

func (r *OrderRepository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Order{}, id)
	return res.RowsAffected, res.Error
}
