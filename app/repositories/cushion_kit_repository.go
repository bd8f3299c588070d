package repositories

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mmartin-estofados/storefront/app/models"
)

type CushionKitRepository struct {
	db *gorm.DB
}

func NewCushionKitRepository(db *gorm.DB) *CushionKitRepository {
	return &CushionKitRepository{db: db}
}

// Get returns the singleton row or gorm.ErrRecordNotFound.
func (r *CushionKitRepository) Get(ctx context.Context) (*models.CushionKit, error) {
	var kit models.CushionKit
	if err := r.db.WithContext(ctx).First(&kit, models.CushionKitID).Error; err != nil {
		return nil, err
	}
	return &kit, nil
}

// Upsert writes config into row 1.
func (r *CushionKitRepository) Upsert(ctx context.Context, config datatypes.JSON) (*models.CushionKit, error) {
	kit := &models.CushionKit{ID: models.CushionKitID, Config: config}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"config", "updated_at"}),
	}).Create(kit).Error
	return kit, err
}

// CreateIfMissing seeds row 1 unless it already exists.
func (r *CushionKitRepository) CreateIfMissing(ctx context.Context, config datatypes.JSON) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.CushionKit{ID: models.CushionKitID, Config: config})
	return res.RowsAffected == 1, res.Error
}

func (r *CushionKitRepository) Delete(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.CushionKit{}, models.CushionKitID)
	return res.RowsAffected, res.Error
}
