package repositories

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mmartin-estofados/storefront/app/models"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) WithTx(tx *gorm.DB) *SettingRepository {
	return &SettingRepository{db: tx}
}

// All returns every setting ordered by key.
func (r *SettingRepository) All(ctx context.Context) ([]models.Setting, error) {
	settings := []models.Setting{}
	err := r.db.WithContext(ctx).Order("setting_key asc").Find(&settings).Error
	return settings, err
}

// Find returns the setting at key or gorm.ErrRecordNotFound.
func (r *SettingRepository) Find(ctx context.Context, key string) (*models.Setting, error) {
	var s models.Setting
	if err := r.db.WithContext(ctx).Where("setting_key = ?", key).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// Upsert writes value at key, replacing any previous value.
func (r *SettingRepository) Upsert(ctx context.Context, key string, value datatypes.JSON) (*models.Setting, error) {
	s := &models.Setting{Key: key, Value: value}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(s).Error
	return s, err
}

// CreateIfMissing inserts value at key only when the key is free and
// reports whether it did.
func (r *SettingRepository) CreateIfMissing(ctx context.Context, key string, value datatypes.JSON) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Setting{Key: key, Value: value})
	return res.RowsAffected == 1, res.Error
}

func (r *SettingRepository) Delete(ctx context.Context, key string) (int64, error) {
	res := r.db.WithContext(ctx).Where("setting_key = ?", key).Delete(&models.Setting{})
	return res.RowsAffected, res.Error
}
