package repository

import (
	"context"

	"github.com/bitfantasy/partsdesk/internal/inventory/entity"
	"gorm.io/gorm"
)

// SettingRepository 配置仓库
type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// FindAll 全部配置
func (r *SettingRepository) FindAll(ctx context.Context) ([]entity.Setting, error) {
	var items []entity.Setting
	err := r.db.WithContext(ctx).Order("category ASC, key ASC").Find(&items).Error
	return items, err
}

// FindByCategory 按分类查询
func (r *SettingRepository) FindByCategory(ctx context.Context, category entity.SettingCategory) ([]entity.Setting, error) {
	var items []entity.Setting
	err := r.db.WithContext(ctx).Where("category = ?", category).Order("key ASC").Find(&items).Error
	return items, err
}

func (r *SettingRepository) FindByID(ctx context.Context, id string) (*entity.Setting, error) {
	var s entity.Setting
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *SettingRepository) FindByKey(ctx context.Context, key string) (*entity.Setting, error) {
	var s entity.Setting
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *SettingRepository) Create(ctx context.Context, s *entity.Setting) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *SettingRepository) Update(ctx context.Context, s *entity.Setting) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *SettingRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Setting{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
