package repository

import (
	"context"

	"github.com/bitfantasy/partsdesk/internal/inventory/entity"
	"gorm.io/gorm"
)

// PartTypeRepository 配件类型分组仓库
type PartTypeRepository struct {
	db *gorm.DB
}

func NewPartTypeRepository(db *gorm.DB) *PartTypeRepository {
	return &PartTypeRepository{db: db}
}

func (r *PartTypeRepository) FindAll(ctx context.Context) ([]entity.PartTypeGroup, error) {
	var items []entity.PartTypeGroup
	err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error
	return items, err
}

// FindByName 忽略大小写查找分组
func (r *PartTypeRepository) FindByName(ctx context.Context, name string) (*entity.PartTypeGroup, error) {
	var g entity.PartTypeGroup
	if err := r.db.WithContext(ctx).Where("UPPER(name) = UPPER(?)", name).First(&g).Error; err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

func (r *PartTypeRepository) Create(ctx context.Context, g *entity.PartTypeGroup) error {
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *PartTypeRepository) Update(ctx context.Context, g *entity.PartTypeGroup) error {
	return r.db.WithContext(ctx).Save(g).Error
}

func (r *PartTypeRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.PartTypeGroup{}).Error
}
