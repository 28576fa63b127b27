package repository

import (
	"context"

	"github.com/bitfantasy/partsdesk/internal/inventory/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CategoryRepository 分类仓库
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// FindActive 查询在用分类
func (r *CategoryRepository) FindActive(ctx context.Context) ([]entity.Category, error) {
	var items []entity.Category
	err := r.db.WithContext(ctx).
		Where("state = ?", entity.LifecycleActive).
		Order("name ASC").
		Find(&items).Error
	return items, err
}

// FindByID 根据ID查找分类（不区分状态）
func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*entity.Category, error) {
	var c entity.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// FindByName 按规范化名称查找，在用记录优先
func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*entity.Category, error) {
	var c entity.Category
	err := r.db.WithContext(ctx).
		Where("UPPER(name) = ?", name).
		Order("state ASC").
		First(&c).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// ExistsActiveName 是否存在同名在用分类（排除 excludeID）
func (r *CategoryRepository) ExistsActiveName(ctx context.Context, name, excludeID string) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&entity.Category{}).
		Where("UPPER(name) = ? AND state = ?", name, entity.LifecycleActive)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// Create 创建分类
func (r *CategoryRepository) Create(ctx context.Context, c *entity.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// Update 更新分类
func (r *CategoryRepository) Update(ctx context.Context, c *entity.Category) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(c).Error
}
