package repository

import (
	"context"

	"github.com/bitfantasy/partsdesk/internal/inventory/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MobileModelRepository 机型仓库
type MobileModelRepository struct {
	db *gorm.DB
}

func NewMobileModelRepository(db *gorm.DB) *MobileModelRepository {
	return &MobileModelRepository{db: db}
}

// FindActive 查询在用机型（带分类）
func (r *MobileModelRepository) FindActive(ctx context.Context) ([]entity.MobileModel, error) {
	var items []entity.MobileModel
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("state = ?", entity.LifecycleActive).
		Order("name ASC").
		Find(&items).Error
	return items, err
}

// FindActiveByCategory 查询分类下在用机型
func (r *MobileModelRepository) FindActiveByCategory(ctx context.Context, categoryID string) ([]entity.MobileModel, error) {
	var items []entity.MobileModel
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("category_id = ? AND state = ?", categoryID, entity.LifecycleActive).
		Order("name ASC").
		Find(&items).Error
	return items, err
}

// FindByID 根据ID查找机型（不区分状态）
func (r *MobileModelRepository) FindByID(ctx context.Context, id string) (*entity.MobileModel, error) {
	var m entity.MobileModel
	if err := r.db.WithContext(ctx).Preload("Category").Where("id = ?", id).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

// FindByNameInCategory 按规范化名称在分类内查找，在用记录优先
func (r *MobileModelRepository) FindByNameInCategory(ctx context.Context, name, categoryID string) (*entity.MobileModel, error) {
	var m entity.MobileModel
	err := r.db.WithContext(ctx).
		Where("UPPER(name) = ? AND category_id = ?", name, categoryID).
		Order("state ASC").
		First(&m).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

// ExistsActiveName 分类内是否存在同名在用机型（排除 excludeID）
func (r *MobileModelRepository) ExistsActiveName(ctx context.Context, name, categoryID, excludeID string) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&entity.MobileModel{}).
		Where("UPPER(name) = ? AND category_id = ? AND state = ?", name, categoryID, entity.LifecycleActive)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// ActiveIDsByCategory 分类下在用机型ID
func (r *MobileModelRepository) ActiveIDsByCategory(ctx context.Context, categoryID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&entity.MobileModel{}).
		Where("category_id = ? AND state = ?", categoryID, entity.LifecycleActive).
		Pluck("id", &ids).Error
	return ids, err
}

// RetireByIDs 批量停用机型，返回受影响行数
func (r *MobileModelRepository) RetireByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&entity.MobileModel{}).
		Where("id IN ? AND state = ?", ids, entity.LifecycleActive).
		Update("state", entity.LifecycleRetired)
	return res.RowsAffected, res.Error
}

// Create 创建机型
func (r *MobileModelRepository) Create(ctx context.Context, m *entity.MobileModel) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error
}

// Update 更新机型
func (r *MobileModelRepository) Update(ctx context.Context, m *entity.MobileModel) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(m).Error
}
