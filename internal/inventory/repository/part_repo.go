package repository

import (
	"context"

	"github.com/bitfantasy/partsdesk/internal/inventory/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PartRepository 配件仓库
type PartRepository struct {
	db *gorm.DB
}

func NewPartRepository(db *gorm.DB) *PartRepository {
	return &PartRepository{db: db}
}

func (r *PartRepository) withRefs(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Model").Preload("Category")
}

// FindActive 在用配件，按库存升序
func (r *PartRepository) FindActive(ctx context.Context) ([]entity.Part, error) {
	var items []entity.Part
	err := r.withRefs(ctx).
		Where("state = ?", entity.LifecycleActive).
		Order("quantity ASC").Order("name ASC").
		Find(&items).Error
	return items, err
}

// FindAtOrBelow 库存不超过给定值的在用配件
func (r *PartRepository) FindAtOrBelow(ctx context.Context, threshold int) ([]entity.Part, error) {
	var items []entity.Part
	err := r.withRefs(ctx).
		Where("state = ? AND quantity <= ?", entity.LifecycleActive, threshold).
		Order("quantity ASC").
		Find(&items).Error
	return items, err
}

// FindLowStock 库存不超过自身阈值的在用配件
func (r *PartRepository) FindLowStock(ctx context.Context) ([]entity.Part, error) {
	var items []entity.Part
	err := r.withRefs(ctx).
		Where("state = ? AND quantity <= threshold", entity.LifecycleActive).
		Order("quantity ASC").
		Find(&items).Error
	return items, err
}

// FindActiveByModel 机型下在用配件
func (r *PartRepository) FindActiveByModel(ctx context.Context, modelID string) ([]entity.Part, error) {
	var items []entity.Part
	err := r.withRefs(ctx).
		Where("model_id = ? AND state = ?", modelID, entity.LifecycleActive).
		Order("quantity ASC").
		Find(&items).Error
	return items, err
}

// FindByID 根据ID查找配件（不区分状态）
func (r *PartRepository) FindByID(ctx context.Context, id string) (*entity.Part, error) {
	var p entity.Part
	if err := r.withRefs(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// FindByIDForUpdate 事务内加行锁读取配件
func (r *PartRepository) FindByIDForUpdate(ctx context.Context, id string) (*entity.Part, error) {
	var p entity.Part
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// FindDuplicate 按 (name, type, model) 查找，在用记录优先
func (r *PartRepository) FindDuplicate(ctx context.Context, name, partType, modelID string) (*entity.Part, error) {
	var p entity.Part
	err := r.db.WithContext(ctx).
		Where("name = ? AND type = ? AND model_id = ?", name, partType, modelID).
		Order("state ASC").
		First(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// RetireByModels 停用指定机型下所有在用配件
func (r *PartRepository) RetireByModels(ctx context.Context, modelIDs []string) (int64, error) {
	if len(modelIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&entity.Part{}).
		Where("model_id IN ? AND state = ?", modelIDs, entity.LifecycleActive).
		Update("state", entity.LifecycleRetired)
	return res.RowsAffected, res.Error
}

// RederiveCategory 机型换分类后同步其配件的派生分类
func (r *PartRepository) RederiveCategory(ctx context.Context, modelID, categoryID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&entity.Part{}).
		Where("model_id = ?", modelID).
		Update("category_id", categoryID)
	return res.RowsAffected, res.Error
}

// UpdateStock 只更新库存和销量字段
func (r *PartRepository) UpdateStock(ctx context.Context, id string, quantity, soldCount int) error {
	res := r.db.WithContext(ctx).Model(&entity.Part{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"quantity": quantity, "sold_count": soldCount})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// InventoryValue 在用配件库存总金额
func (r *PartRepository) InventoryValue(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&entity.Part{}).
		Select("COALESCE(SUM(price * quantity), 0)").
		Where("state = ?", entity.LifecycleActive).
		Scan(&total).Error
	return total, err
}

// Create 创建配件
func (r *PartRepository) Create(ctx context.Context, p *entity.Part) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

// Update 更新配件
func (r *PartRepository) Update(ctx context.Context, p *entity.Part) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(p).Error
}
