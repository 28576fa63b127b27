package repository

import (
	"context"

	"github.com/bitfantasy/partsdesk/internal/inventory/entity"
	"gorm.io/gorm"
)

// StockMovementRepository 库存流水仓库
type StockMovementRepository struct {
	db *gorm.DB
}

func NewStockMovementRepository(db *gorm.DB) *StockMovementRepository {
	return &StockMovementRepository{db: db}
}

// Create 记录流水，空切片直接返回
func (r *StockMovementRepository) Create(ctx context.Context, movements ...*entity.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(movements).Error
}

// FindByPart 配件流水，最新在前
func (r *StockMovementRepository) FindByPart(ctx context.Context, partID string, page, pageSize int) ([]entity.StockMovement, int64, error) {
	var items []entity.StockMovement
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.StockMovement{}).Where("part_id = ?", partID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&items).Error
	return items, total, err
}
