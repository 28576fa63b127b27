package repository

import (
	"context"
	"time"

	"github.com/bitfantasy/partsdesk/internal/inventory/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaleRepository 销售仓库
type SaleRepository struct {
	db *gorm.DB
}

func NewSaleRepository(db *gorm.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

// SaleFilter 销售查询条件
type SaleFilter struct {
	From *time.Time
	To   *time.Time
}

// SaleSummary 销售汇总
type SaleSummary struct {
	TotalSales  int64   `json:"total_sales"`
	TotalAmount float64 `json:"total_amount"`
	TotalItems  int64   `json:"total_items"`
}

func (r *SaleRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Model").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_no ASC")
		}).
		Preload("Items.Part")
}

func (f SaleFilter) apply(query *gorm.DB, column string) *gorm.DB {
	if f.From != nil {
		query = query.Where(column+" >= ?", *f.From)
	}
	if f.To != nil {
		query = query.Where(column+" <= ?", *f.To)
	}
	return query
}

// FindAll 分页查询在用销售，最新在前
func (r *SaleRepository) FindAll(ctx context.Context, page, pageSize int, filter SaleFilter) ([]entity.Sale, int64, error) {
	var items []entity.Sale
	var total int64

	query := filter.apply(r.db.WithContext(ctx).Model(&entity.Sale{}).
		Where("state = ?", entity.LifecycleActive), "created_at")

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := filter.apply(r.withDetails(ctx).Where("state = ?", entity.LifecycleActive), "created_at").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindRange 时间区间内的在用销售
func (r *SaleRepository) FindRange(ctx context.Context, from, to time.Time) ([]entity.Sale, error) {
	var items []entity.Sale
	err := r.withDetails(ctx).
		Where("state = ? AND created_at >= ? AND created_at <= ?", entity.LifecycleActive, from, to).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// FindRecent 最近的在用销售
func (r *SaleRepository) FindRecent(ctx context.Context, limit int) ([]entity.Sale, error) {
	var items []entity.Sale
	err := r.withDetails(ctx).
		Where("state = ?", entity.LifecycleActive).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// FindByID 根据ID查找销售（带机型和配件明细）
func (r *SaleRepository) FindByID(ctx context.Context, id string) (*entity.Sale, error) {
	var s entity.Sale
	if err := r.withDetails(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// Summary 在用销售汇总
func (r *SaleRepository) Summary(ctx context.Context, filter SaleFilter) (*SaleSummary, error) {
	var summary SaleSummary
	err := filter.apply(r.db.WithContext(ctx).Model(&entity.Sale{}).
		Select("COUNT(*) AS total_sales, COALESCE(SUM(total_amount), 0) AS total_amount").
		Where("state = ?", entity.LifecycleActive), "created_at").
		Scan(&summary).Error
	if err != nil {
		return nil, err
	}

	err = filter.apply(r.db.WithContext(ctx).Table("sale_items").
		Select("COALESCE(SUM(sale_items.quantity), 0)").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.state = ?", entity.LifecycleActive), "sales.created_at").
		Scan(&summary.TotalItems).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// FindSince 指定时间之后的在用销售（不含明细），用于统计
func (r *SaleRepository) FindSince(ctx context.Context, since time.Time) ([]entity.Sale, error) {
	var items []entity.Sale
	err := r.db.WithContext(ctx).
		Where("state = ? AND created_at >= ?", entity.LifecycleActive, since).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

// Create 写入销售单及明细
func (r *SaleRepository) Create(ctx context.Context, sale *entity.Sale) error {
	items := sale.Items
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(sale).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].SaleID = sale.ID
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(&items).Error
}

// UpdateState 更新销售状态
func (r *SaleRepository) UpdateState(ctx context.Context, id string, state entity.Lifecycle) error {
	res := r.db.WithContext(ctx).Model(&entity.Sale{}).
		Where("id = ?", id).
		Update("state", state)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
