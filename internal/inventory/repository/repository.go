package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 仓库集合
type Repositories struct {
	db *gorm.DB

	Category *CategoryRepository
	Model    *MobileModelRepository
	Part     *PartRepository
	Sale     *SaleRepository
	Setting  *SettingRepository
	PartType *PartTypeRepository
	Movement *StockMovementRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:       db,
		Category: NewCategoryRepository(db),
		Model:    NewMobileModelRepository(db),
		Part:     NewPartRepository(db),
		Sale:     NewSaleRepository(db),
		Setting:  NewSettingRepository(db),
		PartType: NewPartTypeRepository(db),
		Movement: NewStockMovementRepository(db),
	}
}

// Transaction 在同一个数据库事务内执行 fn，fn 收到的仓库集合全部绑定该事务。
// fn 返回错误或 panic 时整体回滚。
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// Ping 检查数据库连通性
func (r *Repositories) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
