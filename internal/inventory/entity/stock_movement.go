package entity

import "time"

// MovementKind 库存变动类型
type MovementKind string

const (
	MovementSale       MovementKind = "sale"       // 销售出库
	MovementAdjustment MovementKind = "adjustment" // 手工调整
	MovementRestock    MovementKind = "restock"    // 入库/重新启用
	MovementImport     MovementKind = "import"     // 批量导入
)

// StockMovement 库存流水，Delta 正=入，负=出
type StockMovement struct {
	ID             string       `json:"id" gorm:"primaryKey;size:36"`
	PartID         string       `json:"part_id" gorm:"size:36;not null;index"`
	Kind           MovementKind `json:"kind" gorm:"size:20;not null"`
	Delta          int          `json:"delta" gorm:"not null"`
	QuantityBefore int          `json:"quantity_before" gorm:"not null"`
	QuantityAfter  int          `json:"quantity_after" gorm:"not null"`
	ReferenceID    string       `json:"reference_id" gorm:"size:36;index"`
	Reason         string       `json:"reason" gorm:"type:text"`
	CreatedBy      string       `json:"created_by" gorm:"size:64"`
	CreatedAt      time.Time    `json:"created_at" gorm:"index"`
}

func (StockMovement) TableName() string {
	return "stock_movements"
}

// All 需要迁移的实体
func All() []interface{} {
	return []interface{}{
		&Category{},
		&MobileModel{},
		&Part{},
		&Sale{},
		&SaleItem{},
		&Setting{},
		&PartTypeGroup{},
		&StockMovement{},
	}
}
