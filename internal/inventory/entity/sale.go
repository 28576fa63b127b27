package entity

import "time"

// Sale 销售单，创建后不随分类/机型/配件的停用而级联
type Sale struct {
	ID          string     `json:"id" gorm:"primaryKey;size:36"`
	ModelID     string     `json:"model_id" gorm:"size:36;not null;index"`
	TotalAmount float64    `json:"total_amount" gorm:"type:decimal(14,2);not null;default:0"`
	State       Lifecycle  `json:"state" gorm:"size:16;not null;default:active;index"`
	CreatedBy   string     `json:"created_by" gorm:"size:64"`
	CreatedAt   time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Items       []SaleItem `json:"items" gorm:"foreignKey:SaleID"`

	Model *MobileModel `json:"model,omitempty" gorm:"foreignKey:ModelID"`
}

func (Sale) TableName() string {
	return "sales"
}

// ItemCount 售出件数
func (s *Sale) ItemCount() int {
	n := 0
	for _, it := range s.Items {
		n += it.Quantity
	}
	return n
}

// SaleItem 销售明细，保留调用方提交的顺序
type SaleItem struct {
	ID           string  `json:"id" gorm:"primaryKey;size:36"`
	SaleID       string  `json:"sale_id" gorm:"size:36;not null;index"`
	LineNo       int     `json:"line_no" gorm:"not null"`
	PartID       string  `json:"part_id" gorm:"size:36;not null;index"`
	Quantity     int     `json:"quantity" gorm:"not null"`
	PricePerUnit float64 `json:"price_per_unit" gorm:"type:decimal(12,2);not null"`

	Part *Part `json:"part,omitempty" gorm:"foreignKey:PartID"`
}

func (SaleItem) TableName() string {
	return "sale_items"
}

// LineTotal 行金额
func (i *SaleItem) LineTotal() float64 {
	return float64(i.Quantity) * i.PricePerUnit
}
