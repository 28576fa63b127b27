package entity

import "time"

// DefaultLowStockThreshold 未配置时的低库存阈值
const DefaultLowStockThreshold = 5

// Part 配件库存
type Part struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	Name       string    `json:"name" gorm:"size:200;not null;index"`
	Type       string    `json:"type" gorm:"size:100;not null"`
	ModelID    string    `json:"model_id" gorm:"size:36;not null;index"`
	CategoryID string    `json:"category_id" gorm:"size:36;not null;index"` // 由机型派生
	Price      float64   `json:"price" gorm:"type:decimal(12,2);not null;default:0"`
	Quantity   int       `json:"quantity" gorm:"not null;default:0"`
	Threshold  int       `json:"threshold" gorm:"not null"`
	SoldCount  int       `json:"sold_count" gorm:"not null;default:0"`
	State      Lifecycle `json:"state" gorm:"size:16;not null;default:active;index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Model    *MobileModel `json:"model,omitempty" gorm:"foreignKey:ModelID"`
	Category *Category    `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

func (Part) TableName() string {
	return "parts"
}

// AssignModel 设置配件所属机型，同时重新派生分类。
// 配件的 ModelID/CategoryID 只能经由此方法修改。
func (p *Part) AssignModel(m *MobileModel) {
	p.ModelID = m.ID
	p.CategoryID = m.CategoryID
}

// IsLowStock 库存是否低于等于阈值
func (p *Part) IsLowStock() bool {
	return p.Quantity <= p.Threshold
}

// StockValue 库存金额
func (p *Part) StockValue() float64 {
	return p.Price * float64(p.Quantity)
}
