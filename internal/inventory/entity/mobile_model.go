package entity

import "time"

// MobileModel 手机机型，隶属于一个分类
type MobileModel struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	Name        string    `json:"name" gorm:"size:100;not null;index"`
	CategoryID  string    `json:"category_id" gorm:"size:36;not null;index"`
	Description string    `json:"description" gorm:"type:text"`
	State       Lifecycle `json:"state" gorm:"size:16;not null;default:active;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

func (MobileModel) TableName() string {
	return "mobile_models"
}
