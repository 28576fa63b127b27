package entity

import (
	"strings"
	"time"
)

// Category 手机品牌/分类
type Category struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"size:100;not null;index"`
	State     Lifecycle `json:"state" gorm:"size:16;not null;default:active;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

// NormalizeName 分类和机型名称统一去空格并转大写，唯一性比较基于该结果
func NormalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
