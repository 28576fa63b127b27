package entity

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// PartTypeGroup 配件类型分组，例如 "DISPLAY" -> ["OLED", "LCD"]
type PartTypeGroup struct {
	ID        string                      `json:"id" gorm:"primaryKey;size:36"`
	Name      string                      `json:"name" gorm:"size:100;not null;uniqueIndex"`
	Types     datatypes.JSONSlice[string] `json:"types"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
}

func (PartTypeGroup) TableName() string {
	return "part_type_groups"
}

// IndexOf 忽略大小写查找类型，找不到返回 -1
func (g *PartTypeGroup) IndexOf(name string) int {
	for i, t := range g.Types {
		if strings.EqualFold(t, name) {
			return i
		}
	}
	return -1
}
