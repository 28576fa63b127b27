package entity

import (
	"context"
	"database/sql/driver"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// SettingCategory 配置项分类
type SettingCategory string

const (
	SettingCategoryThreshold    SettingCategory = "threshold"
	SettingCategoryNotification SettingCategory = "notification"
	SettingCategoryReport       SettingCategory = "report"
	SettingCategorySystem       SettingCategory = "system"
)

// Valid 是否为已知分类
func (c SettingCategory) Valid() bool {
	switch c {
	case SettingCategoryThreshold, SettingCategoryNotification, SettingCategoryReport, SettingCategorySystem:
		return true
	}
	return false
}

// SettingKeyDefaultThreshold 新建配件默认低库存阈值
const SettingKeyDefaultThreshold = "part.default_threshold"

// Setting 键值配置
type Setting struct {
	ID          string          `json:"id" gorm:"primaryKey;size:36"`
	Key         string          `json:"key" gorm:"size:100;not null;uniqueIndex"`
	Value       JSONValue       `json:"value"`
	Description string          `json:"description" gorm:"type:text"`
	Category    SettingCategory `json:"category" gorm:"size:20;not null;default:system;index"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// JSONValue 配置值，读写行为同 datatypes.JSON。
// sqlite 的 JSON 列是 NUMERIC 亲和性，数字会存成 INTEGER 后无法 Scan，所以 sqlite 下建成 text 列。
type JSONValue datatypes.JSON

func (j JSONValue) Value() (driver.Value, error) {
	return datatypes.JSON(j).Value()
}

func (j *JSONValue) Scan(value interface{}) error {
	return (*datatypes.JSON)(j).Scan(value)
}

func (j JSONValue) MarshalJSON() ([]byte, error) {
	return datatypes.JSON(j).MarshalJSON()
}

func (j *JSONValue) UnmarshalJSON(b []byte) error {
	return (*datatypes.JSON)(j).UnmarshalJSON(b)
}

func (j JSONValue) String() string {
	return string(j)
}

func (JSONValue) GormDataType() string {
	return "json"
}

func (JSONValue) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "sqlite" {
		return "text"
	}
	return datatypes.JSON{}.GormDBDataType(db, field)
}

func (j JSONValue) GormValue(ctx context.Context, db *gorm.DB) clause.Expr {
	return datatypes.JSON(j).GormValue(ctx, db)
}
