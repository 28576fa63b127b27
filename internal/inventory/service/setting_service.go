package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bitfantasy/partsdesk/internal/inventory/entity"
	"github.com/bitfantasy/partsdesk/internal/inventory/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SettingService 配置服务
type SettingService struct {
	*deps
}

func NewSettingService(d *deps) *SettingService {
	return &SettingService{deps: d}
}

// UpsertSettingRequest 按 key 新建或覆盖
type UpsertSettingRequest struct {
	Key         string          `json:"key" binding:"required"`
	Value       json.RawMessage `json:"value" binding:"required"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
}

// UpdateSettingRequest 按 ID 更新
type UpdateSettingRequest struct {
	Value       json.RawMessage `json:"value"`
	Description *string         `json:"description"`
	Category    *string         `json:"category"`
}

func parseSettingCategory(s string) (entity.SettingCategory, error) {
	if s == "" {
		return entity.SettingCategorySystem, nil
	}
	c := entity.SettingCategory(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", &ValidationError{Message: fmt.Sprintf("Invalid setting category %q", s)}
	}
	return c, nil
}

func settingValue(raw json.RawMessage) (entity.JSONValue, error) {
	if len(raw) == 0 || !json.Valid(raw) {
		return nil, &ValidationError{Message: "value must be valid JSON"}
	}
	return entity.JSONValue(raw), nil
}

// List 全部配置
func (s *SettingService) List(ctx context.Context) ([]entity.Setting, error) {
	return s.repos.Setting.FindAll(ctx)
}

// ListByCategory 按分类列出
func (s *SettingService) ListByCategory(ctx context.Context, category string) ([]entity.Setting, error) {
	c, err := parseSettingCategory(category)
	if err != nil {
		return nil, err
	}
	return s.repos.Setting.FindByCategory(ctx, c)
}

// Upsert key 存在则覆盖 value/description/category，否则新建
func (s *SettingService) Upsert(ctx context.Context, req *UpsertSettingRequest) (*entity.Setting, error) {
	key := strings.TrimSpace(req.Key)
	if key == "" {
		return nil, &ValidationError{Message: "key is required"}
	}
	category, err := parseSettingCategory(req.Category)
	if err != nil {
		return nil, err
	}
	value, err := settingValue(req.Value)
	if err != nil {
		return nil, err
	}

	setting, err := s.repos.Setting.FindByKey(ctx, key)
	switch {
	case err == nil:
		setting.Value = value
		setting.Description = req.Description
		setting.Category = category
		if err := s.repos.Setting.Update(ctx, setting); err != nil {
			return nil, fmt.Errorf("update setting: %w", err)
		}
	case errors.Is(err, repository.ErrNotFound):
		setting = &entity.Setting{
			ID:          uuid.New().String(),
			Key:         key,
			Value:       value,
			Description: req.Description,
			Category:    category,
		}
		if err := s.repos.Setting.Create(ctx, setting); err != nil {
			return nil, fmt.Errorf("create setting: %w", err)
		}
	default:
		return nil, fmt.Errorf("find setting: %w", err)
	}
	return setting, nil
}

// Update 按 ID 更新
func (s *SettingService) Update(ctx context.Context, id string, req *UpdateSettingRequest) (*entity.Setting, error) {
	setting, err := s.repos.Setting.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Setting", id)
	}
	if req.Value != nil {
		if setting.Value, err = settingValue(req.Value); err != nil {
			return nil, err
		}
	}
	if req.Description != nil {
		setting.Description = *req.Description
	}
	if req.Category != nil {
		if setting.Category, err = parseSettingCategory(*req.Category); err != nil {
			return nil, err
		}
	}
	if err := s.repos.Setting.Update(ctx, setting); err != nil {
		return nil, fmt.Errorf("update setting: %w", err)
	}
	return setting, nil
}

// Delete 删除配置
func (s *SettingService) Delete(ctx context.Context, id string) error {
	if err := s.repos.Setting.Delete(ctx, id); err != nil {
		return notFoundOr(err, "Setting", id)
	}
	return nil
}

// IntValue 读取整数配置，不存在或格式不对时返回 fallback。
// value 可以是 JSON 数字或数字字符串。
func (s *SettingService) IntValue(ctx context.Context, key string, fallback int) int {
	setting, err := s.repos.Setting.FindByKey(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("read setting failed", zap.String("key", key), zap.Error(err))
		}
		return fallback
	}
	var n json.Number
	if err := json.Unmarshal(setting.Value, &n); err != nil {
		var str string
		if json.Unmarshal(setting.Value, &str) != nil {
			return fallback
		}
		n = json.Number(strings.TrimSpace(str))
	}
	v, err := strconv.Atoi(n.String())
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
