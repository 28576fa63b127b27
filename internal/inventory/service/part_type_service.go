package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bitfantasy/partsdesk/internal/inventory/entity"
	"github.com/bitfantasy/partsdesk/internal/inventory/repository"
	"github.com/google/uuid"
)

// PartTypeService 配件类型分组服务
type PartTypeService struct {
	*deps
}

func NewPartTypeService(d *deps) *PartTypeService {
	return &PartTypeService{deps: d}
}

// NameRequest 单个名称
type NameRequest struct {
	Name string `json:"name" binding:"required"`
}

// All 分组 -> 类型列表
func (s *PartTypeService) All(ctx context.Context) (map[string][]string, error) {
	groups, err := s.repos.PartType.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(groups))
	for _, g := range groups {
		types := []string(g.Types)
		if types == nil {
			types = []string{}
		}
		out[g.Name] = types
	}
	return out, nil
}

func (s *PartTypeService) group(ctx context.Context, name string) (*entity.PartTypeGroup, error) {
	g, err := s.repos.PartType.FindByName(ctx, name)
	if err != nil {
		return nil, notFoundOr(err, "Part type group", name)
	}
	return g, nil
}

func (s *PartTypeService) ensureGroupNameFree(ctx context.Context, name, excludeID string) error {
	existing, err := s.repos.PartType.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != excludeID {
		return &ConflictError{Message: "Part type group already exists"}
	}
	return nil
}

// CreateGroup 新建分组
func (s *PartTypeService) CreateGroup(ctx context.Context, name string) (*entity.PartTypeGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Message: "group name is required"}
	}
	if err := s.ensureGroupNameFree(ctx, name, ""); err != nil {
		return nil, err
	}
	g := &entity.PartTypeGroup{ID: uuid.New().String(), Name: name, Types: []string{}}
	if err := s.repos.PartType.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("create part type group: %w", err)
	}
	return g, nil
}

// RenameGroup 重命名分组
func (s *PartTypeService) RenameGroup(ctx context.Context, oldName, newName string) (*entity.PartTypeGroup, error) {
	g, err := s.group(ctx, oldName)
	if err != nil {
		return nil, err
	}
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, &ValidationError{Message: "group name is required"}
	}
	if err := s.ensureGroupNameFree(ctx, newName, g.ID); err != nil {
		return nil, err
	}
	g.Name = newName
	if err := s.repos.PartType.Update(ctx, g); err != nil {
		return nil, fmt.Errorf("rename part type group: %w", err)
	}
	return g, nil
}

// DeleteGroup 删除分组
func (s *PartTypeService) DeleteGroup(ctx context.Context, name string) error {
	g, err := s.group(ctx, name)
	if err != nil {
		return err
	}
	return s.repos.PartType.Delete(ctx, g.ID)
}

// AddType 分组内新增类型，忽略大小写去重
func (s *PartTypeService) AddType(ctx context.Context, groupName, typeName string) (*entity.PartTypeGroup, error) {
	g, err := s.group(ctx, groupName)
	if err != nil {
		return nil, err
	}
	typeName = strings.TrimSpace(typeName)
	if typeName == "" {
		return nil, &ValidationError{Message: "type name is required"}
	}
	if g.IndexOf(typeName) >= 0 {
		return nil, &ConflictError{Message: "Part type already exists"}
	}
	g.Types = append(g.Types, typeName)
	if err := s.repos.PartType.Update(ctx, g); err != nil {
		return nil, fmt.Errorf("add part type: %w", err)
	}
	return g, nil
}

// RenameType 重命名分组内类型
func (s *PartTypeService) RenameType(ctx context.Context, groupName, oldType, newType string) (*entity.PartTypeGroup, error) {
	g, err := s.group(ctx, groupName)
	if err != nil {
		return nil, err
	}
	i := g.IndexOf(oldType)
	if i < 0 {
		return nil, &NotFoundError{Entity: "Part type", ID: oldType}
	}
	newType = strings.TrimSpace(newType)
	if newType == "" {
		return nil, &ValidationError{Message: "type name is required"}
	}
	if j := g.IndexOf(newType); j >= 0 && j != i {
		return nil, &ConflictError{Message: "Part type already exists"}
	}
	g.Types[i] = newType
	if err := s.repos.PartType.Update(ctx, g); err != nil {
		return nil, fmt.Errorf("rename part type: %w", err)
	}
	return g, nil
}

// RemoveType 删除分组内类型
func (s *PartTypeService) RemoveType(ctx context.Context, groupName, typeName string) (*entity.PartTypeGroup, error) {
	g, err := s.group(ctx, groupName)
	if err != nil {
		return nil, err
	}
	i := g.IndexOf(typeName)
	if i < 0 {
		return nil, &NotFoundError{Entity: "Part type", ID: typeName}
	}
	g.Types = append(g.Types[:i], g.Types[i+1:]...)
	if err := s.repos.PartType.Update(ctx, g); err != nil {
		return nil, fmt.Errorf("remove part type: %w", err)
	}
	return g, nil
}
