package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bitfantasy/partsdesk/internal/inventory/entity"
	"github.com/bitfantasy/partsdesk/internal/inventory/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CategoryService 分类服务
type CategoryService struct {
	*deps
}

func NewCategoryService(d *deps) *CategoryService {
	return &CategoryService{deps: d}
}

// CategoryRequest 创建/重命名分类
type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// CategoryResult 创建结果，Reactivated 表示恢复了已停用的同名分类
type CategoryResult struct {
	Category    *entity.Category `json:"category"`
	Reactivated bool             `json:"reactivated"`
}

// CascadeResult 级联停用结果
type CascadeResult struct {
	DeletedModels int64 `json:"deleted_models"`
	AffectedParts int64 `json:"affected_parts"`
}

// List 在用分类
func (s *CategoryService) List(ctx context.Context) ([]entity.Category, error) {
	return s.repos.Category.FindActive(ctx)
}

// Get 在用分类详情，已停用视为不存在
func (s *CategoryService) Get(ctx context.Context, id string) (*entity.Category, error) {
	c, err := s.repos.Category.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Category", id)
	}
	if !c.State.IsActive() {
		return nil, &NotFoundError{Entity: "Category", ID: id}
	}
	return c, nil
}

// Create 创建分类。同名在用分类返回冲突；同名已停用分类按配置恢复启用。
func (s *CategoryService) Create(ctx context.Context, req *CategoryRequest) (*CategoryResult, error) {
	name := entity.NormalizeName(req.Name)
	if name == "" {
		return nil, &ValidationError{Message: "Category name is required"}
	}

	existing, err := s.repos.Category.FindByName(ctx, name)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find category: %w", err)
	}
	if existing != nil {
		if existing.State.IsActive() {
			return nil, &ConflictError{Message: "Category already exists"}
		}
		if s.inv.ReactivateRetired {
			if err := existing.State.Reactivate(); err != nil {
				return nil, err
			}
			existing.Name = name
			if err := s.repos.Category.Update(ctx, existing); err != nil {
				return nil, fmt.Errorf("reactivate category: %w", err)
			}
			s.hub.PublishInventoryUpdate("category", existing.ID, "reactivated")
			return &CategoryResult{Category: existing, Reactivated: true}, nil
		}
	}

	c := &entity.Category{
		ID:    uuid.New().String(),
		Name:  name,
		State: entity.LifecycleActive,
	}
	if err := s.repos.Category.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	s.hub.PublishInventoryUpdate("category", c.ID, "created")
	return &CategoryResult{Category: c}, nil
}

// Rename 重命名分类
func (s *CategoryService) Rename(ctx context.Context, id string, req *CategoryRequest) (*entity.Category, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	name := entity.NormalizeName(req.Name)
	if name == "" {
		return nil, &ValidationError{Message: "Category name is required"}
	}
	dup, err := s.repos.Category.ExistsActiveName(ctx, name, id)
	if err != nil {
		return nil, fmt.Errorf("check category name: %w", err)
	}
	if dup {
		return nil, &ConflictError{Message: "Category name already exists"}
	}
	c.Name = name
	if err := s.repos.Category.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	s.hub.PublishInventoryUpdate("category", c.ID, "updated")
	return c, nil
}

// Delete 在一个事务内停用分类、其在用机型以及这些机型下的在用配件。
func (s *CategoryService) Delete(ctx context.Context, id string) (*CascadeResult, error) {
	var result CascadeResult

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		result = CascadeResult{}

		c, err := tx.Category.FindByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "Category", id)
		}
		if err := c.State.Retire(); err != nil {
			return &NotFoundError{Entity: "Category", ID: id}
		}
		if err := tx.Category.Update(ctx, c); err != nil {
			return fmt.Errorf("retire category: %w", err)
		}

		modelIDs, err := tx.Model.ActiveIDsByCategory(ctx, id)
		if err != nil {
			return fmt.Errorf("list models: %w", err)
		}
		if result.DeletedModels, err = tx.Model.RetireByIDs(ctx, modelIDs); err != nil {
			return fmt.Errorf("retire models: %w", err)
		}
		if result.AffectedParts, err = tx.Part.RetireByModels(ctx, modelIDs); err != nil {
			return fmt.Errorf("retire parts: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("Category cascade aborted", zap.String("category_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Category retired",
		zap.String("category_id", id),
		zap.Int64("deleted_models", result.DeletedModels),
		zap.Int64("affected_parts", result.AffectedParts),
	)
	s.metrics.RecordCascade("models", result.DeletedModels)
	s.metrics.RecordCascade("parts", result.AffectedParts)
	s.cache.invalidate(ctx)
	s.hub.PublishInventoryUpdate("category", id, "retired")
	return &result, nil
}
