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

// MobileModelService 机型服务
type MobileModelService struct {
	*deps
}

func NewMobileModelService(d *deps) *MobileModelService {
	return &MobileModelService{deps: d}
}

// CreateModelRequest 创建机型
type CreateModelRequest struct {
	Name        string `json:"name" binding:"required"`
	CategoryID  string `json:"category_id" binding:"required"`
	Description string `json:"description"`
}

// UpdateModelRequest 更新机型，字段为空表示不修改
type UpdateModelRequest struct {
	Name        *string `json:"name"`
	CategoryID  *string `json:"category_id"`
	Description *string `json:"description"`
}

// ModelResult 创建结果
type ModelResult struct {
	Model       *entity.MobileModel `json:"model"`
	Reactivated bool                `json:"reactivated"`
}

// List 在用机型
func (s *MobileModelService) List(ctx context.Context) ([]entity.MobileModel, error) {
	return s.repos.Model.FindActive(ctx)
}

// ListByCategory 分类下在用机型
func (s *MobileModelService) ListByCategory(ctx context.Context, categoryID string) ([]entity.MobileModel, error) {
	return s.repos.Model.FindActiveByCategory(ctx, categoryID)
}

// Get 在用机型详情
func (s *MobileModelService) Get(ctx context.Context, id string) (*entity.MobileModel, error) {
	m, err := s.repos.Model.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Model", id)
	}
	if !m.State.IsActive() {
		return nil, &NotFoundError{Entity: "Model", ID: id}
	}
	return m, nil
}

func (s *MobileModelService) activeCategory(ctx context.Context, id string) (*entity.Category, error) {
	c, err := s.repos.Category.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Category", id)
	}
	if !c.State.IsActive() {
		return nil, &NotFoundError{Entity: "Category", ID: id}
	}
	return c, nil
}

// Create 创建机型，分类内名称唯一
func (s *MobileModelService) Create(ctx context.Context, req *CreateModelRequest) (*ModelResult, error) {
	name := entity.NormalizeName(req.Name)
	if name == "" {
		return nil, &ValidationError{Message: "Model name is required"}
	}
	if _, err := s.activeCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	existing, err := s.repos.Model.FindByNameInCategory(ctx, name, req.CategoryID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find model: %w", err)
	}
	if existing != nil {
		if existing.State.IsActive() {
			return nil, &ConflictError{Message: "Model already exists in this category"}
		}
		if s.inv.ReactivateRetired {
			if err := existing.State.Reactivate(); err != nil {
				return nil, err
			}
			existing.Name = name
			if req.Description != "" {
				existing.Description = req.Description
			}
			if err := s.repos.Model.Update(ctx, existing); err != nil {
				return nil, fmt.Errorf("reactivate model: %w", err)
			}
			s.hub.PublishInventoryUpdate("model", existing.ID, "reactivated")
			m, err := s.repos.Model.FindByID(ctx, existing.ID)
			if err != nil {
				return nil, err
			}
			return &ModelResult{Model: m, Reactivated: true}, nil
		}
	}

	m := &entity.MobileModel{
		ID:          uuid.New().String(),
		Name:        name,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		State:       entity.LifecycleActive,
	}
	if err := s.repos.Model.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create model: %w", err)
	}
	s.hub.PublishInventoryUpdate("model", m.ID, "created")
	created, err := s.repos.Model.FindByID(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	return &ModelResult{Model: created}, nil
}

// Update 更新机型。分类变化时同一事务内重新派生其配件的分类。
func (s *MobileModelService) Update(ctx context.Context, id string, req *UpdateModelRequest) (*entity.MobileModel, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	categoryChanged := false
	if req.CategoryID != nil && *req.CategoryID != m.CategoryID {
		if _, err := s.activeCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		m.CategoryID = *req.CategoryID
		categoryChanged = true
	}
	if req.Name != nil {
		name := entity.NormalizeName(*req.Name)
		if name == "" {
			return nil, &ValidationError{Message: "Model name is required"}
		}
		m.Name = name
	}
	if req.Name != nil || categoryChanged {
		dup, err := s.repos.Model.ExistsActiveName(ctx, m.Name, m.CategoryID, m.ID)
		if err != nil {
			return nil, fmt.Errorf("check model name: %w", err)
		}
		if dup {
			return nil, &ConflictError{Message: "Model name already exists in this category"}
		}
	}
	if req.Description != nil {
		m.Description = *req.Description
	}

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Model.Update(ctx, m); err != nil {
			return fmt.Errorf("update model: %w", err)
		}
		if categoryChanged {
			if _, err := tx.Part.RederiveCategory(ctx, m.ID, m.CategoryID); err != nil {
				return fmt.Errorf("rederive part category: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if categoryChanged {
		s.cache.invalidate(ctx)
	}
	s.hub.PublishInventoryUpdate("model", m.ID, "updated")
	return s.repos.Model.FindByID(ctx, m.ID)
}

// Delete 在一个事务内停用机型及其在用配件
func (s *MobileModelService) Delete(ctx context.Context, id string) (*CascadeResult, error) {
	var result CascadeResult

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		result = CascadeResult{}

		m, err := tx.Model.FindByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "Model", id)
		}
		if !m.State.IsActive() {
			return &NotFoundError{Entity: "Model", ID: id}
		}
		if result.AffectedParts, err = tx.Part.RetireByModels(ctx, []string{id}); err != nil {
			return fmt.Errorf("retire parts: %w", err)
		}
		if result.DeletedModels, err = tx.Model.RetireByIDs(ctx, []string{id}); err != nil {
			return fmt.Errorf("retire model: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("Model cascade aborted", zap.String("model_id", id), zap.Error(err))
		return nil, err
	}

	s.metrics.RecordCascade("parts", result.AffectedParts)
	s.cache.invalidate(ctx)
	s.hub.PublishInventoryUpdate("model", id, "retired")
	return &result, nil
}
