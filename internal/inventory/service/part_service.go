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

// PartService 配件服务
type PartService struct {
	*deps
	settings *SettingService
}

func NewPartService(d *deps, settings *SettingService) *PartService {
	return &PartService{deps: d, settings: settings}
}

// CreatePartRequest 创建配件
type CreatePartRequest struct {
	Name      string   `json:"name" binding:"required"`
	Type      string   `json:"type" binding:"required"`
	ModelID   string   `json:"model_id" binding:"required"`
	Price     *float64 `json:"price" binding:"required,gte=0"`
	Quantity  *int     `json:"quantity" binding:"omitempty,gte=0"`
	Threshold *int     `json:"threshold" binding:"omitempty,gte=0"`
}

// UpdatePartRequest 更新配件，nil 字段不修改
type UpdatePartRequest struct {
	Name      *string  `json:"name"`
	Type      *string  `json:"type"`
	ModelID   *string  `json:"model_id"`
	Price     *float64 `json:"price" binding:"omitempty,gte=0"`
	Quantity  *int     `json:"quantity" binding:"omitempty,gte=0"`
	Threshold *int     `json:"threshold" binding:"omitempty,gte=0"`
	Reason    string   `json:"reason"`
}

// PartResult 创建结果
type PartResult struct {
	Part        *entity.Part `json:"part"`
	Reactivated bool         `json:"reactivated"`
}

// List 在用配件，库存少的在前
func (s *PartService) List(ctx context.Context) ([]entity.Part, error) {
	return s.repos.Part.FindActive(ctx)
}

// AtOrBelow 库存不超过 threshold 的在用配件
func (s *PartService) AtOrBelow(ctx context.Context, threshold int) ([]entity.Part, error) {
	if threshold < 0 {
		return nil, &ValidationError{Message: "threshold must be non-negative"}
	}
	return s.repos.Part.FindAtOrBelow(ctx, threshold)
}

// ListByModel 机型下在用配件，机型不存在返回 NotFound
func (s *PartService) ListByModel(ctx context.Context, modelID string) ([]entity.Part, error) {
	if _, err := s.repos.Model.FindByID(ctx, modelID); err != nil {
		return nil, notFoundOr(err, "Model", modelID)
	}
	return s.repos.Part.FindActiveByModel(ctx, modelID)
}

// Get 在用配件详情
func (s *PartService) Get(ctx context.Context, id string) (*entity.Part, error) {
	p, err := s.repos.Part.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Part", id)
	}
	if !p.State.IsActive() {
		return nil, &NotFoundError{Entity: "Part", ID: id}
	}
	return p, nil
}

// Movements 配件库存流水
func (s *PartService) Movements(ctx context.Context, id string, page, pageSize int) ([]entity.StockMovement, int64, error) {
	if _, err := s.repos.Part.FindByID(ctx, id); err != nil {
		return nil, 0, notFoundOr(err, "Part", id)
	}
	return s.repos.Movement.FindByPart(ctx, id, page, pageSize)
}

func (s *PartService) activeModel(ctx context.Context, repos *repository.Repositories, id string) (*entity.MobileModel, error) {
	m, err := repos.Model.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Model", id)
	}
	if !m.State.IsActive() {
		return nil, &NotFoundError{Entity: "Model", ID: id}
	}
	return m, nil
}

func (s *PartService) defaultThreshold(ctx context.Context) int {
	fallback := s.inv.DefaultThreshold
	if fallback <= 0 {
		fallback = entity.DefaultLowStockThreshold
	}
	if s.settings == nil {
		return fallback
	}
	return s.settings.IntValue(ctx, entity.SettingKeyDefaultThreshold, fallback)
}

// Create 创建配件。(name, type, model) 在在用配件中唯一；
// 命中已停用记录时按配置恢复启用，并使用本次提交的价格、数量和阈值。
func (s *PartService) Create(ctx context.Context, userID string, req *CreatePartRequest) (*PartResult, error) {
	name := strings.TrimSpace(req.Name)
	partType := strings.TrimSpace(req.Type)
	if name == "" || partType == "" {
		return nil, &ValidationError{Message: "Part name and type are required"}
	}
	if req.Price == nil || *req.Price < 0 {
		return nil, &ValidationError{Message: "price must be non-negative"}
	}
	quantity := 0
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	threshold := s.defaultThreshold(ctx)
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	if quantity < 0 || threshold < 0 {
		return nil, &ValidationError{Message: "quantity and threshold must be non-negative"}
	}

	var (
		part        *entity.Part
		reactivated bool
	)
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		model, err := s.activeModel(ctx, tx, req.ModelID)
		if err != nil {
			return err
		}

		existing, err := tx.Part.FindDuplicate(ctx, name, partType, model.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("find part: %w", err)
		}

		if existing != nil && existing.State.IsActive() {
			return &ConflictError{Message: "Part already exists for this model"}
		}

		before := 0
		if existing != nil && s.inv.ReactivateRetired {
			if err := existing.State.Reactivate(); err != nil {
				return err
			}
			before = existing.Quantity
			part = existing
			reactivated = true
		} else {
			part = &entity.Part{
				ID:    uuid.New().String(),
				Name:  name,
				Type:  partType,
				State: entity.LifecycleActive,
			}
		}
		part.AssignModel(model)
		part.Price = *req.Price
		part.Quantity = quantity
		part.Threshold = threshold

		if reactivated {
			err = tx.Part.Update(ctx, part)
		} else {
			err = tx.Part.Create(ctx, part)
		}
		if err != nil {
			return fmt.Errorf("save part: %w", err)
		}

		if part.Quantity != before {
			return tx.Movement.Create(ctx, &entity.StockMovement{
				ID:             uuid.New().String(),
				PartID:         part.ID,
				Kind:           entity.MovementRestock,
				Delta:          part.Quantity - before,
				QuantityBefore: before,
				QuantityAfter:  part.Quantity,
				CreatedBy:      userID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	action := "created"
	if reactivated {
		action = "reactivated"
	}
	s.cache.invalidate(ctx)
	s.hub.PublishInventoryUpdate("part", part.ID, action)

	created, err := s.repos.Part.FindByID(ctx, part.ID)
	if err != nil {
		return nil, err
	}
	return &PartResult{Part: created, Reactivated: reactivated}, nil
}

// Update 更新配件。修改机型时重新派生分类；修改数量时记录调整流水。
func (s *PartService) Update(ctx context.Context, userID, id string, req *UpdatePartRequest) (*entity.Part, error) {
	var part *entity.Part

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		p, err := tx.Part.FindByIDForUpdate(ctx, id)
		if err != nil {
			return notFoundOr(err, "Part", id)
		}
		if !p.State.IsActive() {
			return &NotFoundError{Entity: "Part", ID: id}
		}

		identityChanged := false
		if req.Name != nil {
			if v := strings.TrimSpace(*req.Name); v != "" && v != p.Name {
				p.Name = v
				identityChanged = true
			}
		}
		if req.Type != nil {
			if v := strings.TrimSpace(*req.Type); v != "" && v != p.Type {
				p.Type = v
				identityChanged = true
			}
		}
		if req.ModelID != nil && *req.ModelID != p.ModelID {
			model, err := s.activeModel(ctx, tx, *req.ModelID)
			if err != nil {
				return err
			}
			p.AssignModel(model)
			identityChanged = true
		}
		if identityChanged {
			dup, err := tx.Part.FindDuplicate(ctx, p.Name, p.Type, p.ModelID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("find part: %w", err)
			}
			if dup != nil && dup.ID != p.ID && dup.State.IsActive() {
				return &ConflictError{Message: "Part already exists for this model"}
			}
		}
		if req.Price != nil {
			if *req.Price < 0 {
				return &ValidationError{Message: "price must be non-negative"}
			}
			p.Price = *req.Price
		}
		if req.Threshold != nil {
			if *req.Threshold < 0 {
				return &ValidationError{Message: "threshold must be non-negative"}
			}
			p.Threshold = *req.Threshold
		}

		var movement *entity.StockMovement
		if req.Quantity != nil && *req.Quantity != p.Quantity {
			if *req.Quantity < 0 {
				return &ValidationError{Message: "quantity must be non-negative"}
			}
			movement = &entity.StockMovement{
				ID:             uuid.New().String(),
				PartID:         p.ID,
				Kind:           entity.MovementAdjustment,
				Delta:          *req.Quantity - p.Quantity,
				QuantityBefore: p.Quantity,
				QuantityAfter:  *req.Quantity,
				Reason:         req.Reason,
				CreatedBy:      userID,
			}
			p.Quantity = *req.Quantity
		}

		if err := tx.Part.Update(ctx, p); err != nil {
			return fmt.Errorf("update part: %w", err)
		}
		if movement != nil {
			if err := tx.Movement.Create(ctx, movement); err != nil {
				return fmt.Errorf("record adjustment: %w", err)
			}
		}
		part = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.invalidate(ctx)
	s.hub.PublishInventoryUpdate("part", part.ID, "updated")
	if part.IsLowStock() {
		s.hub.PublishStockLow(part.ID, part.Name, part.Type, part.Quantity, part.Threshold)
	}
	return s.repos.Part.FindByID(ctx, part.ID)
}

// Delete 停用配件
func (s *PartService) Delete(ctx context.Context, id string) error {
	p, err := s.repos.Part.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "Part", id)
	}
	if err := p.State.Retire(); err != nil {
		return &NotFoundError{Entity: "Part", ID: id}
	}
	if err := s.repos.Part.Update(ctx, p); err != nil {
		return fmt.Errorf("retire part: %w", err)
	}
	s.cache.invalidate(ctx)
	s.hub.PublishInventoryUpdate("part", id, "retired")
	return nil
}

// RestockRequest 入库
type RestockRequest struct {
	Quantity int      `json:"quantity" binding:"required,min=1"`
	Price    *float64 `json:"price" binding:"omitempty,gte=0"`
	Reason   string   `json:"reason"`
}

// Restock 增加库存并记录流水，可同时更新售价
func (s *PartService) Restock(ctx context.Context, userID, id string, req *RestockRequest) (*entity.Part, error) {
	return s.restock(ctx, userID, id, req, entity.MovementRestock)
}

func (s *PartService) restock(ctx context.Context, userID, id string, req *RestockRequest, kind entity.MovementKind) (*entity.Part, error) {
	if req.Quantity < 1 {
		return nil, &ValidationError{Message: "quantity must be at least 1"}
	}
	if req.Price != nil && *req.Price < 0 {
		return nil, &ValidationError{Message: "price must be non-negative"}
	}

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		p, err := tx.Part.FindByIDForUpdate(ctx, id)
		if err != nil {
			return notFoundOr(err, "Part", id)
		}
		if !p.State.IsActive() {
			return &NotFoundError{Entity: "Part", ID: id}
		}
		before := p.Quantity
		p.Quantity += req.Quantity
		if req.Price != nil {
			p.Price = *req.Price
		}
		if err := tx.Part.Update(ctx, p); err != nil {
			return fmt.Errorf("restock part: %w", err)
		}
		return tx.Movement.Create(ctx, &entity.StockMovement{
			ID:             uuid.New().String(),
			PartID:         p.ID,
			Kind:           kind,
			Delta:          req.Quantity,
			QuantityBefore: before,
			QuantityAfter:  p.Quantity,
			Reason:         req.Reason,
			CreatedBy:      userID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.cache.invalidate(ctx)
	s.hub.PublishInventoryUpdate("part", id, "restocked")
	return s.repos.Part.FindByID(ctx, id)
}
