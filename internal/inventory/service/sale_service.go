package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/partsdesk/internal/inventory/entity"
	"github.com/bitfantasy/partsdesk/internal/inventory/repository"
	"github.com/bitfantasy/partsdesk/internal/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SaleService 销售服务
type SaleService struct {
	*deps
}

func NewSaleService(d *deps) *SaleService {
	return &SaleService{deps: d}
}

// SaleItemRequest 销售明细
type SaleItemRequest struct {
	PartID       string   `json:"part_id" binding:"required"`
	Quantity     int      `json:"quantity" binding:"required,min=1"`
	PricePerUnit *float64 `json:"price_per_unit" binding:"required,gte=0"`
}

// CreateSaleRequest 创建销售请求
type CreateSaleRequest struct {
	ModelID string            `json:"model_id" binding:"required"`
	Items   []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
}

func (r *CreateSaleRequest) validate() error {
	if r.ModelID == "" {
		return &ValidationError{Message: "model_id is required"}
	}
	if len(r.Items) == 0 {
		return &ValidationError{Message: "at least one item is required"}
	}
	for i, it := range r.Items {
		if it.PartID == "" {
			return &ValidationError{Message: fmt.Sprintf("items[%d]: part_id is required", i)}
		}
		if it.Quantity < 1 {
			return &ValidationError{Message: fmt.Sprintf("items[%d]: quantity must be at least 1", i)}
		}
		if it.PricePerUnit == nil || *it.PricePerUnit < 0 {
			return &ValidationError{Message: fmt.Sprintf("items[%d]: price_per_unit must be non-negative", i)}
		}
	}
	return nil
}

// priceMatches 提交单价与售价差额不超过容差（含边界）
func priceMatches(expected, got, tolerance float64) bool {
	diff := decimal.NewFromFloat(expected).Sub(decimal.NewFromFloat(got)).Abs()
	return diff.LessThanOrEqual(decimal.NewFromFloat(tolerance))
}

// Create 原子地完成一笔销售：校验机型、逐项校验并扣减库存、写入销售单。
// 任一项失败则整个事务回滚，库存不变且不产生销售记录。
func (s *SaleService) Create(ctx context.Context, userID string, req *CreateSaleRequest) (*entity.Sale, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var (
		sale     *entity.Sale
		lowStock []entity.Part
	)

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		lowStock = lowStock[:0]

		if _, err := tx.Model.FindByID(ctx, req.ModelID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return &NotFoundError{Entity: "Model", ID: req.ModelID, Message: "Model not found"}
			}
			return fmt.Errorf("find model: %w", err)
		}

		saleID := uuid.New().String()
		total := decimal.Zero
		items := make([]entity.SaleItem, 0, len(req.Items))
		movements := make([]*entity.StockMovement, 0, len(req.Items))

		for i, it := range req.Items {
			// 事务内重新读取，同一配件出现多次时看到的是前面扣减后的数量
			part, err := tx.Part.FindByIDForUpdate(ctx, it.PartID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return &NotFoundError{Entity: "Part", ID: it.PartID, Message: fmt.Sprintf("Part %s not found", it.PartID)}
				}
				return fmt.Errorf("find part %s: %w", it.PartID, err)
			}

			if part.Quantity < it.Quantity {
				return &InsufficientStockError{
					PartID:    part.ID,
					PartType:  part.Type,
					Available: part.Quantity,
					Requested: it.Quantity,
				}
			}

			price := *it.PricePerUnit
			if !priceMatches(part.Price, price, s.inv.PriceTolerance) {
				return &PriceMismatchError{
					PartID:   part.ID,
					PartType: part.Type,
					Expected: part.Price,
					Got:      price,
				}
			}

			before := part.Quantity
			part.Quantity -= it.Quantity
			part.SoldCount += it.Quantity
			if err := tx.Part.UpdateStock(ctx, part.ID, part.Quantity, part.SoldCount); err != nil {
				return fmt.Errorf("update stock %s: %w", part.ID, err)
			}

			// 金额列两位小数：按分取整后再存储和累加
			unitPrice := decimal.NewFromFloat(price).Round(2)
			total = total.Add(decimal.NewFromInt(int64(it.Quantity)).Mul(unitPrice))
			items = append(items, entity.SaleItem{
				ID:           uuid.New().String(),
				LineNo:       i + 1,
				PartID:       part.ID,
				Quantity:     it.Quantity,
				PricePerUnit: unitPrice.InexactFloat64(),
			})
			movements = append(movements, &entity.StockMovement{
				ID:             uuid.New().String(),
				PartID:         part.ID,
				Kind:           entity.MovementSale,
				Delta:          -it.Quantity,
				QuantityBefore: before,
				QuantityAfter:  part.Quantity,
				ReferenceID:    saleID,
				CreatedBy:      userID,
			})
			if part.IsLowStock() {
				lowStock = append(lowStock, *part)
			}
		}

		sale = &entity.Sale{
			ID:          saleID,
			ModelID:     req.ModelID,
			TotalAmount: total.InexactFloat64(),
			State:       entity.LifecycleActive,
			CreatedBy:   userID,
			Items:       items,
		}
		if err := tx.Sale.Create(ctx, sale); err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}
		if err := tx.Movement.Create(ctx, movements...); err != nil {
			return fmt.Errorf("record stock movements: %w", err)
		}
		return nil
	})
	if err != nil {
		s.metrics.RecordSale(saleOutcome(err), 0)
		s.logger.Warn("Sale aborted",
			zap.String("model_id", req.ModelID),
			zap.Int("items", len(req.Items)),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.RecordSale(metrics.OutcomeCommitted, sale.TotalAmount)
	s.logger.Info("Sale committed",
		zap.String("sale_id", sale.ID),
		zap.Float64("total_amount", sale.TotalAmount),
		zap.Int("items", len(sale.Items)),
	)

	s.cache.invalidate(ctx)
	s.hub.PublishSaleCreated(sale.ID, sale.ModelID, sale.TotalAmount, sale.ItemCount())
	for _, p := range uniqueParts(lowStock) {
		s.hub.PublishStockLow(p.ID, p.Name, p.Type, p.Quantity, p.Threshold)
	}
	s.metrics.RecordLowStock(len(uniqueParts(lowStock)))

	// 事务已提交，重新读取失败时返回内存中的记录
	created, err := s.repos.Sale.FindByID(ctx, sale.ID)
	if err != nil {
		s.logger.Warn("reload committed sale failed", zap.String("sale_id", sale.ID), zap.Error(err))
		return sale, nil
	}
	return created, nil
}

// uniqueParts 同一配件只保留最后一次（扣减后最新）的状态
func uniqueParts(parts []entity.Part) []entity.Part {
	idx := make(map[string]int, len(parts))
	out := make([]entity.Part, 0, len(parts))
	for _, p := range parts {
		if i, ok := idx[p.ID]; ok {
			out[i] = p
			continue
		}
		idx[p.ID] = len(out)
		out = append(out, p)
	}
	return out
}

func saleOutcome(err error) string {
	var (
		nf  *NotFoundError
		ins *InsufficientStockError
		pm  *PriceMismatchError
	)
	switch {
	case errors.As(err, &ins):
		return metrics.OutcomeInsufficientStock
	case errors.As(err, &pm):
		return metrics.OutcomePriceMismatch
	case errors.As(err, &nf):
		return metrics.OutcomeNotFound
	}
	return metrics.OutcomeError
}

// SaleList 销售列表及汇总
type SaleList struct {
	Items   []entity.Sale
	Total   int64
	Summary *repository.SaleSummary
}

// List 在用销售分页列表
func (s *SaleService) List(ctx context.Context, page, pageSize int, filter repository.SaleFilter) (*SaleList, error) {
	items, total, err := s.repos.Sale.FindAll(ctx, page, pageSize, filter)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	summary, err := s.repos.Sale.Summary(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("summarize sales: %w", err)
	}
	return &SaleList{Items: items, Total: total, Summary: summary}, nil
}

// Recent 最近销售
func (s *SaleService) Recent(ctx context.Context) ([]entity.Sale, error) {
	limit := s.inv.RecentSalesLimit
	if limit <= 0 {
		limit = 5
	}
	return s.repos.Sale.FindRecent(ctx, limit)
}

// Range 时间区间内销售
func (s *SaleService) Range(ctx context.Context, from, to time.Time) ([]entity.Sale, error) {
	if to.Before(from) {
		return nil, &ValidationError{Message: "end date must not be before start date"}
	}
	return s.repos.Sale.FindRange(ctx, from, to)
}

// Get 销售详情
func (s *SaleService) Get(ctx context.Context, id string) (*entity.Sale, error) {
	sale, err := s.repos.Sale.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Sale", id)
	}
	return sale, nil
}

// UpdateStatusRequest 更新销售状态
type UpdateStatusRequest struct {
	State string `json:"state" binding:"required"`
}

// UpdateStatus 修改销售状态，不影响库存
func (s *SaleService) UpdateStatus(ctx context.Context, id string, req *UpdateStatusRequest) (*entity.Sale, error) {
	state, err := entity.ParseLifecycle(req.State)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	if err := s.repos.Sale.UpdateState(ctx, id, state); err != nil {
		return nil, notFoundOr(err, "Sale", id)
	}
	s.cache.invalidate(ctx)
	return s.Get(ctx, id)
}
