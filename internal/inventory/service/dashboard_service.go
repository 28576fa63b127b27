package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/partsdesk/internal/inventory/entity"
)

// DashboardService 仪表盘统计
type DashboardService struct {
	*deps
	now func() time.Time
}

func NewDashboardService(d *deps) *DashboardService {
	return &DashboardService{deps: d, now: time.Now}
}

// DashboardSummary 首页概览
type DashboardSummary struct {
	TodaySales          int64         `json:"today_sales"`
	TodayRevenue        float64       `json:"today_revenue"`
	RecentSales         []entity.Sale `json:"recent_sales"`
	LowStockParts       []entity.Part `json:"low_stock_parts"`
	TotalInventoryValue float64       `json:"total_inventory_value"`
}

// SalesBucket 单个时间桶的销售统计
type SalesBucket struct {
	Period  string  `json:"period"`
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
}

// SalesStats 时间维度销售统计
type SalesStats struct {
	Period  string        `json:"period"`
	From    time.Time     `json:"from"`
	Buckets []SalesBucket `json:"buckets"`
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Summary 今日销售数、今日营业额、最近销售、低库存配件、库存总金额
func (s *DashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	var cached DashboardSummary
	if s.cache.get(ctx, "summary", &cached) {
		return &cached, nil
	}

	today, err := s.repos.Sale.FindSince(ctx, startOfDay(s.now()))
	if err != nil {
		return nil, fmt.Errorf("today sales: %w", err)
	}
	summary := &DashboardSummary{TodaySales: int64(len(today))}
	for _, sale := range today {
		summary.TodayRevenue += sale.TotalAmount
	}

	limit := s.inv.RecentSalesLimit
	if limit <= 0 {
		limit = 5
	}
	if summary.RecentSales, err = s.repos.Sale.FindRecent(ctx, limit); err != nil {
		return nil, fmt.Errorf("recent sales: %w", err)
	}
	if summary.LowStockParts, err = s.repos.Part.FindLowStock(ctx); err != nil {
		return nil, fmt.Errorf("low stock parts: %w", err)
	}
	if summary.TotalInventoryValue, err = s.repos.Part.InventoryValue(ctx); err != nil {
		return nil, fmt.Errorf("inventory value: %w", err)
	}

	s.cache.set(ctx, "summary", summary)
	return summary, nil
}

// SalesStats 按 day/week/month/year 统计：
// day 按小时分桶，week/month 按天，year 按月。
func (s *DashboardService) SalesStats(ctx context.Context, period string) (*SalesStats, error) {
	if period == "" {
		period = "week"
	}
	now := s.now()
	today := startOfDay(now)

	var (
		from   time.Time
		layout string
	)
	switch period {
	case "day":
		from, layout = today, "2006-01-02 15:00"
	case "week":
		from, layout = today.AddDate(0, 0, -6), "2006-01-02"
	case "month":
		from, layout = today.AddDate(0, -1, 0), "2006-01-02"
	case "year":
		from, layout = time.Date(now.Year()-1, now.Month(), 1, 0, 0, 0, 0, now.Location()), "2006-01"
	default:
		return nil, &ValidationError{Message: "period must be one of day, week, month, year"}
	}

	var cached SalesStats
	if s.cache.get(ctx, "stats:"+period, &cached) {
		return &cached, nil
	}

	sales, err := s.repos.Sale.FindSince(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("sales since %s: %w", from.Format(time.RFC3339), err)
	}

	stats := &SalesStats{Period: period, From: from, Buckets: []SalesBucket{}}
	index := make(map[string]int)
	for _, sale := range sales {
		key := sale.CreatedAt.In(now.Location()).Format(layout)
		i, ok := index[key]
		if !ok {
			i = len(stats.Buckets)
			index[key] = i
			stats.Buckets = append(stats.Buckets, SalesBucket{Period: key})
		}
		stats.Buckets[i].Count++
		stats.Buckets[i].Revenue += sale.TotalAmount
	}

	s.cache.set(ctx, "stats:"+period, stats)
	return stats, nil
}
