package handler

import (
	"github.com/bitfantasy/partsdesk/internal/inventory/service"
	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	svc *service.DashboardService
}

func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// Summary GET /dashboard
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, summary)
}

// SalesStats GET /dashboard/sales-stats?period=day|week|month|year
func (h *DashboardHandler) SalesStats(c *gin.Context) {
	stats, err := h.svc.SalesStats(c.Request.Context(), c.DefaultQuery("period", "week"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, stats)
}
