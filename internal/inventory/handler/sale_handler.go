package handler

import (
	"net/http"
	"time"

	"github.com/bitfantasy/partsdesk/internal/inventory/repository"
	"github.com/bitfantasy/partsdesk/internal/inventory/service"
	"github.com/gin-gonic/gin"
)

// SaleHandler 销售处理器
type SaleHandler struct {
	svc     *service.SaleService
	receipt *service.ReceiptService
}

func NewSaleHandler(svc *service.SaleService, receipt *service.ReceiptService) *SaleHandler {
	return &SaleHandler{svc: svc, receipt: receipt}
}

// parseTime 接受 RFC3339 或 YYYY-MM-DD；日期格式作为区间终点时取当天结束
func parseTime(value string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// List GET /sales
func (h *SaleHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)

	var filter repository.SaleFilter
	if v := c.Query("from"); v != "" {
		from, err := parseTime(v, false)
		if err != nil {
			BadRequest(c, "Invalid from date")
			return
		}
		filter.From = &from
	}
	if v := c.Query("to"); v != "" {
		to, err := parseTime(v, true)
		if err != nil {
			BadRequest(c, "Invalid to date")
			return
		}
		filter.To = &to
	}

	result, err := h.svc.List(c.Request.Context(), page, pageSize, filter)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{
		"items":      result.Items,
		"pagination": newPagination(page, pageSize, result.Total),
		"summary":    result.Summary,
	})
}

// Recent GET /sales/recent
func (h *SaleHandler) Recent(c *gin.Context) {
	items, err := h.svc.Recent(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// Range GET /sales/range?from=&to=
func (h *SaleHandler) Range(c *gin.Context) {
	from, err := parseTime(c.Query("from"), false)
	if err != nil {
		BadRequest(c, "from must be RFC3339 or YYYY-MM-DD")
		return
	}
	to, err := parseTime(c.Query("to"), true)
	if err != nil {
		BadRequest(c, "to must be RFC3339 or YYYY-MM-DD")
		return
	}

	items, err := h.svc.Range(c.Request.Context(), from, to)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// Get GET /sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	sale, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, sale)
}

// Create POST /sales
func (h *SaleHandler) Create(c *gin.Context) {
	var req service.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	sale, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, sale)
}

// UpdateStatus PATCH /sales/:id/status
func (h *SaleHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	sale, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, sale)
}

// Receipt GET /sales/:id/receipt
func (h *SaleHandler) Receipt(c *gin.Context) {
	pdf, sale, err := h.receipt.Render(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "inline; filename=\"receipt-"+sale.ID+".pdf\"")
	c.Data(http.StatusOK, "application/pdf", pdf)
}
