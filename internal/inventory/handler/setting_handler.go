package handler

import (
	"github.com/bitfantasy/partsdesk/internal/inventory/service"
	"github.com/gin-gonic/gin"
)

// SettingHandler 系统配置处理器
type SettingHandler struct {
	svc *service.SettingService
}

func NewSettingHandler(svc *service.SettingService) *SettingHandler {
	return &SettingHandler{svc: svc}
}

// List GET /settings
func (h *SettingHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// ListByCategory GET /settings/category/:category
func (h *SettingHandler) ListByCategory(c *gin.Context) {
	items, err := h.svc.ListByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// Upsert POST /settings
func (h *SettingHandler) Upsert(c *gin.Context) {
	var req service.UpsertSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	setting, err := h.svc.Upsert(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, setting)
}

// Update PATCH /settings/:id
func (h *SettingHandler) Update(c *gin.Context) {
	var req service.UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	setting, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, setting)
}

// Delete DELETE /settings/:id
func (h *SettingHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}
