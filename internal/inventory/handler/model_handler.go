package handler

import (
	"github.com/bitfantasy/partsdesk/internal/inventory/service"
	"github.com/gin-gonic/gin"
)

// MobileModelHandler 机型处理器
type MobileModelHandler struct {
	svc *service.MobileModelService
}

func NewMobileModelHandler(svc *service.MobileModelService) *MobileModelHandler {
	return &MobileModelHandler{svc: svc}
}

// List GET /models
func (h *MobileModelHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// ListByCategory GET /models/category/:categoryId
func (h *MobileModelHandler) ListByCategory(c *gin.Context) {
	items, err := h.svc.ListByCategory(c.Request.Context(), c.Param("categoryId"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// Get GET /models/:id
func (h *MobileModelHandler) Get(c *gin.Context) {
	model, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, model)
}

// Create POST /models
func (h *MobileModelHandler) Create(c *gin.Context) {
	var req service.CreateModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	result, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, result)
}

// Update PATCH /models/:id
func (h *MobileModelHandler) Update(c *gin.Context) {
	var req service.UpdateModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	model, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, model)
}

// Delete DELETE /models/:id
func (h *MobileModelHandler) Delete(c *gin.Context) {
	result, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, result)
}
