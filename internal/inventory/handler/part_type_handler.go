package handler

import (
	"github.com/bitfantasy/partsdesk/internal/inventory/service"
	"github.com/gin-gonic/gin"
)

// PartTypeHandler 配件类型分组处理器
type PartTypeHandler struct {
	svc *service.PartTypeService
}

func NewPartTypeHandler(svc *service.PartTypeService) *PartTypeHandler {
	return &PartTypeHandler{svc: svc}
}

// All GET /part-types
func (h *PartTypeHandler) All(c *gin.Context) {
	groups, err := h.svc.All(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, groups)
}

// CreateGroup POST /part-types/groups
func (h *PartTypeHandler) CreateGroup(c *gin.Context) {
	var req service.NameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	group, err := h.svc.CreateGroup(c.Request.Context(), req.Name)
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, group)
}

// RenameGroup PUT /part-types/groups/:group
func (h *PartTypeHandler) RenameGroup(c *gin.Context) {
	var req service.NameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	group, err := h.svc.RenameGroup(c.Request.Context(), c.Param("group"), req.Name)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, group)
}

// DeleteGroup DELETE /part-types/groups/:group
func (h *PartTypeHandler) DeleteGroup(c *gin.Context) {
	if err := h.svc.DeleteGroup(c.Request.Context(), c.Param("group")); err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}

// AddType POST /part-types/groups/:group/types
func (h *PartTypeHandler) AddType(c *gin.Context) {
	var req service.NameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	group, err := h.svc.AddType(c.Request.Context(), c.Param("group"), req.Name)
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, group)
}

// RenameType PUT /part-types/groups/:group/types/:type
func (h *PartTypeHandler) RenameType(c *gin.Context) {
	var req service.NameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	group, err := h.svc.RenameType(c.Request.Context(), c.Param("group"), c.Param("type"), req.Name)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, group)
}

// RemoveType DELETE /part-types/groups/:group/types/:type
func (h *PartTypeHandler) RemoveType(c *gin.Context) {
	group, err := h.svc.RemoveType(c.Request.Context(), c.Param("group"), c.Param("type"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, group)
}
