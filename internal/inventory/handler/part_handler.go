package handler

import (
	"io"
	"strconv"

	"github.com/bitfantasy/partsdesk/internal/inventory/service"
	"github.com/gin-gonic/gin"
)

// 导入文件大小上限
const maxImportSize = 10 << 20

// PartHandler 配件处理器
type PartHandler struct {
	svc       *service.PartService
	importSvc *service.ImportService
}

func NewPartHandler(svc *service.PartService, importSvc *service.ImportService) *PartHandler {
	return &PartHandler{svc: svc, importSvc: importSvc}
}

// List GET /parts
func (h *PartHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// LowStock GET /parts/low-stock/:threshold
func (h *PartHandler) LowStock(c *gin.Context) {
	threshold, err := strconv.Atoi(c.Param("threshold"))
	if err != nil {
		BadRequest(c, "threshold must be an integer")
		return
	}
	items, err := h.svc.AtOrBelow(c.Request.Context(), threshold)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// ListByModel GET /parts/model/:modelId
func (h *PartHandler) ListByModel(c *gin.Context) {
	items, err := h.svc.ListByModel(c.Request.Context(), c.Param("modelId"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// Get GET /parts/:id
func (h *PartHandler) Get(c *gin.Context) {
	part, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, part)
}

// Movements GET /parts/:id/movements
func (h *PartHandler) Movements(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.Movements(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, ListResponse{Items: items, Pagination: newPagination(page, pageSize, total)})
}

// Create POST /parts
func (h *PartHandler) Create(c *gin.Context) {
	var req service.CreatePartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	result, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, result)
}

// Update PATCH /parts/:id
func (h *PartHandler) Update(c *gin.Context) {
	var req service.UpdatePartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	part, err := h.svc.Update(c.Request.Context(), GetUserID(c), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, part)
}

// Restock POST /parts/:id/restock
func (h *PartHandler) Restock(c *gin.Context) {
	var req service.RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	part, err := h.svc.Restock(c.Request.Context(), GetUserID(c), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, part)
}

// Delete DELETE /parts/:id
func (h *PartHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}

// Import POST /parts/import
func (h *PartHandler) Import(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		BadRequest(c, "Please upload an xlsx or csv file")
		return
	}
	defer file.Close()

	if header.Size > maxImportSize {
		BadRequest(c, "File too large")
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, maxImportSize))
	if err != nil {
		BadRequest(c, "Failed to read file: "+err.Error())
		return
	}

	result, err := h.importSvc.Import(c.Request.Context(), GetUserID(c), header.Filename, data)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, result)
}

// DownloadTemplate GET /parts/import/template
func (h *PartHandler) DownloadTemplate(c *gin.Context) {
	f, err := h.importSvc.Template()
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\"Parts_Import_Template.xlsx\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write template: "+err.Error())
	}
}
