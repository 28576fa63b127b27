package handler

import (
	"errors"
	"strconv"

	"github.com/bitfantasy/partsdesk/internal/access"
	"github.com/bitfantasy/partsdesk/internal/inventory/service"
	"github.com/bitfantasy/partsdesk/internal/inventory/sse"
	"github.com/gin-gonic/gin"
)

// 业务错误码，HTTP 状态码 = code / 100
const (
	CodeValidation          = 40000
	CodeDuplicate           = 40010
	CodeInsufficientStock   = 40020
	CodePriceMismatch       = 40021
	CodeUnauthorized        = 40100
	CodeInvalidRefreshToken = 40101
	CodeForbidden           = 40300
	CodeNotFound            = 40400
	CodeInternal            = 50000
)

// Handlers 处理器集合
type Handlers struct {
	Auth      *AuthHandler
	Category  *CategoryHandler
	Model     *MobileModelHandler
	Part      *PartHandler
	Sale      *SaleHandler
	Setting   *SettingHandler
	PartType  *PartTypeHandler
	Dashboard *DashboardHandler
	SSE       *SSEHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services, hub *sse.Hub) *Handlers {
	return &Handlers{
		Auth:      NewAuthHandler(svc.Auth),
		Category:  NewCategoryHandler(svc.Category),
		Model:     NewMobileModelHandler(svc.Model),
		Part:      NewPartHandler(svc.Part, svc.Import),
		Sale:      NewSaleHandler(svc.Sale, svc.Receipt),
		Setting:   NewSettingHandler(svc.Setting),
		PartType:  NewPartTypeHandler(svc.PartType),
		Dashboard: NewDashboardHandler(svc.Dashboard),
		SSE:       NewSSEHandler(hub),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse 列表响应结构
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func newPagination(page, pageSize int, total int64) *Pagination {
	return &Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      int(total),
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	}
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	Fail(c, code, message, nil)
}

// Fail 带附加数据的错误响应
func Fail(c *gin.Context, code int, message string, data interface{}) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, CodeValidation, message)
}

// Unauthorized 未授权响应
func Unauthorized(c *gin.Context, message string) {
	Error(c, CodeUnauthorized, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, CodeNotFound, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, CodeInternal, message)
}

// handleError 按服务层错误类型输出响应，未识别的错误记录到 gin 上下文由日志中间件输出
func handleError(c *gin.Context, err error) {
	var (
		ve       *service.ValidationError
		conflict *service.ConflictError
		nf       *service.NotFoundError
		ins      *service.InsufficientStockError
		pm       *service.PriceMismatchError
	)
	switch {
	case errors.As(err, &ve):
		BadRequest(c, ve.Error())
	case errors.As(err, &conflict):
		Error(c, CodeDuplicate, conflict.Error())
	case errors.As(err, &ins):
		Fail(c, CodeInsufficientStock, ins.Error(), gin.H{
			"part_id":   ins.PartID,
			"available": ins.Available,
			"requested": ins.Requested,
		})
	case errors.As(err, &pm):
		Fail(c, CodePriceMismatch, pm.Error(), gin.H{
			"part_id":  pm.PartID,
			"expected": pm.Expected,
			"got":      pm.Got,
		})
	case errors.As(err, &nf):
		NotFound(c, nf.Error())
	case errors.Is(err, access.ErrInvalidCredentials):
		Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrInvalidRefreshToken):
		Error(c, CodeInvalidRefreshToken, err.Error())
	default:
		c.Error(err)
		InternalError(c, "Internal server error")
	}
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetPagination 从请求获取分页参数
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
