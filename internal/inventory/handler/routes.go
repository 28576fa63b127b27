package handler

import (
	"github.com/bitfantasy/partsdesk/internal/access"
	"github.com/bitfantasy/partsdesk/internal/middleware"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册 /api/v1 下的全部业务路由，每个路由按权限策略校验
func RegisterRoutes(v1 *gin.RouterGroup, h *Handlers, authz middleware.Authorizer, jwtSecret string) {
	perm := func(p string) gin.HandlerFunc {
		return middleware.RequirePermission(authz, p)
	}

	// 认证 (无需登录)
	auth := v1.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)
	}

	// SSE 实时推送（需要认证，支持 query param token）
	sseGroup := v1.Group("/sse")
	sseGroup.Use(middleware.JWTAuth(jwtSecret))
	{
		sseGroup.GET("/events", h.SSE.Stream)
	}

	// 需要认证的接口
	authorized := v1.Group("")
	authorized.Use(middleware.JWTAuth(jwtSecret))
	{
		authorized.GET("/auth/me", h.Auth.GetCurrentUser)
		authorized.POST("/auth/logout", h.Auth.Logout)

		categories := authorized.Group("/categories")
		{
			categories.GET("", perm(access.PermMobilesView), h.Category.List)
			categories.GET("/:id", perm(access.PermMobilesView), h.Category.Get)
			categories.POST("", perm(access.PermMobilesAdd), h.Category.Create)
			categories.PATCH("/:id", perm(access.PermMobilesEdit), h.Category.Rename)
			categories.DELETE("/:id", perm(access.PermMobilesDelete), h.Category.Delete)
		}

		models := authorized.Group("/models")
		{
			models.GET("", perm(access.PermModelsView), h.Model.List)
			models.GET("/category/:categoryId", perm(access.PermModelsView), h.Model.ListByCategory)
			models.GET("/:id", perm(access.PermModelsView), h.Model.Get)
			models.POST("", perm(access.PermModelsAdd), h.Model.Create)
			models.PATCH("/:id", perm(access.PermModelsEdit), h.Model.Update)
			models.DELETE("/:id", perm(access.PermModelsDelete), h.Model.Delete)
		}

		parts := authorized.Group("/parts")
		{
			parts.GET("", perm(access.PermPartsView), h.Part.List)
			parts.GET("/low-stock/:threshold", perm(access.PermPartsView), h.Part.LowStock)
			parts.GET("/model/:modelId", perm(access.PermPartsView), h.Part.ListByModel)
			parts.GET("/import/template", perm(access.PermPartsAdd), h.Part.DownloadTemplate)
			parts.POST("/import", perm(access.PermPartsAdd), h.Part.Import)
			parts.GET("/:id", perm(access.PermPartsView), h.Part.Get)
			parts.GET("/:id/movements", perm(access.PermPartsView), h.Part.Movements)
			parts.POST("", perm(access.PermPartsAdd), h.Part.Create)
			parts.PATCH("/:id", perm(access.PermPartsEdit), h.Part.Update)
			parts.POST("/:id/restock", perm(access.PermPartsEdit), h.Part.Restock)
			parts.DELETE("/:id", perm(access.PermPartsDelete), h.Part.Delete)
		}

		sales := authorized.Group("/sales")
		{
			sales.GET("", perm(access.PermSalesView), h.Sale.List)
			sales.GET("/recent", perm(access.PermSalesView), h.Sale.Recent)
			sales.GET("/range", perm(access.PermSalesView), h.Sale.Range)
			sales.GET("/:id", perm(access.PermSalesView), h.Sale.Get)
			sales.GET("/:id/receipt", perm(access.PermSalesView), h.Sale.Receipt)
			sales.POST("", perm(access.PermSalesAdd), h.Sale.Create)
			sales.PATCH("/:id/status", perm(access.PermSalesEdit), h.Sale.UpdateStatus)
		}

		settings := authorized.Group("/settings")
		{
			settings.GET("", perm(access.PermSettingsView), h.Setting.List)
			settings.GET("/category/:category", perm(access.PermSettingsView), h.Setting.ListByCategory)
			settings.POST("", perm(access.PermSettingsEdit), h.Setting.Upsert)
			settings.PATCH("/:id", perm(access.PermSettingsEdit), h.Setting.Update)
			settings.DELETE("/:id", perm(access.PermSettingsEdit), h.Setting.Delete)
		}

		partTypes := authorized.Group("/part-types")
		{
			partTypes.GET("", perm(access.PermPartsView), h.PartType.All)
			partTypes.POST("/groups", perm(access.PermSettingsEdit), h.PartType.CreateGroup)
			partTypes.PUT("/groups/:group", perm(access.PermSettingsEdit), h.PartType.RenameGroup)
			partTypes.DELETE("/groups/:group", perm(access.PermSettingsEdit), h.PartType.DeleteGroup)
			partTypes.POST("/groups/:group/types", perm(access.PermSettingsEdit), h.PartType.AddType)
			partTypes.PUT("/groups/:group/types/:type", perm(access.PermSettingsEdit), h.PartType.RenameType)
			partTypes.DELETE("/groups/:group/types/:type", perm(access.PermSettingsEdit), h.PartType.RemoveType)
		}

		dashboard := authorized.Group("/dashboard", perm(access.PermDashboard))
		{
			dashboard.GET("", h.Dashboard.Summary)
			dashboard.GET("/sales-stats", h.Dashboard.SalesStats)
		}
	}
}
