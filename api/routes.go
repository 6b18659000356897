package api

import (
	"kbconsole/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts every endpoint under /api. Every route needs a principal.
func (h *APIHandler) RegisterRoutes(r *gin.Engine) {
	apiGroup := r.Group("/api", middleware.RequireAuth())
	{
		apiGroup.GET("/init", h.InitHandler)
		apiGroup.POST("/auth/signout", h.SignOutHandler)

		articles := apiGroup.Group("/articles")
		{
			articles.GET("", h.ListArticlesHandler)
			articles.POST("", h.CreateArticleHandler)
			articles.GET("/:id", h.GetArticleHandler)
			articles.PUT("/:id", h.UpdateArticleHandler)
			articles.DELETE("/:id", h.DeleteArticleHandler)
			articles.GET("/:id/versions", h.ListVersionsHandler)
			articles.POST("/:id/submit", h.SubmitArticleHandler)
			articles.POST("/:id/approve", h.ApproveArticleHandler)
			articles.POST("/:id/reject", h.RejectArticleHandler)
			articles.POST("/:id/favorite", h.ToggleFavoriteHandler)
			articles.POST("/:id/view", h.RecordViewHandler)
			articles.POST("/:id/helpful", h.MarkHelpfulHandler)
			articles.GET("/:id/export", h.ExportArticleHandler)
		}

		apiGroup.GET("/dashboard/summary", h.DashboardSummaryHandler)
		apiGroup.GET("/cost-metrics", h.CostMetricsHandler)
		apiGroup.GET("/security-alerts", h.SecurityAlertsHandler)
	}
}
