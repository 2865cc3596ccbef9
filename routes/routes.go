package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ciudamos/handlers"
)

func SetupRouter(h *handlers.Handlers) *gin.Engine {
	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "Hola, bienvenido a CIUDAMOS",
			"mode":    h.Classifier.Mode(),
		})
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/ai/analyze-report", h.AnalyzeReport)

	// api routes
	api := r.Group("/api")
	{
		reports := api.Group("/reports")
		reports.GET("", h.ListReports)
		reports.POST("", h.CreateReport)
		reports.DELETE("", h.ClearReports)
		reports.GET("/:id", h.GetReport)
		reports.DELETE("/:id", h.DeleteReport)
		reports.POST("/:id/seen", h.MarkSeen)
		reports.PATCH("/:id/status", h.UpdateStatus)

		api.GET("/authorities", h.ListAuthorities)
		api.GET("/authorities/:id/reports", h.AuthorityReports)

		api.GET("/rewards", h.Rewards)
		api.GET("/rewards/offers", h.Offers)
		api.POST("/rewards/redeem", h.Redeem)
	}

	return r
}
