package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fourteentrees/flow-gateway/internal/controllers"
	"github.com/fourteentrees/flow-gateway/internal/loaders"
)

// SetupHealthRoutes configures health check endpoints
func SetupHealthRoutes(router *gin.Engine, db *loaders.PostgresClient) {
	healthController := controllers.NewHealthController(db)

	// Root endpoint
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	health := router.Group("/health")
	{
		health.GET("", healthController.HealthCheck)
		health.GET("/live", healthController.Liveness)
		health.GET("/ready", healthController.Readiness)
	}
}
