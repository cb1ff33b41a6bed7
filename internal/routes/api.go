package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fourteentrees/flow-gateway/internal/config"
	"github.com/fourteentrees/flow-gateway/internal/controllers"
)

// SetupSystemRoutes configures the versioned status endpoint
func SetupSystemRoutes(router *gin.Engine, cfg *config.Config) {
	systemController := controllers.NewSystemController(cfg)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/status", systemController.Status)
	}
}

// Setup404Handler configures the 404 handler
func Setup404Handler(router *gin.Engine) {
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not Found",
			"message": "The requested resource was not found",
			"path":    c.Request.URL.Path,
		})
	})
}
