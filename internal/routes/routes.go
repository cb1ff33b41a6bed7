package routes

import (
	"crypto/rsa"

	"github.com/gin-gonic/gin"

	"github.com/fourteentrees/flow-gateway/internal/api/channels/whatsapp"
	"github.com/fourteentrees/flow-gateway/internal/config"
	"github.com/fourteentrees/flow-gateway/internal/loaders"
	"github.com/fourteentrees/flow-gateway/internal/metrics"
	"github.com/fourteentrees/flow-gateway/internal/middleware"
)

// SetupRoutes configures all application routes
func SetupRoutes(router *gin.Engine, db *loaders.PostgresClient, cfg *config.Config, key *rsa.PrivateKey) error {
	// Apply global middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())

	// Setup route groups
	SetupHealthRoutes(router, db)
	SetupSystemRoutes(router, cfg)
	router.GET("/metrics", gin.WrapH(metrics.Prom.Handler()))
	if err := whatsapp.RegisterRoutes(router, db, cfg, key); err != nil {
		return err
	}
	Setup404Handler(router)
	return nil
}
