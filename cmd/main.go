package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/fourteentrees/flow-gateway/internal/config"
	"github.com/fourteentrees/flow-gateway/internal/flowcrypto"
	"github.com/fourteentrees/flow-gateway/internal/loaders"
	"github.com/fourteentrees/flow-gateway/internal/metrics"
	"github.com/fourteentrees/flow-gateway/internal/routes"
	"github.com/fourteentrees/flow-gateway/internal/utils"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		fmt.Println("Warning: Error loading .env file", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	cleanup := utils.InitLogger(cfg)
	defer cleanup()

	utils.Zlog.Info("Starting application",
		zap.String("service", cfg.ServiceName),
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.ServerPort))

	key, err := flowcrypto.LoadPrivateKeyFile(cfg.WhatsApp.PrivateKeyPath, cfg.WhatsApp.PEMPassphrase)
	if err != nil {
		utils.Zlog.Fatal("Failed to load flow private key", zap.Error(err))
	}

	// The database backs INIT and the visit flow only; without it those steps fail per request.
	var db *loaders.PostgresClient
	if cfg.DatabaseURL != "" {
		db, err = loaders.NewPostgresClient(cfg.DatabaseURL, cfg.WorkerCount)
		if err != nil {
			utils.Zlog.Fatal("Failed to create database client", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				utils.Zlog.Error("Error closing database connection", zap.Error(err))
			}
		}()
	} else {
		utils.Zlog.Warn("DATABASE_URL not set, running without a database")
	}

	metrics.Prom.WithGoCollectorRuntimeMetrics()
	metrics.Prom.WithBuildInfoCollector()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	if err := routes.SetupRoutes(router, db, cfg, key); err != nil {
		utils.Zlog.Fatal("Failed to set up routes", zap.Error(err))
	}

	// A card preview chains three collaborator calls.
	writeTimeout := 3*cfg.CollaboratorTimeout + 5*time.Second

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		utils.Zlog.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.Zlog.Error("Failed to start server", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.Zlog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		utils.Zlog.Error("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}

	utils.Zlog.Info("Server exited")
}
