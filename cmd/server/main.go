package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hendrik2009/hearo-backend/config"
	"github.com/hendrik2009/hearo-backend/internal/app/controller"
	"github.com/hendrik2009/hearo-backend/internal/app/repository"
	"github.com/hendrik2009/hearo-backend/internal/app/service"
	"github.com/hendrik2009/hearo-backend/internal/db"
	"github.com/hendrik2009/hearo-backend/internal/middleware"
	"github.com/hendrik2009/hearo-backend/internal/router"
	"github.com/hendrik2009/hearo-backend/internal/scheduler"
	"github.com/hendrik2009/hearo-backend/internal/storage"
	"github.com/hendrik2009/hearo-backend/internal/websocket"
	"github.com/hendrik2009/hearo-backend/pkg/logger"
	"github.com/hendrik2009/hearo-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting HEARO tag service", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"db_driver":   cfg.Database.Driver,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Optional binding cache
	var bindingCache service.BindingCache
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, continuing without binding cache", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer redis.Close()
			bindingCache = service.NewRedisBindingCache(cfg.Redis.CacheTTL)
		}
	}

	// Event stream hub
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize repositories
	bindingRepo := repository.NewTagBindingRepository(db.GetDB())

	// Optional snapshot uploads
	var uploader service.SnapshotUploader
	if cfg.Snapshot.Enabled {
		uploader = storage.NewS3Storage(
			cfg.Snapshot.Region,
			cfg.Snapshot.Bucket,
			cfg.Snapshot.AccessKeyID,
			cfg.Snapshot.SecretAccessKey,
			cfg.Snapshot.BaseURL,
		)
	}

	// Initialize services
	bindingService := service.NewBindingService(bindingRepo, bindingCache, hub)
	exportService := service.NewExportService(bindingRepo, uploader)

	// Initialize controllers
	authController := controller.NewAuthController(cfg.Admin, cfg.JWT)
	bindingController := controller.NewBindingController(bindingService, exportService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Snapshot scheduler
	if cfg.Snapshot.Enabled {
		snapshotScheduler := scheduler.NewSnapshotScheduler(exportService, cfg.Snapshot.Schedule)
		if err := snapshotScheduler.Start(); err != nil {
			logger.Warn("Failed to start snapshot scheduler", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer snapshotScheduler.Stop()
		}
	}

	// Setup router
	r := router.NewRouter(
		authController,
		bindingController,
		authMiddleware,
		hub,
		cfg,
	)
	engine := r.Setup()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
