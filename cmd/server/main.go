package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/bizdir-backend/config"
	"github.com/ikkim/bizdir-backend/internal/app/controller"
	"github.com/ikkim/bizdir-backend/internal/app/repository"
	"github.com/ikkim/bizdir-backend/internal/app/service"
	"github.com/ikkim/bizdir-backend/internal/db"
	"github.com/ikkim/bizdir-backend/internal/middleware"
	"github.com/ikkim/bizdir-backend/internal/router"
	"github.com/ikkim/bizdir-backend/internal/scheduler"
	"github.com/ikkim/bizdir-backend/internal/storage"
	ws "github.com/ikkim/bizdir-backend/internal/websocket"
	"github.com/ikkim/bizdir-backend/pkg/logger"
	"github.com/ikkim/bizdir-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting business directory server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
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

	categories, err := config.LoadCategorySeed(cfg.Directory.CategoriesFile)
	if err != nil {
		logger.Fatal("Failed to load category seed", err)
	}
	if err := db.Migrate(categories); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis is optional; without it caching and logout revocation are skipped
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Warn("Continuing without Redis", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer redis.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := ws.NewHub()
	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()

	// Initialize repositories
	gdb := db.GetDB()
	userRepo := repository.NewUserRepository(gdb)
	listingRepo := repository.NewListingRepository(gdb)
	reviewRepo := repository.NewReviewRepository(gdb)
	categoryRepo := repository.NewCategoryRepository(gdb)
	notificationRepo := repository.NewNotificationRepository(gdb)
	messageRepo := repository.NewMessageRepository(gdb)

	// Initialize services
	cache := service.NewRedisListingCache(cfg.Redis.SnapshotTTL)
	authService := service.NewAuthService(
		userRepo,
		redis.BlacklistToken,
		redis.IsTokenBlacklisted,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	listingService := service.NewListingService(listingRepo, categoryRepo, cache, cfg.Directory.PlaceholderImage)
	reviewService := service.NewReviewService(reviewRepo, listingRepo, userRepo, cache)
	categoryService := service.NewCategoryService(categoryRepo, listingRepo, cache)
	notificationService := service.NewNotificationService(notificationRepo, hub)
	adminService := service.NewAdminService(listingRepo, userRepo, notificationService, cache)
	messageService := service.NewMessageService(messageRepo)
	aiService, err := service.NewAIService(ctx, &cfg.AI, categoryService)
	if err != nil {
		logger.Fatal("Failed to initialize category suggestion", err)
	}

	// Initialize controllers
	controllers := router.Controllers{
		Auth:         controller.NewAuthController(authService),
		Listing:      controller.NewListingController(listingService, reviewService, aiService),
		Category:     controller.NewCategoryController(categoryService),
		Admin:        controller.NewAdminController(adminService, listingService),
		Message:      controller.NewMessageController(messageService),
		Notification: controller.NewNotificationController(notificationService, hub, cfg.CORS.AllowedOrigins),
	}
	if cfg.S3.Bucket != "" {
		controllers.Upload = controller.NewUploadController(storage.NewS3Storage(&cfg.S3))
	}

	var digest *scheduler.PendingDigestScheduler
	if cfg.Scheduler.Enabled {
		digest = scheduler.NewPendingDigestScheduler(cfg.Scheduler.DigestCron, userRepo, adminService, notificationService)
		if err := digest.Start(); err != nil {
			logger.Fatal("Failed to start pending digest scheduler", err)
		}
	}

	// Setup router
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	engine := router.NewRouter(controllers, authMiddleware, cfg).Setup()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()
	logger.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	if digest != nil {
		digest.Stop()
	}
	<-hubDone

	logger.Info("Server stopped successfully")
}
