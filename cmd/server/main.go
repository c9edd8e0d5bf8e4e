package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"investorconnect/internal/adapters/http/middleware"
	"investorconnect/internal/adapters/http/routes"
	"investorconnect/internal/adapters/persistence/models"
	"investorconnect/internal/adapters/persistence/repositories"
	"investorconnect/internal/config"
	"investorconnect/internal/core/services"
	"investorconnect/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	_ "investorconnect/docs" // Swagger docs
)

// @title InvestorConnect API
// @version 1.0
// @description Identity and document store backend for InvestorConnect

// @contact.name API Support

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("failed to load configuration", zap.Error(err))
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	if cfg.EnvFileMissing {
		log.Info("no .env file found, using environment variables")
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer config.CloseDatabase(db)

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatal("failed to auto migrate", zap.Error(err))
	}
	log.Info("database migration completed")

	// Open the configured document driver
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	docs, err := config.OpenDocumentStore(ctx, cfg, db, log)
	cancel()
	if err != nil {
		log.Fatal("failed to open document store", zap.Error(err))
	}
	defer docs.Close()

	// Seed sample listings (dev)
	if cfg.SeedSamples {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := config.NewSeeder(docs.Store, log.Named("seeder")).Run(ctx); err != nil {
			log.Warn("failed to seed sample listings", zap.Error(err))
		}
		cancel()
	}

	// Expired refresh-token cleanup
	cronService := services.NewCronService(repositories.NewRefreshTokenRepository(db), cfg.CleanupSchedule, log.Named("cron"))
	if err := cronService.Start(); err != nil {
		log.Fatal("failed to start cron", zap.Error(err))
	}
	defer cronService.Stop()

	// Create Fiber app
	app := fiber.New(middleware.AppConfig("InvestorConnect API v1.0"))

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes
	routes.Setup(app, db, docs, cfg, log)

	// Graceful shutdown
	go gracefulShutdown(app, log)

	// Start server
	log.Info("server starting",
		zap.String("port", cfg.Port),
		zap.String("mode", cfg.AppMode),
		zap.String("docstore", string(docs.Driver)),
	)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error("failed to start server", zap.Error(err))
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App, log *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		log.Error("error during shutdown", zap.Error(err))
	}
	log.Info("server stopped gracefully")
}
