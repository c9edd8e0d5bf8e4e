package routes

import (
	"context"

	"investorconnect/internal/adapters/http/handlers"
	"investorconnect/internal/adapters/http/middleware"
	"investorconnect/internal/adapters/persistence/repositories"
	"investorconnect/internal/config"
	"investorconnect/internal/core/services"
	"investorconnect/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, docs *config.DocumentStore, cfg *config.Config, log *zap.Logger) {
	// Initialize repositories
	accountRepo := repositories.NewAccountRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)

	// Initialize services
	identityService := services.NewIdentityService(accountRepo, refreshTokenRepo, cfg, log.Named("identity"))
	documentService := services.NewDocumentService(docs.Store, log.Named("docstore"))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg, map[string]func(ctx context.Context) error{
		"database": func(context.Context) error { return config.DatabaseHealthCheck(db) },
		"docstore": docs.Ping,
	})
	authHandler := handlers.NewAuthHandler(identityService, cfg)
	documentHandler := handlers.NewDocumentHandler(documentService)

	Register(app, cfg, healthHandler, authHandler, documentHandler)
}

// Register mounts the handlers on app
func Register(
	app *fiber.App,
	cfg *config.Config,
	healthHandler *handlers.HealthHandler,
	authHandler *handlers.AuthHandler,
	documentHandler *handlers.DocumentHandler,
) {
	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Prometheus scrape endpoint
	app.Get("/metrics", metrics.Handler())

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	setupAuthRoutes(apiV1.Group("/auth"), authHandler, cfg)
	setupDocumentRoutes(apiV1.Group("/collections"), documentHandler, cfg)
}

// setupAuthRoutes configures identity routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	router.Use(middleware.NoCacheHeaders())

	// Public routes
	router.Post("/register", handler.Register)
	router.Post("/login", handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Put("/profile", middleware.AuthMiddleware(cfg), handler.UpdateProfile)
}

// setupDocumentRoutes configures the document store routes. Reads are
// public; writes need a signed-in identity but no particular role.
func setupDocumentRoutes(router fiber.Router, handler *handlers.DocumentHandler, cfg *config.Config) {
	router.Get("/:collection/documents/:id", handler.Get)
	router.Post("/:collection/query", handler.Query)

	router.Post("/:collection/documents", middleware.AuthMiddleware(cfg), handler.Add)
	router.Put("/:collection/documents/:id", middleware.AuthMiddleware(cfg), handler.Set)
}
