package handlers

import (
	"context"
	"time"

	"investorconnect/internal/config"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	cfg     *config.Config
	checks  map[string]func(ctx context.Context) error
	timeout time.Duration
}

// NewHealthHandler creates a new health handler. checks maps a component
// name (database, docstore) to its ping.
func NewHealthHandler(cfg *config.Config, checks map[string]func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{
		cfg:     cfg,
		checks:  checks,
		timeout: 3 * time.Second,
	}
}

// Root handles root endpoint
// @Summary Root endpoint
// @Description Returns API status
// @Tags Health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "running",
		"message": "InvestorConnect API v1.0 is running",
		"mode":    h.cfg.AppMode,
		"docs":    "/swagger/index.html",
	})
}

// HealthCheck handles health check
// @Summary Health check
// @Description Check API, database and document store health
// @Tags Health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	checks := fiber.Map{"api": "healthy"}
	status, code := "ok", fiber.StatusOK
	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			checks[name] = "unhealthy"
			status, code = "degraded", fiber.StatusServiceUnavailable
			continue
		}
		checks[name] = "healthy"
	}

	return c.Status(code).JSON(fiber.Map{
		"status": status,
		"checks": checks,
	})
}

// APIInfo handles API v1 info
// @Summary API v1 Info
// @Description Returns API v1 information
// @Tags Health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1 [get]
func (h *HealthHandler) APIInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message":  "InvestorConnect API v1.0",
		"version":  "1.0.0",
		"docstore": h.cfg.DocStore.Driver,
	})
}
