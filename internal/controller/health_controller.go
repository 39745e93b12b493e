package controller

import (
	"publo-orchestrator/internal/config"
	"publo-orchestrator/internal/dto"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
	Ready(ctx *fiber.Ctx) error
}

type healthController struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewHealthController(db *gorm.DB, cfg *config.Config) IHealthController {
	return &healthController{db: db, cfg: cfg}
}

// RegisterRoutes mounts the probes on the app root, outside /api.
func (c *healthController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/health")
	h.Get("", c.Health)
	h.Get("/ready", c.Ready)
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(dto.HealthResponse{Status: "healthy"})
}

// Ready reports 200 only when every dependency check passes; a degraded
// instance answers 503 so the load balancer stops routing to it.
func (c *healthController) Ready(ctx *fiber.Ctx) error {
	checks := map[string]bool{
		"database":     c.pingDatabase(ctx),
		"llm_provider": c.cfg.Ai.AnthropicAPIKey != "" || c.cfg.Ai.OpenAIAPIKey != "" || c.cfg.Ai.ModelOverride != "",
	}

	status := "ready"
	code := fiber.StatusOK
	for _, ok := range checks {
		if !ok {
			status = "degraded"
			code = fiber.StatusServiceUnavailable
			break
		}
	}

	return ctx.Status(code).JSON(dto.ReadinessResponse{Status: status, Checks: checks})
}

func (c *healthController) pingDatabase(ctx *fiber.Ctx) bool {
	if c.db == nil {
		return false
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return false
	}
	return sqlDB.PingContext(ctx.Context()) == nil
}
