package controller

import (
	"publo-orchestrator/internal/dto"
	"publo-orchestrator/internal/pkg/serverutils"
	"publo-orchestrator/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IIntentController interface {
	RegisterRoutes(r fiber.Router)
	Analyze(ctx *fiber.Ctx) error
	Classify(ctx *fiber.Ctx) error
}

type intentController struct {
	service service.IIntentService
}

func NewIntentController(service service.IIntentService) IIntentController {
	return &intentController{service: service}
}

func (c *intentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/intent")
	h.Post("/analyze", c.Analyze)
	h.Post("/classify", c.Classify)
}

// Analyze runs the full two-stage classification.
func (c *intentController) Analyze(ctx *fiber.Ctx) error {
	var req dto.IntentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res := c.service.Analyze(ctx.Context(), &req)
	return ctx.JSON(res)
}

// Classify runs the pattern stage only. Debug surface for tuning the
// pattern tables without burning provider tokens.
func (c *intentController) Classify(ctx *fiber.Ctx) error {
	var req dto.IntentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res := c.service.Classify(&req)
	return ctx.JSON(res)
}
