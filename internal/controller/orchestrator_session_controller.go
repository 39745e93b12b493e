package controller

import (
	"publo-orchestrator/internal/dto"
	"publo-orchestrator/internal/pkg/serverutils"
	"publo-orchestrator/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IOrchestratorSessionController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	GetActive(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
	Close(ctx *fiber.Ctx) error
	AddMessage(ctx *fiber.Ctx) error
	GetMessages(ctx *fiber.Ctx) error
}

type orchestratorSessionController struct {
	service service.ISessionService
}

func NewOrchestratorSessionController(service service.ISessionService) IOrchestratorSessionController {
	return &orchestratorSessionController{service: service}
}

func (c *orchestratorSessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/orchestrator")
	h.Use(serverutils.JwtMiddleware) // ✅ PROTECTED
	h.Post("/sessions", c.Create)
	h.Get("/sessions", c.GetAll)
	h.Get("/sessions/active", c.GetActive)
	h.Delete("/sessions/:id", c.Close)
	h.Post("/messages", c.AddMessage)
	h.Get("/sessions/:id/messages", c.GetMessages)
}

func (c *orchestratorSessionController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateOrchestratorSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateSession(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(res)
}

// GetActive looks up the most recent active session. The canvas gateway
// calls this server-to-server with an explicit user_id; without one, the
// token's user is used.
func (c *orchestratorSessionController) GetActive(ctx *fiber.Ctx) error {
	userId, err := uuid.Parse(ctx.Query("user_id"))
	if err != nil {
		userIdStr := ctx.Locals("user_id").(string)
		userId, _ = uuid.Parse(userIdStr)
	}

	res, err := c.service.GetActiveSession(ctx.Context(), userId)
	if err != nil {
		return err
	}
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "No active session")
	}

	return ctx.JSON(res)
}

func (c *orchestratorSessionController) GetAll(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	limit := ctx.QueryInt("limit", 20)
	offset := ctx.QueryInt("offset", 0)

	res, err := c.service.GetUserSessions(ctx.Context(), userId, limit, offset)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get user sessions", res))
}

func (c *orchestratorSessionController) Close(ctx *fiber.Ctx) error {
	idParam := ctx.Params("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid session id")
	}

	if err := c.service.CloseSession(ctx.Context(), id); err != nil {
		return err
	}

	return ctx.JSON(dto.DeleteOrchestratorSessionResponse{
		Status:    "success",
		SessionId: id,
	})
}

func (c *orchestratorSessionController) AddMessage(ctx *fiber.Ctx) error {
	var req dto.AddOrchestratorMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.AddMessage(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(res)
}

func (c *orchestratorSessionController) GetMessages(ctx *fiber.Ctx) error {
	idParam := ctx.Params("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid session id")
	}

	limit := ctx.QueryInt("limit", 50)

	res, err := c.service.GetSessionMessages(ctx.Context(), id, limit)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}
