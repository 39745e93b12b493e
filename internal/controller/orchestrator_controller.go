package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"publo-orchestrator/internal/dto"
	"publo-orchestrator/internal/pkg/serverutils"
	"publo-orchestrator/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IOrchestratorController interface {
	RegisterRoutes(r fiber.Router)
	Orchestrate(ctx *fiber.Ctx) error
	OrchestrateStream(ctx *fiber.Ctx) error
	ExecuteAction(ctx *fiber.Ctx) error
}

type orchestratorController struct {
	service service.IOrchestratorService
}

func NewOrchestratorController(service service.IOrchestratorService) IOrchestratorController {
	return &orchestratorController{service: service}
}

// RegisterRoutes mounts the workflow surface. These endpoints are called by
// the canvas gateway, which authenticates upstream; the session bookkeeping
// endpoints are the JWT-protected ones.
func (c *orchestratorController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/orchestrator")
	h.Post("/orchestrate", c.Orchestrate)
	h.Post("/orchestrate/stream", c.OrchestrateStream)
	h.Post("/actions/execute", c.ExecuteAction)
}

// Orchestrate runs the workflow to completion and returns the final state.
// Run-level failures still answer 200 with success=false; only transport and
// engine errors reach the error middleware.
func (c *orchestratorController) Orchestrate(ctx *fiber.Ctx) error {
	var req dto.OrchestrateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Orchestrate(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

// OrchestrateStream runs the workflow and streams progress as server-sent
// events. Each frame is "event: <name>\ndata: <json>\n\n"; the final frame
// is the done event carrying the full response.
func (c *orchestratorController) OrchestrateStream(ctx *fiber.Ctx) error {
	var req dto.OrchestrateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	// The stream writer runs after this handler returns; the fasthttp ctx
	// stays valid until it finishes.
	requestCtx := ctx.Context()
	requestCtx.SetBodyStreamWriter(func(w *bufio.Writer) {
		streamCtx, cancel := context.WithCancel(requestCtx)
		defer cancel()

		for event := range c.service.OrchestrateStream(streamCtx, &req) {
			data, err := json.Marshal(event.Data)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			if err := w.Flush(); err != nil {
				// Client went away; cancel the run and let the producer drain.
				return
			}
		}
	})

	return nil
}

// ExecuteAction performs one client-confirmed action. The outcome travels in
// the body's success flag, not the status code.
func (c *orchestratorController) ExecuteAction(ctx *fiber.Ctx) error {
	var req dto.ExecuteActionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res := c.service.ExecuteAction(ctx.Context(), &req)
	return ctx.JSON(res)
}
