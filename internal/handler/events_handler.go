package handler

import (
	"encoding/json"
	"os"

	"publo-orchestrator/internal/dto"
	"publo-orchestrator/internal/pkg/logger"
	"publo-orchestrator/internal/service"
	internalWS "publo-orchestrator/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// EventsHandler owns the live side of the orchestrator: the websocket
// endpoint clients watch workflow progress on, plus ops endpoints for
// broadcasting and poking the relay.
type EventsHandler struct {
	publisher service.IPublisherService
	hub       *internalWS.Hub
	logger    logger.ILogger
}

func NewEventsHandler(publisher service.IPublisherService, hub *internalWS.Hub, log logger.ILogger) *EventsHandler {
	return &EventsHandler{
		publisher: publisher,
		hub:       hub,
		logger:    log,
	}
}

// ServeWs handles websocket requests from the peer.
func (h *EventsHandler) ServeWs(c *fiber.Ctx) error {
	// Priority 1: Query Param (Browser standard)
	tokenStr := c.Query("token")

	// Priority 2: Authorization Header (Tooling/Non-browser standard)
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}

	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (Query 'token' or Header 'Authorization')"})
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})

	if err != nil || !token.Valid {
		h.logger.Warn("EventsHandler", "Invalid Token in WS Handshake", map[string]interface{}{"error": err})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}

	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing user_id"})
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID format in token"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(c *websocket.Conn) {
			h.logger.Info("EventsHandler", "Starting WebSocket session", map[string]interface{}{"user_id": userID})
			internalWS.ServeWs(h.hub, c, userID)
			h.logger.Info("EventsHandler", "WebSocket session ended", map[string]interface{}{"user_id": userID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// Broadcast pushes a system notice to every connected client.
func (h *EventsHandler) Broadcast(c *fiber.Ctx) error {
	type Request struct {
		Title   string `json:"title"`
		Message string `json:"message"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if req.Title == "" || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Title and Message are required"})
	}

	h.hub.Broadcast("system_notice", map[string]interface{}{
		"title":   req.Title,
		"message": req.Message,
	})

	return c.JSON(fiber.Map{"status": "Broadcast Queued"})
}

// DebugTriggerEvent drops a synthetic event on the relay topic to verify
// the watermill -> hub -> (NATS) path end to end.
func (h *EventsHandler) DebugTriggerEvent(c *fiber.Ctx) error {
	var req dto.PublishWorkflowEventMessage
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if req.EventType == "" {
		req.EventType = "test_event"
	}
	if req.Data == nil {
		req.Data = make(map[string]interface{})
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if h.publisher == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Event publisher not configured"})
	}

	if err := h.publisher.Publish(c.UserContext(), payload); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"status": "Event Published", "event": req})
}

// RegisterRoutes registers the live event routes.
func (h *EventsHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/events/broadcast", h.Broadcast)

	debug := router.Group("/debug")
	debug.Post("/trigger-event", h.DebugTriggerEvent)

	// WebSocket
	router.Get("/ws", h.ServeWs)
}
