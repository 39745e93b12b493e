package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateOrchestratorSessionRequest struct {
	UserId   uuid.UUID              `json:"user_id" validate:"required"`
	CanvasId *uuid.UUID             `json:"canvas_id,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type OrchestratorSessionResponse struct {
	Id        uuid.UUID              `json:"id"`
	UserId    uuid.UUID              `json:"user_id"`
	CanvasId  *uuid.UUID             `json:"canvas_id,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	IsActive  bool                   `json:"is_active"`
	CreatedAt time.Time              `json:"created_at"`
}

type AddOrchestratorMessageRequest struct {
	SessionId uuid.UUID              `json:"session_id" validate:"required"`
	Role      string                 `json:"role" validate:"required,oneof=user orchestrator system"`
	Content   string                 `json:"content" validate:"required"`
	Type      string                 `json:"type,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type OrchestratorMessageResponse struct {
	Id        uuid.UUID              `json:"id"`
	SessionId uuid.UUID              `json:"session_id"`
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	Type      string                 `json:"type"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

type DeleteOrchestratorSessionResponse struct {
	Status    string    `json:"status"`
	SessionId uuid.UUID `json:"session_id"`
}
