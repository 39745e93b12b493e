package dto

import (
	"github.com/google/uuid"
)

// Wire contract for POST /api/orchestrator/orchestrate. Field names are
// snake_case to match the canvas frontend client.

type SegmentDTO struct {
	Id      string `json:"id" validate:"required"`
	Name    string `json:"name"`
	Level   int    `json:"level"`
	Content string `json:"content,omitempty"`
}

type StructureItemDTO struct {
	Id         string `json:"id"`
	Name       string `json:"name"`
	Level      int    `json:"level"`
	ParentId   string `json:"parent_id,omitempty"`
	HasContent bool   `json:"has_content"`
}

type TurnDTO struct {
	Role    string `json:"role" validate:"required"`
	Content string `json:"content" validate:"required"`
}

type OrchestrateRequest struct {
	Message           string      `json:"message" validate:"required"`
	UserId            uuid.UUID   `json:"user_id" validate:"required"`
	SessionId         *uuid.UUID  `json:"session_id,omitempty"`
	ActiveSegment     *SegmentDTO `json:"active_segment,omitempty"`
	DocumentPanelOpen bool        `json:"document_panel_open"`
	DocumentFormat    string      `json:"document_format,omitempty"`
	// CanvasContext is a free-text canvas summary, kept as-is and handed to
	// the workflow untouched. Structured canvas state goes through /api/intent.
	CanvasContext       string             `json:"canvas_context,omitempty"`
	StructureItems      []StructureItemDTO `json:"structure_items,omitempty"`
	ConversationHistory []TurnDTO          `json:"conversation_history,omitempty"`
	ModelMode           string             `json:"model_mode,omitempty" validate:"omitempty,oneof=automatic fixed"`
	FixedModelId        string             `json:"fixed_model_id,omitempty"`
	EnableCritic        *bool              `json:"enable_critic,omitempty"`  // nil means enabled
	MaxIterations       int                `json:"max_iterations,omitempty"` // 0 means default (3)
}

type ActionDTO struct {
	Type              string                 `json:"type"`
	Payload           map[string]interface{} `json:"payload"`
	RequiresUserInput bool                   `json:"requires_user_input"`
	Priority          string                 `json:"priority"`
}

type WorkflowMessageDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

type SectionResultDTO struct {
	SectionId string `json:"section_id"`
	Content   string `json:"content"`
	WordCount int    `json:"word_count"`
}

type OrchestrateResponse struct {
	Success        bool                 `json:"success"`
	SessionId      *uuid.UUID           `json:"session_id,omitempty"`
	Intent         string               `json:"intent,omitempty"`
	Confidence     float64              `json:"confidence,omitempty"`
	Reasoning      string               `json:"reasoning,omitempty"`
	Strategy       string               `json:"strategy,omitempty"`
	Actions        []ActionDTO          `json:"actions"`
	Messages       []WorkflowMessageDTO `json:"messages"`
	Results        []SectionResultDTO   `json:"results"`
	IterationsUsed int                  `json:"iterations_used"`
	CriticApproved *bool                `json:"critic_approved,omitempty"`
	Error          string               `json:"error,omitempty"`
}

// StreamEventDTO is one frame of the streaming orchestrate endpoint. Event
// becomes the SSE event name; Data is marshalled as the event body.
type StreamEventDTO struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// --- Direct action execution ---

type ExecuteActionRequest struct {
	Action  ActionDTO              `json:"action" validate:"required"`
	Context map[string]interface{} `json:"context,omitempty"`
}

type ExecuteActionResponse struct {
	Success  bool                   `json:"success"`
	Content  string                 `json:"content,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// --- Event relay ---

// PublishWorkflowEventMessage is the in-process envelope the orchestrator
// drops on the watermill topic; the relay fans it out to websockets and NATS.
type PublishWorkflowEventMessage struct {
	UserId    uuid.UUID              `json:"user_id"`
	SessionId string                 `json:"session_id,omitempty"`
	EventType string                 `json:"event_type"`
	Data      map[string]interface{} `json:"data,omitempty"`
}
