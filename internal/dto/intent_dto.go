package dto

// Wire contract for /api/intent. This surface predates the orchestrator and
// keeps the camelCase keys the canvas frontend already sends.

type IntentSegmentDTO struct {
	Id      string `json:"id"`
	Name    string `json:"name"`
	Level   int    `json:"level"`
	Content string `json:"content,omitempty"`
}

type CanvasNodeDTO struct {
	NodeId   string `json:"nodeId"`
	NodeType string `json:"nodeType"`
	Label    string `json:"label"`
	Format   string `json:"format,omitempty"`
}

type CanvasContextDTO struct {
	ConnectedNodes []CanvasNodeDTO `json:"connectedNodes,omitempty"`
	AllNodes       []CanvasNodeDTO `json:"allNodes,omitempty"`
	TotalNodes     int             `json:"totalNodes,omitempty"`
}

type IntentContextDTO struct {
	DocumentPanelOpen bool              `json:"documentPanelOpen"`
	DocumentFormat    string            `json:"documentFormat,omitempty"`
	ActiveSegment     *IntentSegmentDTO `json:"activeSegment,omitempty"`
	Canvas            *CanvasContextDTO `json:"canvas,omitempty"`
}

type IntentTurnDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type IntentRequest struct {
	Message             string           `json:"message" validate:"required"`
	Context             IntentContextDTO `json:"context"`
	ConversationHistory []IntentTurnDTO  `json:"conversationHistory,omitempty"`
}

type IntentResponse struct {
	Intent             string                 `json:"intent"`
	Confidence         float64                `json:"confidence"`
	Reasoning          string                 `json:"reasoning"`
	SuggestedAction    string                 `json:"suggestedAction"`
	RequiresContext    bool                   `json:"requiresContext"`
	SuggestedModel     string                 `json:"suggestedModel"`
	NeedsClarification bool                   `json:"needsClarification"`
	ClarifyingQuestion string                 `json:"clarifyingQuestion,omitempty"`
	ExtractedEntities  map[string]interface{} `json:"extractedEntities,omitempty"`
	UsedLLM            bool                   `json:"usedLLM"`
}

// ClassifyResponse reports the pattern stage alone. Matched=false carries
// only the message; the frontend uses it to decide whether to show the
// "thinking" indicator before the full analysis lands.
type ClassifyResponse struct {
	Matched  bool            `json:"matched"`
	Message  string          `json:"message,omitempty"`
	Analysis *IntentResponse `json:"analysis,omitempty"`
}
