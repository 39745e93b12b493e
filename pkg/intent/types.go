package intent

// All intents the system can detect. The pattern stage resolves most of
// them; clarification_needed only ever comes from the deep stage.
const (
	IntentCreateStructure      = "create_structure"
	IntentModifyStructure      = "modify_structure"
	IntentWriteContent         = "write_content"
	IntentImproveContent       = "improve_content"
	IntentRewriteWithCoherence = "rewrite_with_coherence"
	IntentNavigateSection      = "navigate_section"
	IntentOpenAndWrite         = "open_and_write"
	IntentDeleteNode           = "delete_node"
	IntentAnswerQuestion       = "answer_question"
	IntentGeneralChat          = "general_chat"
	IntentClarificationNeeded  = "clarification_needed"
)

// Segment is the currently selected section in the document panel.
type Segment struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Level   int    `json:"level"`
	Content string `json:"content,omitempty"`
}

// CanvasNode is a node on the canvas, reduced to what classification needs.
type CanvasNode struct {
	NodeID   string `json:"nodeId"`
	NodeType string `json:"nodeType"`
	Label    string `json:"label"`
	Format   string `json:"format,omitempty"`
}

// CanvasContext is the canvas state used for node resolution.
type CanvasContext struct {
	ConnectedNodes []CanvasNode `json:"connectedNodes"`
	AllNodes       []CanvasNode `json:"allNodes"`
	TotalNodes     int          `json:"totalNodes"`
}

// Turn is one message of recent conversation history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Context is an immutable snapshot of conversation/document/canvas state.
// It is passed by value through the classification pipeline and never
// mutated by it.
type Context struct {
	Message             string
	ActiveSegment       *Segment
	DocumentPanelOpen   bool
	DocumentFormat      string
	Canvas              *CanvasContext
	ConversationHistory []Turn
}

// Analysis is the result of intent classification.
// Invariant: NeedsClarification implies ClarifyingQuestion is set.
type Analysis struct {
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
