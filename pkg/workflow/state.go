package workflow

import (
	"publo-orchestrator/pkg/intent"
)

// Strategy is the execution mode chosen for a run. parallel is advisory
// metadata for the caller: the engine never fans out actions concurrently.
// cluster is the only strategy that engages the critic.
type Strategy string

const (
	StrategySequential Strategy = "sequential"
	StrategyParallel   Strategy = "parallel"
	StrategyCluster    Strategy = "cluster"
)

// Message roles.
const (
	RoleUser         = "user"
	RoleOrchestrator = "orchestrator"
	RoleSystem       = "system"
)

// Message types for UI rendering.
const (
	MessageThinking = "thinking"
	MessageDecision = "decision"
	MessageTask     = "task"
	MessageResult   = "result"
	MessageError    = "error"
	MessageProgress = "progress"
)

// Message is an observability/UI event. Messages are append-only and never
// edited after creation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

type ActionType string

const (
	ActionGenerateContent   ActionType = "generate_content"
	ActionGenerateStructure ActionType = "generate_structure"
	ActionModifyStructure   ActionType = "modify_structure"
	ActionSelectSection     ActionType = "select_section"
	ActionDeleteNode        ActionType = "delete_node"
	ActionClarify           ActionType = "clarify"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

type GenerateContentPayload struct {
	SectionID   string
	SectionName string
	Prompt      string
	IsAnswer    bool
	IsChat      bool
}

type GenerateStructurePayload struct {
	Format string
	Prompt string
}

type ModifyStructurePayload struct {
	Prompt string
}

type SelectSectionPayload struct {
	SectionID   string
	SectionName string
}

type DeleteNodePayload struct {
	NodeID   string
	NodeName string
}

type ClarifyPayload struct {
	Question string
}

// Action is a unit of planned work. The payload pointer matching Type is
// set; all others are nil.
type Action struct {
	Type              ActionType
	GenerateContent   *GenerateContentPayload
	GenerateStructure *GenerateStructurePayload
	ModifyStructure   *ModifyStructurePayload
	SelectSection     *SelectSectionPayload
	DeleteNode        *DeleteNodePayload
	Clarify           *ClarifyPayload
	RequiresUserInput bool
	Priority          Priority
}

// Payload renders the typed payload as the loose key/value shape the wire
// format and UI expect.
func (a Action) Payload() map[string]interface{} {
	payload := map[string]interface{}{}
	switch a.Type {
	case ActionGenerateContent:
		if p := a.GenerateContent; p != nil {
			if p.SectionID != "" {
				payload["sectionId"] = p.SectionID
			}
			if p.SectionName != "" {
				payload["sectionName"] = p.SectionName
			}
			payload["prompt"] = p.Prompt
			if p.IsAnswer {
				payload["isAnswer"] = true
			}
			if p.IsChat {
				payload["isChat"] = true
			}
		}
	case ActionGenerateStructure:
		if p := a.GenerateStructure; p != nil {
			payload["format"] = p.Format
			payload["prompt"] = p.Prompt
		}
	case ActionModifyStructure:
		if p := a.ModifyStructure; p != nil {
			payload["prompt"] = p.Prompt
		}
	case ActionSelectSection:
		if p := a.SelectSection; p != nil {
			payload["sectionId"] = p.SectionID
			payload["sectionName"] = p.SectionName
		}
	case ActionDeleteNode:
		if p := a.DeleteNode; p != nil {
			if p.NodeID != "" {
				payload["nodeId"] = p.NodeID
			}
			if p.NodeName != "" {
				payload["nodeName"] = p.NodeName
			}
		}
	case ActionClarify:
		if p := a.Clarify; p != nil {
			payload["question"] = p.Question
		}
	}
	return payload
}

// SectionID returns the section key for stream deduplication, empty when
// the action has none.
func (a Action) SectionID() string {
	switch a.Type {
	case ActionGenerateContent:
		if a.GenerateContent != nil {
			return a.GenerateContent.SectionID
		}
	case ActionSelectSection:
		if a.SelectSection != nil {
			return a.SelectSection.SectionID
		}
	}
	return ""
}

// StructureItem is one section/chapter of the document structure, carried
// through the run as caller-provided context.
type StructureItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Level      int    `json:"level"`
	ParentID   string `json:"parent_id,omitempty"`
	HasContent bool   `json:"has_content,omitempty"`
}

// State is the single record threaded through the workflow graph. One
// State is created per run, updated only through Merge, and discarded once
// the response is extracted. The engine never persists it.
type State struct {
	// Input
	UserMessage string
	UserID      string
	SessionID   string

	// Context from the frontend
	ActiveSegment       *intent.Segment
	DocumentPanelOpen   bool
	DocumentFormat      string
	CanvasContext       string
	StructureItems      []StructureItem
	ConversationHistory []intent.Turn

	// Model preferences. Advisory: provider binding is a startup decision.
	ModelMode    string
	FixedModelID string

	// Populated by nodes
	Intent         *intent.Analysis
	Strategy       Strategy
	Actions        []Action
	Results        map[string]string
	Messages       []Message
	Iteration      int
	MaxIterations  int
	CriticApproved bool
	EnableCritic   bool
	Error          string
}

// Delta is a node's partial state update. Nil pointers mean "no change";
// Actions and Messages append, Results merges key-wise with the newer
// value winning.
type Delta struct {
	Intent         *intent.Analysis
	Strategy       *Strategy
	Actions        []Action
	Results        map[string]string
	Messages       []Message
	Iteration      *int
	CriticApproved *bool
	Error          *string
}

// Merge applies a delta using each field's reducer. It is pure: the input
// state and delta are left untouched, and append fields never share
// backing storage with the inputs.
func Merge(s State, d Delta) State {
	if d.Intent != nil {
		s.Intent = d.Intent
	}
	if d.Strategy != nil {
		s.Strategy = *d.Strategy
	}
	if len(d.Actions) > 0 {
		s.Actions = append(s.Actions[:len(s.Actions):len(s.Actions)], d.Actions...)
	}
	if len(d.Results) > 0 {
		merged := make(map[string]string, len(s.Results)+len(d.Results))
		for k, v := range s.Results {
			merged[k] = v
		}
		for k, v := range d.Results {
			merged[k] = v
		}
		s.Results = merged
	}
	if len(d.Messages) > 0 {
		s.Messages = append(s.Messages[:len(s.Messages):len(s.Messages)], d.Messages...)
	}
	if d.Iteration != nil {
		s.Iteration = *d.Iteration
	}
	if d.CriticApproved != nil {
		s.CriticApproved = *d.CriticApproved
	}
	if d.Error != nil {
		s.Error = *d.Error
	}
	return s
}
