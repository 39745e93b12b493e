package workflow

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"publo-orchestrator/pkg/intent"
	"publo-orchestrator/pkg/workflow/agents"
)

const defaultMaxIterations = 3

// Router labels.
const (
	routeExecute = "execute"
	routeMerge   = "merge"
	routeCritic  = "critic"
	routeRevise  = "revise"
)

// Nodes bundles the graph's node implementations with their dependencies.
// One Nodes value is built at startup and shared by every run.
type Nodes struct {
	analyzer *intent.Analyzer
	writer   *agents.Writer
	critic   *agents.Critic
	logger   *log.Logger
}

func NewNodes(analyzer *intent.Analyzer, writer *agents.Writer, critic *agents.Critic, logger *log.Logger) *Nodes {
	return &Nodes{analyzer: analyzer, writer: writer, critic: critic, logger: logger}
}

// Classify runs intent analysis over the user message and conversation
// context. Analysis never fails hard: the analyzer degrades to a
// conversational fallback on its own.
func (n *Nodes) Classify(ctx context.Context, s State) (Delta, error) {
	n.logger.Printf("[NODE] Analyzing intent for: %s...", truncate(s.UserMessage, 50))

	pctx := intent.Context{
		Message:             s.UserMessage,
		ActiveSegment:       s.ActiveSegment,
		DocumentPanelOpen:   s.DocumentPanelOpen,
		DocumentFormat:      s.DocumentFormat,
		ConversationHistory: s.ConversationHistory,
	}
	// The run carries the canvas as a rendered string for the writer;
	// classification only needs to know a canvas exists.
	if s.CanvasContext != "" {
		pctx.Canvas = &intent.CanvasContext{}
	}

	analysis := n.analyzer.Analyze(ctx, s.UserMessage, pctx)
	n.logger.Printf("[NODE] Intent: %s (confidence: %.2f)", analysis.Intent, analysis.Confidence)

	return Delta{
		Intent: &analysis,
		Messages: []Message{{
			Role:    RoleOrchestrator,
			Content: fmt.Sprintf("Intent: %s (%.0f%% confidence)", analysis.Intent, analysis.Confidence*100),
			Type:    MessageThinking,
		}},
	}, nil
}

// PlanActions turns the classified intent into an action plan.
func (n *Nodes) PlanActions(ctx context.Context, s State) (Delta, error) {
	var analysis intent.Analysis
	if s.Intent != nil {
		analysis = *s.Intent
	}

	actions := Plan(analysis, s)
	n.logger.Printf("[NODE] Generated %d action(s)", len(actions))

	types := make([]string, 0, len(actions))
	for _, a := range actions {
		types = append(types, string(a.Type))
	}

	return Delta{
		Actions: actions,
		Messages: []Message{{
			Role:    RoleOrchestrator,
			Content: fmt.Sprintf("Generated %d action(s): %v", len(actions), types),
			Type:    MessageThinking,
		}},
	}, nil
}

// PickStrategy chooses the execution mode for the planned actions.
func (n *Nodes) PickStrategy(ctx context.Context, s State) (Delta, error) {
	var analysis intent.Analysis
	if s.Intent != nil {
		analysis = *s.Intent
	}

	strategy := SelectStrategy(analysis, s)
	n.logger.Printf("[NODE] Selected strategy: %s", strategy)

	return Delta{
		Strategy: &strategy,
		Messages: []Message{{
			Role:    RoleOrchestrator,
			Content: fmt.Sprintf("Strategy: %s", strategy),
			Type:    MessageThinking,
		}},
	}, nil
}

// Write executes every generate_content action through the writer agent.
// On a revision pass the previous output for the section is handed back as
// existing content. A writer failure records the error and drops the
// partial results for this pass.
func (n *Nodes) Write(ctx context.Context, s State) (Delta, error) {
	updated := map[string]string{}
	iteration := s.Iteration + 1

	for _, action := range s.Actions {
		if action.Type != ActionGenerateContent || action.GenerateContent == nil {
			continue
		}
		payload := action.GenerateContent

		sectionName := payload.SectionName
		if sectionName == "" {
			sectionName = "Content"
		}
		sectionID := payload.SectionID
		if sectionID == "" {
			sectionID = "default"
		}

		n.logger.Printf("[WRITER] Generating content for: %s", sectionName)

		content, err := n.writer.GenerateContent(ctx, agents.GenerateRequest{
			Prompt:          payload.Prompt,
			SectionName:     sectionName,
			Context:         s.CanvasContext,
			ExistingContent: s.Results[sectionID],
		})
		if err != nil {
			n.logger.Printf("[WRITER] Error: %v", err)
			msg := err.Error()
			return Delta{
				Error: &msg,
				Messages: []Message{{
					Role:    RoleSystem,
					Content: fmt.Sprintf("Writer failed: %s", msg),
					Type:    MessageError,
				}},
			}, nil
		}
		updated[sectionID] = content
	}

	return Delta{
		Results:   updated,
		Iteration: &iteration,
		Messages: []Message{{
			Role:    RoleOrchestrator,
			Content: fmt.Sprintf("Content generated (iteration %d)", iteration),
			Type:    MessageResult,
		}},
	}, nil
}

// Review critiques every generated section. The critic fails open: any
// provider failure auto-approves so a broken critic can never wedge a run.
func (n *Nodes) Review(ctx context.Context, s State) (Delta, error) {
	if len(s.Results) == 0 {
		approved := true
		return Delta{
			CriticApproved: &approved,
			Messages: []Message{{
				Role:    RoleOrchestrator,
				Content: "No content to review",
				Type:    MessageDecision,
			}},
		}, nil
	}

	sections := make([]string, 0, len(s.Results))
	for sectionID := range s.Results {
		sections = append(sections, sectionID)
	}
	sort.Strings(sections)

	allApproved := true
	var feedback []string

	for _, sectionID := range sections {
		n.logger.Printf("[CRITIC] Reviewing content for section: %s", sectionID)

		critique, err := n.critic.Critique(ctx, s.Results[sectionID])
		if err != nil {
			n.logger.Printf("[CRITIC] Error: %v", err)
			approved := true
			return Delta{
				CriticApproved: &approved,
				Messages: []Message{{
					Role:    RoleSystem,
					Content: fmt.Sprintf("Critic failed, auto-approving: %s", err.Error()),
					Type:    MessageError,
				}},
			}, nil
		}

		if !critique.Approved {
			allApproved = false
			text := critique.Feedback
			if text == "" {
				text = "Needs improvement"
			}
			feedback = append(feedback, fmt.Sprintf("%s: %s", sectionID, text))
		}
	}

	content := "Approved ✅"
	if !allApproved {
		content = fmt.Sprintf("Needs revision: %s", strings.Join(feedback, "; "))
	}
	approved := allApproved

	return Delta{
		CriticApproved: &approved,
		Messages: []Message{{
			Role:    RoleOrchestrator,
			Content: content,
			Type:    MessageDecision,
		}},
	}, nil
}

// MergeResults closes the run with a completion summary. Results themselves
// are already in state; nothing is recomputed here.
func (n *Nodes) MergeResults(ctx context.Context, s State) (Delta, error) {
	completed := 0
	for _, content := range s.Results {
		if content != "" {
			completed++
		}
	}

	return Delta{
		Messages: []Message{{
			Role:    RoleOrchestrator,
			Content: fmt.Sprintf("Completed %d action(s)", completed),
			Type:    MessageResult,
		}},
	}, nil
}

// NeedsAction routes after strategy selection: errors and conversational
// intents go straight to merge, anything with planned actions executes.
func (n *Nodes) NeedsAction(s State) string {
	if s.Error != "" {
		return routeMerge
	}
	if s.Intent != nil {
		switch s.Intent.Intent {
		case intent.IntentGeneralChat, intent.IntentClarificationNeeded:
			return routeMerge
		}
	}
	if len(s.Actions) > 0 {
		return routeExecute
	}
	return routeMerge
}

// ShouldUseCritic engages the critic only for cluster runs that asked for it.
func (n *Nodes) ShouldUseCritic(s State) string {
	if s.Strategy == StrategyCluster && s.EnableCritic {
		return routeCritic
	}
	return routeMerge
}

// ShouldRevise loops rejected content back to the writer until approval or
// the iteration cap, whichever comes first.
func (n *Nodes) ShouldRevise(s State) string {
	if s.CriticApproved {
		return routeMerge
	}

	max := s.MaxIterations
	if max <= 0 {
		max = defaultMaxIterations
	}
	if s.Iteration >= max {
		n.logger.Printf("[WORKFLOW] Max iterations (%d) reached, forcing merge", max)
		return routeMerge
	}

	return routeRevise
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
