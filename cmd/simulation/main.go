package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"publo-orchestrator/pkg/intent"
	"publo-orchestrator/pkg/llm"
	"publo-orchestrator/pkg/workflow"
	"publo-orchestrator/pkg/workflow/agents"

	"github.com/fatih/color"
)

// Offline demo: runs the full workflow graph against a scripted provider so
// the whole pipeline can be watched without API keys or a database.

// scriptedProvider replays canned responses in order. When the script runs
// out it repeats the last reply.
type scriptedProvider struct {
	mu      sync.Mutex
	replies []string
	idx     int
}

func (p *scriptedProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.replies) == 0 {
		return "", fmt.Errorf("scripted provider has no replies")
	}
	if p.idx >= len(p.replies) {
		return p.replies[len(p.replies)-1], nil
	}
	reply := p.replies[p.idx]
	p.idx++
	return reply, nil
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

type scenario struct {
	title   string
	message string
	state   workflow.State
	replies []string
}

func main() {
	color.Cyan("🚀 Publo Orchestrator - Offline Workflow Demo\n")

	scenarios := []scenario{
		{
			title:   "Structure creation from the canvas",
			message: "Create a novel about dragons",
			state:   workflow.State{UserMessage: "Create a novel about dragons"},
		},
		{
			title:   "Cluster write with one critic rejection",
			message: "Write this chapter about the dragon's first flight",
			state: workflow.State{
				UserMessage:       "Write this chapter about the dragon's first flight",
				DocumentPanelOpen: true,
				DocumentFormat:    "novel",
				ActiveSegment:     &intent.Segment{ID: "chapter-1", Name: "Chapter 1", Level: 1},
				EnableCritic:      true,
				MaxIterations:     3,
			},
			replies: []string{
				"The dragon crested the ridge at dawn, wings still wet from the egg.",
				`{"score": 5, "feedback": "Flat pacing, no stakes", "suggestions": ["Add tension before the jump"]}`,
				"The dragon crested the ridge at dawn. Below, the valley held its breath; one wrong gust and the first flight would be the last.",
				`{"score": 9, "feedback": "Strong opening with real stakes", "suggestions": []}`,
			},
		},
		{
			title:   "Complex phrasing escapes to deep analysis",
			message: "like Game of Thrones but in space",
			state:   workflow.State{UserMessage: "like Game of Thrones but in space"},
			replies: []string{
				`{"intent": "create_structure", "confidence": 0.85, "reasoning": "User wants a space-opera structure inspired by an existing work", "suggestedAction": "Generate a complete story structure", "requiresContext": false, "suggestedModel": "orchestrator", "needsClarification": false, "extractedEntities": {"documentFormat": "novel"}}`,
			},
		},
		{
			title:   "General chat short-circuits to merge",
			message: "Hello there!",
			state:   workflow.State{UserMessage: "Hello there!"},
			replies: []string{
				`{"intent": "general_chat", "confidence": 0.9, "reasoning": "Greeting with no actionable request", "suggestedAction": "Reply conversationally", "requiresContext": false, "suggestedModel": "orchestrator", "needsClarification": false}`,
			},
		},
	}

	for i, sc := range scenarios {
		color.Yellow("\n[SCENARIO] %d. %s", i+1, sc.title)
		fmt.Printf("USER: %s\n", sc.message)

		if err := run(sc); err != nil {
			color.Red("Failed: %v", err)
		}
	}

	color.Cyan("\n✅ Demo complete")
}

func run(sc scenario) error {
	provider := &scriptedProvider{replies: sc.replies}
	quiet := log.New(io.Discard, "", 0)

	analyzer := intent.NewAnalyzer(provider, quiet)
	writer := agents.NewWriter(provider, quiet)
	critic := agents.NewCritic(provider, agents.DefaultCriticThreshold, quiet)
	nodes := workflow.NewNodes(analyzer, writer, critic, quiet)

	runner, err := workflow.NewOrchestratorRunner(nodes, quiet)
	if err != nil {
		return err
	}

	var final workflow.State
	for step := range runner.Stream(context.Background(), sc.state) {
		if step.Err != nil {
			return step.Err
		}
		final = step.State
		for _, m := range step.Delta.Messages {
			fmt.Printf("  %-10s %s\n", "["+step.Node+"]", m.Content)
		}
	}

	if final.Error != "" {
		color.Red("Run error: %s", final.Error)
		return nil
	}

	intentName, confidence := "unknown", 0.0
	if final.Intent != nil {
		intentName, confidence = final.Intent.Intent, final.Intent.Confidence
	}
	color.Green("Intent: %s (%.2f) | Strategy: %s | Actions: %d | Iterations: %d",
		intentName, confidence, final.Strategy, len(final.Actions), final.Iteration)

	for _, a := range final.Actions {
		fmt.Printf("  action: %s %v\n", a.Type, a.Payload())
	}
	for id, content := range final.Results {
		color.Green("Result [%s]: %d words", id, len(strings.Fields(content)))
	}

	return nil
}
