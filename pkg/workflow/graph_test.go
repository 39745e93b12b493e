package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"testing"
	"time"
)

func noteNode(text string) NodeFunc {
	return func(ctx context.Context, s State) (Delta, error) {
		return Delta{Messages: []Message{{Role: RoleOrchestrator, Content: text, Type: MessageThinking}}}, nil
	}
}

func engineLogger() *log.Logger {
	return log.New(os.Stdout, "[TEST] ", log.LstdFlags)
}

func TestCompileRejectsBadWiring(t *testing.T) {
	t.Run("missing entry point", func(t *testing.T) {
		g := NewGraph()
		g.AddNode("a", noteNode("a"))
		g.AddEdge("a", End)
		if _, err := g.Compile(engineLogger()); err == nil {
			t.Fatal("expected error for missing entry point")
		}
	})

	t.Run("edge to unknown node", func(t *testing.T) {
		g := NewGraph()
		g.AddNode("a", noteNode("a"))
		g.SetEntryPoint("a")
		g.AddEdge("a", "ghost")
		if _, err := g.Compile(engineLogger()); err == nil {
			t.Fatal("expected error for unknown edge target")
		}
	})

	t.Run("node without outgoing edge", func(t *testing.T) {
		g := NewGraph()
		g.AddNode("a", noteNode("a"))
		g.AddNode("b", noteNode("b"))
		g.SetEntryPoint("a")
		g.AddEdge("a", "b")
		if _, err := g.Compile(engineLogger()); err == nil {
			t.Fatal("expected error for dangling node")
		}
	})

	t.Run("conditional target unknown", func(t *testing.T) {
		g := NewGraph()
		g.AddNode("a", noteNode("a"))
		g.SetEntryPoint("a")
		g.AddConditionalEdges("a", func(s State) string { return "x" }, map[string]string{"x": "ghost"})
		if _, err := g.Compile(engineLogger()); err == nil {
			t.Fatal("expected error for unknown conditional target")
		}
	})
}

func TestRunLinearFlowMergesInOrder(t *testing.T) {
	g := NewGraph()
	g.AddNode("first", noteNode("one"))
	g.AddNode("second", noteNode("two"))
	g.SetEntryPoint("first")
	g.AddEdge("first", "second")
	g.AddEdge("second", End)

	runner, err := g.Compile(engineLogger())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	final, err := runner.Run(context.Background(), State{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(final.Messages) != 2 || final.Messages[0].Content != "one" || final.Messages[1].Content != "two" {
		t.Errorf("messages = %+v", final.Messages)
	}
}

func TestRunConditionalRouting(t *testing.T) {
	g := NewGraph()
	g.AddNode("start", noteNode("start"))
	g.AddNode("left", noteNode("left"))
	g.AddNode("right", noteNode("right"))
	g.SetEntryPoint("start")
	g.AddConditionalEdges("start", func(s State) string {
		if s.EnableCritic {
			return "left"
		}
		return "right"
	}, map[string]string{"left": "left", "right": "right"})
	g.AddEdge("left", End)
	g.AddEdge("right", End)

	runner, err := g.Compile(engineLogger())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	final, err := runner.Run(context.Background(), State{EnableCritic: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if final.Messages[len(final.Messages)-1].Content != "left" {
		t.Errorf("expected left branch, messages = %+v", final.Messages)
	}

	final, err = runner.Run(context.Background(), State{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if final.Messages[len(final.Messages)-1].Content != "right" {
		t.Errorf("expected right branch, messages = %+v", final.Messages)
	}
}

func TestRunUnknownRouterLabelFails(t *testing.T) {
	g := NewGraph()
	g.AddNode("start", noteNode("start"))
	g.AddNode("next", noteNode("next"))
	g.SetEntryPoint("start")
	g.AddConditionalEdges("start", func(s State) string { return "nowhere" }, map[string]string{"go": "next"})
	g.AddEdge("next", End)

	runner, err := g.Compile(engineLogger())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if _, err := runner.Run(context.Background(), State{}); err == nil || !strings.Contains(err.Error(), "unknown label") {
		t.Errorf("expected unknown label error, got %v", err)
	}
}

func TestRunNodeErrorBackstop(t *testing.T) {
	g := NewGraph()
	g.AddNode("boom", func(ctx context.Context, s State) (Delta, error) {
		return Delta{}, errors.New("exploded")
	})
	g.AddNode("after", noteNode("after"))
	g.SetEntryPoint("boom")
	g.AddEdge("boom", "after")
	g.AddEdge("after", End)

	runner, err := g.Compile(engineLogger())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	final, err := runner.Run(context.Background(), State{})
	if err != nil {
		t.Fatalf("Run should not fail on node error: %v", err)
	}
	if final.Error != "exploded" {
		t.Errorf("Error = %q, want %q", final.Error, "exploded")
	}
	if len(final.Messages) != 2 {
		t.Fatalf("messages = %+v", final.Messages)
	}
	if final.Messages[0].Role != RoleSystem || final.Messages[0].Type != MessageError {
		t.Errorf("first message should be a system error, got %+v", final.Messages[0])
	}
	if final.Messages[1].Content != "after" {
		t.Errorf("routing should continue past the failed node, got %+v", final.Messages[1])
	}
}

func TestRunStepGuardBreaksCycles(t *testing.T) {
	g := NewGraph()
	g.AddNode("a", noteNode("a"))
	g.AddNode("b", noteNode("b"))
	g.SetEntryPoint("a")
	g.AddEdge("a", "b")
	g.AddEdge("b", "a")

	runner, err := g.Compile(engineLogger())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	_, err = runner.Run(context.Background(), State{})
	if err == nil || !strings.Contains(err.Error(), "exceeded") {
		t.Errorf("expected step guard error, got %v", err)
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	g := NewGraph()
	g.AddNode("slow", func(ctx context.Context, s State) (Delta, error) {
		select {
		case <-ctx.Done():
			return Delta{}, ctx.Err()
		case <-time.After(5 * time.Second):
			return Delta{}, nil
		}
	})
	g.SetEntryPoint("slow")
	g.AddEdge("slow", "slow")

	runner, err := g.Compile(engineLogger())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := runner.Run(ctx, State{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestStreamEmitsStepPerNodeAndCloses(t *testing.T) {
	g := NewGraph()
	g.AddNode("first", noteNode("one"))
	g.AddNode("second", noteNode("two"))
	g.SetEntryPoint("first")
	g.AddEdge("first", "second")
	g.AddEdge("second", End)

	runner, err := g.Compile(engineLogger())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var steps []Step
	for step := range runner.Stream(ctx, State{}) {
		steps = append(steps, step)
	}

	if len(steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(steps))
	}
	if steps[0].Node != "first" || steps[1].Node != "second" {
		t.Errorf("node order = %s, %s", steps[0].Node, steps[1].Node)
	}
	if len(steps[0].State.Messages) != 1 || len(steps[1].State.Messages) != 2 {
		t.Errorf("stream snapshots should accumulate merged state")
	}
	if len(steps[1].Delta.Messages) != 1 || steps[1].Delta.Messages[0].Content != "two" {
		t.Errorf("step delta should carry only the node's update, got %+v", steps[1].Delta)
	}
}

func TestStreamSurfacesEngineFailure(t *testing.T) {
	g := NewGraph()
	g.AddNode("start", noteNode("start"))
	g.AddNode("next", noteNode("next"))
	g.SetEntryPoint("start")
	g.AddConditionalEdges("start", func(s State) string { return "nowhere" }, map[string]string{"go": "next"})
	g.AddEdge("next", End)

	runner, err := g.Compile(engineLogger())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var last Step
	count := 0
	for step := range runner.Stream(ctx, State{}) {
		last = step
		count++
	}
	if count != 2 {
		t.Fatalf("steps = %d, want node step plus failure step", count)
	}
	if last.Err == nil || !strings.Contains(last.Err.Error(), "unknown label") {
		t.Errorf("final step should carry the engine error, got %+v", last)
	}
}

func TestOrchestratorRunnerCompiles(t *testing.T) {
	logger := engineLogger()
	nodes := NewNodes(nil, nil, nil, logger)

	runner, err := NewOrchestratorRunner(nodes, logger)
	if err != nil {
		t.Fatalf("NewOrchestratorRunner: %v", err)
	}
	for _, name := range []string{NodeClassify, NodePlan, NodeStrategy, NodeWriter, NodeCritic, NodeMerge} {
		if _, ok := runner.nodes[name]; !ok {
			t.Errorf("missing node %q", name)
		}
	}
	if runner.entry != NodeClassify {
		t.Errorf("entry = %q, want %q", runner.entry, NodeClassify)
	}
}

func TestRunnerIsReusableAcrossRuns(t *testing.T) {
	calls := 0
	g := NewGraph()
	g.AddNode("count", func(ctx context.Context, s State) (Delta, error) {
		calls++
		return Delta{Messages: []Message{{Role: RoleOrchestrator, Content: fmt.Sprintf("call %d", calls), Type: MessageThinking}}}, nil
	})
	g.SetEntryPoint("count")
	g.AddEdge("count", End)

	runner, err := g.Compile(engineLogger())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	first, err := runner.Run(context.Background(), State{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	second, err := runner.Run(context.Background(), State{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(first.Messages) != 1 || len(second.Messages) != 1 {
		t.Errorf("each run must start from its own initial state: %d, %d", len(first.Messages), len(second.Messages))
	}
}

func TestStreamFinalStateMatchesRun(t *testing.T) {
	g := NewGraph()
	g.AddNode("plan", func(ctx context.Context, s State) (Delta, error) {
		return Delta{
			Actions:  []Action{{Type: ActionClarify, Clarify: &ClarifyPayload{Question: "which part?"}}},
			Messages: []Message{{Role: RoleOrchestrator, Content: "planned", Type: MessageDecision}},
		}, nil
	})
	g.AddNode("write", func(ctx context.Context, s State) (Delta, error) {
		return Delta{
			Results:  map[string]string{"intro": "draft"},
			Messages: []Message{{Role: RoleOrchestrator, Content: "wrote intro", Type: MessageResult}},
		}, nil
	})
	g.SetEntryPoint("plan")
	g.AddEdge("plan", "write")
	g.AddEdge("write", End)

	runner, err := g.Compile(engineLogger())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	initial := State{UserMessage: "write the intro"}

	ran, err := runner.Run(context.Background(), initial)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var streamed State
	for step := range runner.Stream(context.Background(), initial) {
		if step.Err != nil {
			t.Fatalf("Stream step error: %v", step.Err)
		}
		streamed = step.State
	}

	if len(streamed.Messages) != len(ran.Messages) {
		t.Fatalf("messages = %d, want %d", len(streamed.Messages), len(ran.Messages))
	}
	for i := range ran.Messages {
		if streamed.Messages[i] != ran.Messages[i] {
			t.Errorf("message %d = %+v, want %+v", i, streamed.Messages[i], ran.Messages[i])
		}
	}
	if len(streamed.Actions) != len(ran.Actions) {
		t.Errorf("actions = %d, want %d", len(streamed.Actions), len(ran.Actions))
	}
	if streamed.Results["intro"] != ran.Results["intro"] {
		t.Errorf("results diverge: %q vs %q", streamed.Results["intro"], ran.Results["intro"])
	}
}
