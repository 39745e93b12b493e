// Package workflow implements the orchestration graph: a typed state record
// threaded through named nodes, each returning a partial delta that a pure
// reducer folds back into the state. Routing between nodes is declarative,
// so the control flow of a run can be read off the graph definition.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// End is the routing target that terminates a run.
const End = "__end__"

// maxSteps bounds a single run. The standard graph tops out well below this
// even at the revision cap; hitting it means a wiring bug.
const maxSteps = 64

// Node names in the orchestrator graph.
const (
	NodeClassify = "classify"
	NodePlan     = "plan"
	NodeStrategy = "strategy"
	NodeWriter   = "writer"
	NodeCritic   = "critic"
	NodeMerge    = "merge"
)

// NodeFunc executes one node against the current state and returns the
// delta to merge. Returning an error is the backstop path; nodes that can
// degrade gracefully should encode the failure in the delta instead.
type NodeFunc func(ctx context.Context, s State) (Delta, error)

// RouterFunc inspects post-merge state and returns one of the labels
// registered for its conditional edge.
type RouterFunc func(s State) string

type conditionalEdge struct {
	router  RouterFunc
	targets map[string]string
}

// Graph is a workflow under construction. Build it once, Compile it, and
// share the resulting Runner; the builder itself is not safe for concurrent
// use.
type Graph struct {
	nodes       map[string]NodeFunc
	edges       map[string]string
	conditional map[string]conditionalEdge
	entry       string
}

func NewGraph() *Graph {
	return &Graph{
		nodes:       map[string]NodeFunc{},
		edges:       map[string]string{},
		conditional: map[string]conditionalEdge{},
	}
}

func (g *Graph) AddNode(name string, fn NodeFunc) {
	g.nodes[name] = fn
}

// AddEdge registers an unconditional transition. Use End as the target to
// finish the run after from.
func (g *Graph) AddEdge(from, to string) {
	g.edges[from] = to
}

// AddConditionalEdges registers a router for from with a fixed label→node
// candidate map. A label the router can return but the map does not contain
// is a runtime error.
func (g *Graph) AddConditionalEdges(from string, router RouterFunc, targets map[string]string) {
	g.conditional[from] = conditionalEdge{router: router, targets: targets}
}

func (g *Graph) SetEntryPoint(name string) {
	g.entry = name
}

// Compile validates the wiring and freezes the graph into an immutable
// Runner. The builder can be discarded afterwards.
func (g *Graph) Compile(logger *log.Logger) (*Runner, error) {
	if g.entry == "" {
		return nil, errors.New("graph has no entry point")
	}
	if _, ok := g.nodes[g.entry]; !ok {
		return nil, fmt.Errorf("entry point %q is not a registered node", g.entry)
	}

	for from, to := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("edge out of unknown node %q", from)
		}
		if to != End {
			if _, ok := g.nodes[to]; !ok {
				return nil, fmt.Errorf("edge from %q targets unknown node %q", from, to)
			}
		}
	}

	for from, ce := range g.conditional {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("conditional edge out of unknown node %q", from)
		}
		if ce.router == nil {
			return nil, fmt.Errorf("conditional edge from %q has no router", from)
		}
		for label, to := range ce.targets {
			if to != End {
				if _, ok := g.nodes[to]; !ok {
					return nil, fmt.Errorf("conditional edge %q[%q] targets unknown node %q", from, label, to)
				}
			}
		}
	}

	for name := range g.nodes {
		if _, direct := g.edges[name]; direct {
			continue
		}
		if _, cond := g.conditional[name]; cond {
			continue
		}
		return nil, fmt.Errorf("node %q has no outgoing edge", name)
	}

	runner := &Runner{
		nodes:       make(map[string]NodeFunc, len(g.nodes)),
		edges:       make(map[string]string, len(g.edges)),
		conditional: make(map[string]conditionalEdge, len(g.conditional)),
		entry:       g.entry,
		logger:      logger,
	}
	for name, fn := range g.nodes {
		runner.nodes[name] = fn
	}
	for from, to := range g.edges {
		runner.edges[from] = to
	}
	for from, ce := range g.conditional {
		targets := make(map[string]string, len(ce.targets))
		for label, to := range ce.targets {
			targets[label] = to
		}
		runner.conditional[from] = conditionalEdge{router: ce.router, targets: targets}
	}

	return runner, nil
}

// Runner executes a compiled graph. It holds no per-run state and is safe
// for concurrent use; every run gets its own State thread.
type Runner struct {
	nodes       map[string]NodeFunc
	edges       map[string]string
	conditional map[string]conditionalEdge
	entry       string
	logger      *log.Logger
}

// Step is one observed node execution. State is the snapshot after the
// node's delta was merged. A terminal engine failure arrives as a Step with
// only Err set.
type Step struct {
	Node  string
	Delta Delta
	State State
	Err   error
}

// Run executes the graph to completion and returns the final state.
func (r *Runner) Run(ctx context.Context, initial State) (State, error) {
	return r.execute(ctx, initial, nil)
}

// Stream executes the graph in a goroutine and emits one Step per node.
// The channel closes when the run finishes, fails, or the context is
// cancelled.
func (r *Runner) Stream(ctx context.Context, initial State) <-chan Step {
	steps := make(chan Step)

	go func() {
		defer close(steps)
		_, err := r.execute(ctx, initial, func(step Step) bool {
			select {
			case steps <- step:
				return true
			case <-ctx.Done():
				return false
			}
		})
		if err != nil {
			select {
			case steps <- Step{Err: err}:
			case <-ctx.Done():
			}
		}
	}()

	return steps
}

func (r *Runner) execute(ctx context.Context, state State, emit func(Step) bool) (State, error) {
	current := r.entry

	for steps := 0; steps < maxSteps; steps++ {
		if err := ctx.Err(); err != nil {
			return state, err
		}

		delta, err := r.nodes[current](ctx, state)
		if err != nil {
			// Nodes recover their own failures; this is the backstop for
			// anything that escapes. Record it and let routing drain to merge.
			r.logger.Printf("[WORKFLOW] Node %s failed: %v", current, err)
			msg := err.Error()
			delta = Delta{
				Error: &msg,
				Messages: []Message{{
					Role:    RoleSystem,
					Content: fmt.Sprintf("%s failed: %s", current, msg),
					Type:    MessageError,
				}},
			}
		}

		state = Merge(state, delta)
		if emit != nil && !emit(Step{Node: current, Delta: delta, State: state}) {
			return state, ctx.Err()
		}

		next, err := r.next(current, state)
		if err != nil {
			return state, err
		}
		if next == End {
			return state, nil
		}
		current = next
	}

	return state, fmt.Errorf("workflow exceeded %d steps without completing", maxSteps)
}

func (r *Runner) next(from string, state State) (string, error) {
	if ce, ok := r.conditional[from]; ok {
		label := ce.router(state)
		target, ok := ce.targets[label]
		if !ok {
			return "", fmt.Errorf("router for %q returned unknown label %q", from, label)
		}
		return target, nil
	}
	if to, ok := r.edges[from]; ok {
		return to, nil
	}
	return "", fmt.Errorf("no edge out of node %q", from)
}

// NewOrchestratorRunner wires the standard six-node content workflow:
//
//	classify → plan → strategy ──(needs action?)──> writer ──(critic?)──> critic
//	                     │                            │  ▲                  │
//	                     └────────────> merge <───────┘  └───(revise)───────┘
func NewOrchestratorRunner(n *Nodes, logger *log.Logger) (*Runner, error) {
	g := NewGraph()

	g.AddNode(NodeClassify, n.Classify)
	g.AddNode(NodePlan, n.PlanActions)
	g.AddNode(NodeStrategy, n.PickStrategy)
	g.AddNode(NodeWriter, n.Write)
	g.AddNode(NodeCritic, n.Review)
	g.AddNode(NodeMerge, n.MergeResults)

	g.SetEntryPoint(NodeClassify)
	g.AddEdge(NodeClassify, NodePlan)
	g.AddEdge(NodePlan, NodeStrategy)
	g.AddConditionalEdges(NodeStrategy, n.NeedsAction, map[string]string{
		routeExecute: NodeWriter,
		routeMerge:   NodeMerge,
	})
	g.AddConditionalEdges(NodeWriter, n.ShouldUseCritic, map[string]string{
		routeCritic: NodeCritic,
		routeMerge:  NodeMerge,
	})
	g.AddConditionalEdges(NodeCritic, n.ShouldRevise, map[string]string{
		routeRevise: NodeWriter,
		routeMerge:  NodeMerge,
	})
	g.AddEdge(NodeMerge, End)

	return g.Compile(logger)
}
