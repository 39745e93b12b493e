package intent

import (
	"context"
	"log"

	"publo-orchestrator/pkg/llm"
)

// Analyzer resolves user intent in two stages: pattern matching first,
// deep model-backed analysis only when patterns are inconclusive.
// One Analyzer is built at startup and shared across runs; it holds no
// mutable state.
type Analyzer struct {
	deep   *DeepAnalyzer
	logger *log.Logger
}

func NewAnalyzer(provider llm.LLMProvider, logger *log.Logger) *Analyzer {
	return &Analyzer{
		deep:   NewDeepAnalyzer(provider, logger),
		logger: logger,
	}
}

// Analyze is the main entry point for intent analysis. It always returns a
// usable Analysis; failures in the deep stage degrade to a clarification
// fallback rather than an error.
func (a *Analyzer) Analyze(ctx context.Context, message string, pctx Context) Analysis {
	a.logger.Printf("[INTENT] Analyzing: %s", truncate(message, 50))

	if result, ok := Classify(message, pctx); ok {
		a.logger.Printf("[INTENT] Pattern match: %s (confidence: %.2f)", result.Intent, result.Confidence)
		return result
	}

	a.logger.Printf("[INTENT] No pattern match, using deep analysis...")
	result := a.deep.Analyze(ctx, message, pctx)
	a.logger.Printf("[INTENT] Deep analysis: %s (confidence: %.2f)", result.Intent, result.Confidence)
	return result
}
