package workflow

import (
	"publo-orchestrator/pkg/intent"
)

// SelectStrategy picks the execution mode for a planned run. Only cluster
// changes engine behavior (it engages the critic loop); parallel is a hint
// the caller may use when applying actions.
func SelectStrategy(a intent.Analysis, s State) Strategy {
	switch a.Intent {
	case intent.IntentAnswerQuestion, intent.IntentGeneralChat, intent.IntentNavigateSection:
		return StrategySequential
	case intent.IntentCreateStructure:
		return StrategySequential
	}

	if len(s.Actions) >= 3 {
		return StrategyParallel
	}

	writing := a.Intent == intent.IntentWriteContent || a.Intent == intent.IntentImproveContent
	if writing && s.EnableCritic && a.Confidence > 0.9 {
		return StrategyCluster
	}

	return StrategySequential
}
