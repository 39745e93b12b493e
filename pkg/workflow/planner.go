package workflow

import (
	"publo-orchestrator/pkg/intent"
)

// Plan maps a classified intent to the actions the frontend and writer will
// execute. It is pure: same analysis and state, same plan.
func Plan(a intent.Analysis, s State) []Action {
	var actions []Action

	switch a.Intent {
	case intent.IntentWriteContent, intent.IntentImproveContent, intent.IntentRewriteWithCoherence:
		if seg := s.ActiveSegment; seg != nil {
			actions = append(actions, Action{
				Type: ActionGenerateContent,
				GenerateContent: &GenerateContentPayload{
					SectionID:   seg.ID,
					SectionName: seg.Name,
					Prompt:      s.UserMessage,
				},
				Priority: PriorityNormal,
			})
		} else {
			actions = append(actions, Action{
				Type:            ActionGenerateContent,
				GenerateContent: &GenerateContentPayload{Prompt: s.UserMessage},
				Priority:        PriorityNormal,
			})
		}

	case intent.IntentCreateStructure:
		format := entityString(a, "documentFormat")
		if format == "" {
			format = "novel"
		}
		actions = append(actions, Action{
			Type:              ActionGenerateStructure,
			GenerateStructure: &GenerateStructurePayload{Format: format, Prompt: s.UserMessage},
			Priority:          PriorityHigh,
		})

	case intent.IntentModifyStructure:
		actions = append(actions, Action{
			Type:            ActionModifyStructure,
			ModifyStructure: &ModifyStructurePayload{Prompt: s.UserMessage},
			Priority:        PriorityNormal,
		})

	case intent.IntentAnswerQuestion:
		actions = append(actions, Action{
			Type:            ActionGenerateContent,
			GenerateContent: &GenerateContentPayload{Prompt: s.UserMessage, IsAnswer: true},
			Priority:        PriorityNormal,
		})

	case intent.IntentNavigateSection:
		actions = append(actions, Action{
			Type: ActionSelectSection,
			SelectSection: &SelectSectionPayload{
				SectionID:   entityString(a, "targetSection"),
				SectionName: entityString(a, "targetSectionName"),
			},
			Priority: PriorityHigh,
		})

	case intent.IntentOpenAndWrite:
		target := entityString(a, "targetSection")
		targetName := entityString(a, "targetSectionName")
		actions = append(actions,
			Action{
				Type:          ActionSelectSection,
				SelectSection: &SelectSectionPayload{SectionID: target, SectionName: targetName},
				Priority:      PriorityHigh,
			},
			Action{
				Type: ActionGenerateContent,
				GenerateContent: &GenerateContentPayload{
					SectionID:   target,
					SectionName: targetName,
					Prompt:      s.UserMessage,
				},
				Priority: PriorityNormal,
			},
		)

	case intent.IntentDeleteNode:
		actions = append(actions, Action{
			Type: ActionDeleteNode,
			DeleteNode: &DeleteNodePayload{
				NodeID:   entityString(a, "targetSection"),
				NodeName: entityString(a, "targetSectionName"),
			},
			RequiresUserInput: true,
			Priority:          PriorityNormal,
		})

	case intent.IntentGeneralChat:
		actions = append(actions, Action{
			Type:            ActionGenerateContent,
			GenerateContent: &GenerateContentPayload{Prompt: s.UserMessage, IsChat: true},
			Priority:        PriorityLow,
		})

	case intent.IntentClarificationNeeded:
		question := a.ClarifyingQuestion
		if question == "" {
			question = "Could you clarify what you'd like me to do?"
		}
		actions = append(actions, Action{
			Type:              ActionClarify,
			Clarify:           &ClarifyPayload{Question: question},
			RequiresUserInput: true,
			Priority:          PriorityHigh,
		})
	}

	return actions
}

func entityString(a intent.Analysis, key string) string {
	if a.ExtractedEntities == nil {
		return ""
	}
	if v, ok := a.ExtractedEntities[key].(string); ok {
		return v
	}
	return ""
}
