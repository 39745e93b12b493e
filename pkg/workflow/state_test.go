package workflow

import (
	"testing"

	"publo-orchestrator/pkg/intent"
)

func TestMergeAppendsActionsAndMessages(t *testing.T) {
	state := State{
		Actions: []Action{
			{Type: ActionSelectSection, SelectSection: &SelectSectionPayload{SectionID: "ch1"}},
		},
		Messages: []Message{
			{Role: RoleOrchestrator, Content: "first", Type: MessageThinking},
			{Role: RoleOrchestrator, Content: "second", Type: MessageThinking},
		},
	}
	delta := Delta{
		Actions: []Action{
			{Type: ActionGenerateContent, GenerateContent: &GenerateContentPayload{SectionID: "ch1", Prompt: "write"}},
			{Type: ActionGenerateContent, GenerateContent: &GenerateContentPayload{SectionID: "ch2", Prompt: "write"}},
		},
		Messages: []Message{
			{Role: RoleOrchestrator, Content: "third", Type: MessageResult},
		},
	}

	merged := Merge(state, delta)

	if len(merged.Actions) != 3 {
		t.Fatalf("Actions length = %d, want 3", len(merged.Actions))
	}
	if merged.Actions[0].Type != ActionSelectSection {
		t.Errorf("Actions[0].Type = %s, want %s", merged.Actions[0].Type, ActionSelectSection)
	}
	if got := merged.Actions[2].GenerateContent.SectionID; got != "ch2" {
		t.Errorf("Actions[2] section = %q, want %q", got, "ch2")
	}
	if len(merged.Messages) != 3 {
		t.Fatalf("Messages length = %d, want 3", len(merged.Messages))
	}
	for i, want := range []string{"first", "second", "third"} {
		if merged.Messages[i].Content != want {
			t.Errorf("Messages[%d] = %q, want %q", i, merged.Messages[i].Content, want)
		}
	}
}

func TestMergeResultsRightBiased(t *testing.T) {
	state := State{Results: map[string]string{"a": "1", "b": "1"}}
	delta := Delta{Results: map[string]string{"a": "2"}}

	merged := Merge(state, delta)

	if merged.Results["a"] != "2" {
		t.Errorf("Results[a] = %q, want %q", merged.Results["a"], "2")
	}
	if merged.Results["b"] != "1" {
		t.Errorf("Results[b] = %q, want %q", merged.Results["b"], "1")
	}
	if len(merged.Results) != 2 {
		t.Errorf("Results length = %d, want 2", len(merged.Results))
	}
}

func TestMergeScalarsOverwriteOnlyWhenSet(t *testing.T) {
	approved := true
	iteration := 2
	errText := "writer failed"
	strategy := StrategyCluster

	state := State{Strategy: StrategySequential, Iteration: 1}

	merged := Merge(state, Delta{})
	if merged.Strategy != StrategySequential || merged.Iteration != 1 {
		t.Errorf("empty delta changed scalars: %+v", merged)
	}
	if merged.CriticApproved || merged.Error != "" {
		t.Errorf("empty delta set zero fields: %+v", merged)
	}

	merged = Merge(state, Delta{
		Strategy:       &strategy,
		Iteration:      &iteration,
		CriticApproved: &approved,
		Error:          &errText,
	})
	if merged.Strategy != StrategyCluster {
		t.Errorf("Strategy = %s, want %s", merged.Strategy, StrategyCluster)
	}
	if merged.Iteration != 2 {
		t.Errorf("Iteration = %d, want 2", merged.Iteration)
	}
	if !merged.CriticApproved {
		t.Error("CriticApproved should be true")
	}
	if merged.Error != "writer failed" {
		t.Errorf("Error = %q, want %q", merged.Error, "writer failed")
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	state := State{
		Results:  map[string]string{"a": "1"},
		Messages: []Message{{Role: RoleUser, Content: "hello", Type: MessageThinking}},
	}
	delta := Delta{
		Results:  map[string]string{"a": "2"},
		Messages: []Message{{Role: RoleSystem, Content: "done", Type: MessageResult}},
	}

	_ = Merge(state, delta)

	if state.Results["a"] != "1" {
		t.Errorf("input state mutated: Results[a] = %q", state.Results["a"])
	}
	if len(state.Messages) != 1 {
		t.Errorf("input state mutated: Messages length = %d", len(state.Messages))
	}
	if delta.Results["a"] != "2" {
		t.Errorf("input delta mutated: Results[a] = %q", delta.Results["a"])
	}
}

func TestMergeIntentPointer(t *testing.T) {
	analysis := &intent.Analysis{Intent: intent.IntentWriteContent, Confidence: 0.95}
	merged := Merge(State{}, Delta{Intent: analysis})
	if merged.Intent == nil || merged.Intent.Intent != intent.IntentWriteContent {
		t.Fatalf("Intent not merged: %+v", merged.Intent)
	}

	merged = Merge(merged, Delta{})
	if merged.Intent != analysis {
		t.Error("nil delta intent should leave previous analysis in place")
	}
}

func TestActionPayloadShapes(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		want   map[string]interface{}
	}{
		{
			name: "generate content with section",
			action: Action{
				Type: ActionGenerateContent,
				GenerateContent: &GenerateContentPayload{
					SectionID:   "ch1",
					SectionName: "Chapter 1",
					Prompt:      "write the opening",
				},
			},
			want: map[string]interface{}{
				"sectionId":   "ch1",
				"sectionName": "Chapter 1",
				"prompt":      "write the opening",
			},
		},
		{
			name: "chat response flags",
			action: Action{
				Type:            ActionGenerateContent,
				GenerateContent: &GenerateContentPayload{Prompt: "hi", IsChat: true},
			},
			want: map[string]interface{}{"prompt": "hi", "isChat": true},
		},
		{
			name: "generate structure",
			action: Action{
				Type:              ActionGenerateStructure,
				GenerateStructure: &GenerateStructurePayload{Format: "novel", Prompt: "a heist story"},
			},
			want: map[string]interface{}{"format": "novel", "prompt": "a heist story"},
		},
		{
			name: "select section",
			action: Action{
				Type:          ActionSelectSection,
				SelectSection: &SelectSectionPayload{SectionID: "ch2", SectionName: "Chapter 2"},
			},
			want: map[string]interface{}{"sectionId": "ch2", "sectionName": "Chapter 2"},
		},
		{
			name: "clarify",
			action: Action{
				Type:    ActionClarify,
				Clarify: &ClarifyPayload{Question: "Which section?"},
			},
			want: map[string]interface{}{"question": "Which section?"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.action.Payload()
			if len(got) != len(tt.want) {
				t.Fatalf("payload = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("payload[%s] = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}
