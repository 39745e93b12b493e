package intent

import (
	"context"
	"testing"
)

func TestAnalyzePatternShortCircuit(t *testing.T) {
	provider := &stubLLM{response: `{"intent": "general_chat"}`}
	analyzer := NewAnalyzer(provider, intentTestLogger())

	result := analyzer.Analyze(context.Background(), "Write this chapter", segmentSelectedContext())

	if result.Intent != IntentWriteContent {
		t.Errorf("intent = %q, want write_content", result.Intent)
	}
	if provider.calls != 0 {
		t.Errorf("pattern match must not call the provider, calls = %d", provider.calls)
	}
	if result.UsedLLM {
		t.Error("pattern result must not be marked as LLM-backed")
	}
}

func TestAnalyzeDelegatesToDeepStage(t *testing.T) {
	provider := &stubLLM{response: `{"intent": "improve_content", "confidence": 0.72, "reasoning": "Indirect phrasing"}`}
	analyzer := NewAnalyzer(provider, intentTestLogger())

	result := analyzer.Analyze(context.Background(), "the tone feels off somehow", segmentSelectedContext())

	if provider.calls != 1 {
		t.Fatalf("deep stage should call the provider once, calls = %d", provider.calls)
	}
	if result.Intent != IntentImproveContent {
		t.Errorf("intent = %q, want improve_content", result.Intent)
	}
	if !result.UsedLLM {
		t.Error("deep result must be marked as LLM-backed")
	}
}
