package factory

import (
	"strings"
	"testing"

	"publo-orchestrator/pkg/llm/anthropic"
	"publo-orchestrator/pkg/llm/ollama"
	"publo-orchestrator/pkg/llm/openai"
)

func TestProviderSelectionPriority(t *testing.T) {
	tests := []struct {
		name      string
		settings  Settings
		wantModel string
		wantType  string
		wantErr   string
	}{
		{
			name:     "no credentials is a configuration error",
			settings: Settings{},
			wantErr:  "no LLM provider configured",
		},
		{
			name: "anthropic key selects anthropic",
			settings: Settings{
				AnthropicAPIKey: "sk-ant-test",
				AnthropicModel:  "claude-sonnet-4-20250514",
			},
			wantModel: "claude-sonnet-4-20250514",
			wantType:  "anthropic",
		},
		{
			name: "anthropic wins over openai when both keys are set",
			settings: Settings{
				AnthropicAPIKey: "sk-ant-test",
				AnthropicModel:  "claude-sonnet-4-20250514",
				OpenAIAPIKey:    "sk-test",
				OpenAIModel:     "gpt-4o",
			},
			wantModel: "claude-sonnet-4-20250514",
			wantType:  "anthropic",
		},
		{
			name: "openai key alone selects openai",
			settings: Settings{
				OpenAIAPIKey: "sk-test",
				OpenAIModel:  "gpt-4o",
			},
			wantModel: "gpt-4o",
			wantType:  "openai",
		},
		{
			name: "claude override routes to anthropic",
			settings: Settings{
				ModelOverride:   "claude-3-5-haiku-latest",
				AnthropicAPIKey: "sk-ant-test",
				OpenAIAPIKey:    "sk-test",
			},
			wantModel: "claude-3-5-haiku-latest",
			wantType:  "anthropic",
		},
		{
			name: "claude override without key fails",
			settings: Settings{
				ModelOverride: "claude-3-5-haiku-latest",
				OpenAIAPIKey:  "sk-test",
			},
			wantErr: "requires ANTHROPIC_API_KEY",
		},
		{
			name: "gpt override routes to openai",
			settings: Settings{
				ModelOverride:   "gpt-4o-mini",
				AnthropicAPIKey: "sk-ant-test",
				OpenAIAPIKey:    "sk-test",
			},
			wantModel: "gpt-4o-mini",
			wantType:  "openai",
		},
		{
			name: "o1 override routes to openai",
			settings: Settings{
				ModelOverride: "o1-mini",
				OpenAIAPIKey:  "sk-test",
			},
			wantModel: "o1-mini",
			wantType:  "openai",
		},
		{
			name: "gpt override without key fails",
			settings: Settings{
				ModelOverride: "gpt-4o",
			},
			wantErr: "requires OPENAI_API_KEY",
		},
		{
			name: "unknown override is treated as local ollama model",
			settings: Settings{
				ModelOverride: "llama3",
			},
			wantModel: "llama3",
			wantType:  "ollama",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, model, err := NewLLMProvider(tt.settings)

			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewLLMProvider: %v", err)
			}
			if model != tt.wantModel {
				t.Errorf("model = %q, want %q", model, tt.wantModel)
			}

			var gotType string
			switch provider.(type) {
			case *anthropic.AnthropicProvider:
				gotType = "anthropic"
			case *openai.OpenAIProvider:
				gotType = "openai"
			case *ollama.OllamaProvider:
				gotType = "ollama"
			default:
				gotType = "unknown"
			}
			if gotType != tt.wantType {
				t.Errorf("provider type = %s, want %s", gotType, tt.wantType)
			}
		})
	}
}
