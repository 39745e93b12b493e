package factory

import (
	"fmt"
	"strings"

	"publo-orchestrator/pkg/llm"
	"publo-orchestrator/pkg/llm/anthropic"
	"publo-orchestrator/pkg/llm/ollama"
	"publo-orchestrator/pkg/llm/openai"
)

// Settings carries everything provider selection needs. Kept as plain
// values so callers outside internal/config can use the factory too.
type Settings struct {
	ModelOverride   string
	AnthropicAPIKey string
	AnthropicModel  string
	OpenAIAPIKey    string
	OpenAIModel     string
	OllamaBaseURL   string
	OllamaModel     string
}

// NewLLMProvider selects the text-completion backend once, at startup.
// Priority: explicit model override, then Anthropic if its key is set,
// then OpenAI if its key is set. With no override and no key this is a
// configuration error; no run may start without a usable provider.
func NewLLMProvider(s Settings) (llm.LLMProvider, string, error) {
	if s.ModelOverride != "" {
		return providerForModel(s, s.ModelOverride)
	}

	if s.AnthropicAPIKey != "" {
		return anthropic.NewAnthropicProvider(s.AnthropicAPIKey, s.AnthropicModel), s.AnthropicModel, nil
	}

	if s.OpenAIAPIKey != "" {
		return openai.NewOpenAIProvider(s.OpenAIAPIKey, s.OpenAIModel), s.OpenAIModel, nil
	}

	return nil, "", fmt.Errorf("no LLM provider configured: set ANTHROPIC_API_KEY or OPENAI_API_KEY")
}

func providerForModel(s Settings, model string) (llm.LLMProvider, string, error) {
	switch {
	case strings.HasPrefix(model, "claude"):
		if s.AnthropicAPIKey == "" {
			return nil, "", fmt.Errorf("model override %q requires ANTHROPIC_API_KEY", model)
		}
		return anthropic.NewAnthropicProvider(s.AnthropicAPIKey, model), model, nil
	case strings.HasPrefix(model, "gpt") || strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3"):
		if s.OpenAIAPIKey == "" {
			return nil, "", fmt.Errorf("model override %q requires OPENAI_API_KEY", model)
		}
		return openai.NewOpenAIProvider(s.OpenAIAPIKey, model), model, nil
	default:
		// Anything else is treated as a local Ollama model name.
		return ollama.NewOllamaProvider(s.OllamaBaseURL, model), model, nil
	}
}
