package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"publo-orchestrator/internal/constant"
	"publo-orchestrator/pkg/llm"
)

const deepAnalysisTimeout = 30 * time.Second

// DeepAnalyzer is the slow classification stage. It asks the
// text-completion provider to pick an intent from the fixed taxonomy and
// parses the structured reply. It never returns an error: any provider or
// parse failure degrades to a low-confidence fallback so the workflow can
// always proceed.
type DeepAnalyzer struct {
	provider llm.LLMProvider
	logger   *log.Logger
}

func NewDeepAnalyzer(provider llm.LLMProvider, logger *log.Logger) *DeepAnalyzer {
	return &DeepAnalyzer{
		provider: provider,
		logger:   logger,
	}
}

func (d *DeepAnalyzer) Analyze(ctx context.Context, message string, pctx Context) Analysis {
	d.logger.Printf("[DEEP-ANALYZER] Starting deep analysis for: %s", truncate(message, 50))

	systemPrompt := fmt.Sprintf(constant.IntentAnalysisSystemPrompt, buildContextSection(pctx))
	userPrompt := fmt.Sprintf(constant.IntentAnalysisUserPrompt, message)

	callCtx, cancel := context.WithTimeout(ctx, deepAnalysisTimeout)
	defer cancel()

	response, err := d.provider.Chat(callCtx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}, llm.WithTemperature(0.2), llm.WithMaxTokens(1000))
	if err != nil {
		d.logger.Printf("[DEEP-ANALYZER] Analysis failed: %v", err)
		return fallbackAnalysis()
	}

	return d.parseResponse(response)
}

// buildContextSection renders the pipeline context as a short natural
// language summary for the prompt.
func buildContextSection(pctx Context) string {
	var sections []string

	if pctx.DocumentPanelOpen {
		format := pctx.DocumentFormat
		if format == "" {
			format = "unknown"
		}
		sections = append(sections, fmt.Sprintf("- Document panel is OPEN (format: %s)", format))
		if pctx.ActiveSegment != nil {
			name := pctx.ActiveSegment.Name
			if name == "" {
				name = "Unknown"
			}
			level := pctx.ActiveSegment.Level
			if level == 0 {
				level = 1
			}
			sections = append(sections, fmt.Sprintf("- Active section: %q (level %d)", name, level))
		}
	} else {
		sections = append(sections, "- Document panel is CLOSED (user is on canvas view)")
	}

	if pctx.Canvas != nil && pctx.Canvas.TotalNodes > 0 {
		sections = append(sections, fmt.Sprintf("- Canvas has %d nodes", pctx.Canvas.TotalNodes))
		if len(pctx.Canvas.ConnectedNodes) > 0 {
			connected := pctx.Canvas.ConnectedNodes
			if len(connected) > 3 {
				connected = connected[:3]
			}
			names := make([]string, 0, len(connected))
			for _, n := range connected {
				label := n.Label
				if label == "" {
					label = "Unknown"
				}
				names = append(names, label)
			}
			sections = append(sections, fmt.Sprintf("- Connected documents: %s", strings.Join(names, ", ")))
		}
	}

	if len(pctx.ConversationHistory) > 0 {
		recent := pctx.ConversationHistory
		if len(recent) > 3 {
			recent = recent[len(recent)-3:]
		}
		sections = append(sections, "- Recent conversation:")
		for _, turn := range recent {
			role := turn.Role
			if role == "" {
				role = "unknown"
			}
			sections = append(sections, fmt.Sprintf("  [%s]: %s...", role, truncate(turn.Content, 100)))
		}
	}

	if len(sections) == 0 {
		return "No additional context available."
	}
	return strings.Join(sections, "\n")
}

// parseResponse tolerates markdown fences, prose around the JSON object,
// and missing optional fields.
func (d *DeepAnalyzer) parseResponse(response string) Analysis {
	content := strings.TrimSpace(response)
	if strings.HasPrefix(content, "```") {
		parts := strings.SplitN(content, "```", 3)
		if len(parts) >= 2 {
			content = parts[1]
		}
		content = strings.TrimPrefix(content, "json")
	}
	content = strings.TrimSpace(content)

	if !strings.HasPrefix(content, "{") {
		content = extractJSON(content)
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		d.logger.Printf("[DEEP-ANALYZER] Failed to parse response: %v", err)
		d.logger.Printf("[DEEP-ANALYZER] Response text: %s", truncate(response, 500))
		return fallbackAnalysis()
	}

	analysis := Analysis{
		Intent:             asString(data["intent"], IntentGeneralChat),
		Confidence:         asFloat(data["confidence"], 0.5),
		Reasoning:          asString(data["reasoning"], "Deep analysis completed"),
		SuggestedAction:    asString(data["suggestedAction"], "Process the request"),
		RequiresContext:    asBool(data["requiresContext"], true),
		SuggestedModel:     asString(data["suggestedModel"], "orchestrator"),
		NeedsClarification: asBool(data["needsClarification"], false),
		ClarifyingQuestion: asString(data["clarifyingQuestion"], ""),
		ExtractedEntities:  asEntityMap(data["extractedEntities"]),
		UsedLLM:            true,
	}
	if analysis.NeedsClarification && analysis.ClarifyingQuestion == "" {
		analysis.ClarifyingQuestion = "Could you please clarify what you'd like me to do?"
	}
	return analysis
}

// fallbackAnalysis keeps the workflow moving when deep analysis cannot
// produce a usable result.
func fallbackAnalysis() Analysis {
	return Analysis{
		Intent:             IntentGeneralChat,
		Confidence:         0.3,
		Reasoning:          "Deep analysis failed, defaulting to conversation",
		SuggestedAction:    "Respond conversationally and ask for clarification",
		RequiresContext:    false,
		SuggestedModel:     "orchestrator",
		NeedsClarification: true,
		ClarifyingQuestion: "I'm not sure I understood your request. Could you please clarify what you'd like me to do?",
		ExtractedEntities:  map[string]interface{}{},
		UsedLLM:            true,
	}
}

func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return s
	}
	return s[start : end+1]
}

func asString(v interface{}, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

func asBool(v interface{}, fallback bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return fallback
}

func asFloat(v interface{}, fallback float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f
		}
	}
	return fallback
}

func asEntityMap(v interface{}) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
