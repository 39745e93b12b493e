package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"publo-orchestrator/pkg/llm"
)

const (
	criticTimeout     = 60 * time.Second
	criticTemperature = 0.3
	criticMaxTokens   = 1000

	critiqueContentLimit = 3000

	// DefaultCriticThreshold is the minimum score that counts as approved.
	DefaultCriticThreshold = 7
)

const criticSystemPrompt = `You are an expert editor and writing critic.
Your job is to evaluate content quality and provide constructive feedback.

Evaluate based on:
1. Clarity and readability
2. Engagement and flow
3. Grammar and style
4. Consistency with context
5. Creativity and originality

Respond with ONLY valid JSON (no markdown, no extra text):
Example: {"score": 8, "feedback": "Good writing with strong imagery", "suggestions": ["Add more dialogue"]}

Score 1-10 where 7 or higher means approved quality.`

// CritiqueResult is the critic's verdict for one piece of content.
type CritiqueResult struct {
	Score       int      `json:"score"`
	Feedback    string   `json:"feedback"`
	Suggestions []string `json:"suggestions"`
	Approved    bool     `json:"approved"`
}

type Critic struct {
	provider  llm.LLMProvider
	threshold int
	logger    *log.Logger
}

func NewCritic(provider llm.LLMProvider, threshold int, logger *log.Logger) *Critic {
	if threshold <= 0 {
		threshold = DefaultCriticThreshold
	}
	return &Critic{provider: provider, threshold: threshold, logger: logger}
}

// Critique scores content against the approval threshold. A malformed
// critique response approves with score 7 rather than blocking the run; only
// provider failures surface as errors.
func (c *Critic) Critique(ctx context.Context, content string) (CritiqueResult, error) {
	ctx, cancel := context.WithTimeout(ctx, criticTimeout)
	defer cancel()

	messages := []llm.Message{
		{Role: "system", Content: criticSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Evaluate this content:\n\n%s", truncate(content, critiqueContentLimit))},
	}

	raw, err := c.provider.Chat(ctx, messages,
		llm.WithTemperature(criticTemperature),
		llm.WithMaxTokens(criticMaxTokens),
	)
	if err != nil {
		return CritiqueResult{}, fmt.Errorf("critic evaluation failed: %w", err)
	}

	return c.parse(raw), nil
}

func (c *Critic) parse(raw string) CritiqueResult {
	var parsed struct {
		Score       *int     `json:"score"`
		Feedback    string   `json:"feedback"`
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(extractCritiqueJSON(raw)), &parsed); err != nil {
		c.logger.Printf("[CRITIC] Failed to parse response: %v", err)
		c.logger.Printf("[CRITIC] Raw response: %s", truncate(raw, 200))
		return CritiqueResult{
			Score:       DefaultCriticThreshold,
			Feedback:    "Unable to parse critique response",
			Suggestions: []string{},
			Approved:    true,
		}
	}

	score := 5
	if parsed.Score != nil {
		score = *parsed.Score
	}
	if parsed.Suggestions == nil {
		parsed.Suggestions = []string{}
	}

	approved := score >= c.threshold
	c.logger.Printf("[CRITIC] Score: %d/10, approved=%v", score, approved)

	return CritiqueResult{
		Score:       score,
		Feedback:    parsed.Feedback,
		Suggestions: parsed.Suggestions,
		Approved:    approved,
	}
}

func extractCritiqueJSON(raw string) string {
	if i := strings.Index(raw, "```json"); i >= 0 {
		raw = raw[i+len("```json"):]
		if j := strings.Index(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	} else if i := strings.Index(raw, "```"); i >= 0 {
		raw = raw[i+len("```"):]
		if j := strings.Index(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	return strings.TrimSpace(raw)
}
