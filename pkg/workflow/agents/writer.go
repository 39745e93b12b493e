// Package agents hosts the LLM-backed writer and critic that the workflow
// nodes delegate to.
package agents

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"publo-orchestrator/pkg/llm"
)

const (
	writerTimeout     = 120 * time.Second
	writerTemperature = 0.7
	writerMaxTokens   = 4000

	existingContentLimit = 2000
)

const writerSystemPrompt = `You are an expert creative writer. Your task is to generate
high-quality content for the given section.

Guidelines:
- Write in a clear, engaging style
- Match the tone and voice of any existing content
- Be creative while staying true to the context
- Use vivid descriptions and strong narrative flow

%s`

const writerUserPrompt = `Section: %s

User request: %s

Write the content for this section:`

// GenerateRequest carries one content-generation job for the writer.
// Context and ExistingContent are optional; ExistingContent is prior output
// for the same section, passed back on revision passes.
type GenerateRequest struct {
	Prompt          string
	SectionName     string
	Context         string
	ExistingContent string
}

type Writer struct {
	provider llm.LLMProvider
	logger   *log.Logger
}

func NewWriter(provider llm.LLMProvider, logger *log.Logger) *Writer {
	return &Writer{provider: provider, logger: logger}
}

// GenerateContent produces prose for one section. Provider failures are
// returned as errors so the calling node can decide how to degrade.
func (w *Writer) GenerateContent(ctx context.Context, req GenerateRequest) (string, error) {
	sectionName := req.SectionName
	if sectionName == "" {
		sectionName = "Content"
	}

	var contextParts []string
	if req.Context != "" {
		contextParts = append(contextParts, fmt.Sprintf("Document Context:\n%s", req.Context))
	}
	if req.ExistingContent != "" {
		contextParts = append(contextParts, fmt.Sprintf("Existing Content:\n%s...", truncate(req.ExistingContent, existingContentLimit)))
	}
	contextSection := strings.Join(contextParts, "\n\n")

	ctx, cancel := context.WithTimeout(ctx, writerTimeout)
	defer cancel()

	messages := []llm.Message{
		{Role: "system", Content: fmt.Sprintf(writerSystemPrompt, contextSection)},
		{Role: "user", Content: fmt.Sprintf(writerUserPrompt, sectionName, req.Prompt)},
	}

	content, err := w.provider.Chat(ctx, messages,
		llm.WithTemperature(writerTemperature),
		llm.WithMaxTokens(writerMaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("writer generation failed: %w", err)
	}

	w.logger.Printf("[WRITER] Generated %d characters for section %q", len(content), sectionName)
	return content, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
