package agents

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"testing"

	"publo-orchestrator/pkg/llm"
)

// fakeProvider returns scripted responses in order and records the messages
// of the most recent call.
type fakeProvider struct {
	responses    []string
	err          error
	calls        int
	lastMessages []llm.Message
}

func (p *fakeProvider) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (string, error) {
	p.lastMessages = messages
	if p.err != nil {
		return "", p.err
	}
	if p.calls >= len(p.responses) {
		return "", errors.New("no scripted response left")
	}
	response := p.responses[p.calls]
	p.calls++
	return response, nil
}

func (p *fakeProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

func testLogger() *log.Logger {
	return log.New(os.Stdout, "[TEST] ", log.LstdFlags)
}

func TestCritiqueParsing(t *testing.T) {
	tests := []struct {
		name         string
		response     string
		wantScore    int
		wantApproved bool
		wantFeedback string
	}{
		{
			name:         "plain json approved",
			response:     `{"score": 8, "feedback": "Strong imagery", "suggestions": ["Add dialogue"]}`,
			wantScore:    8,
			wantApproved: true,
			wantFeedback: "Strong imagery",
		},
		{
			name:         "below threshold",
			response:     `{"score": 5, "feedback": "Flat pacing", "suggestions": []}`,
			wantScore:    5,
			wantApproved: false,
			wantFeedback: "Flat pacing",
		},
		{
			name:         "json fenced in markdown",
			response:     "```json\n{\"score\": 9, \"feedback\": \"Excellent\", \"suggestions\": []}\n```",
			wantScore:    9,
			wantApproved: true,
			wantFeedback: "Excellent",
		},
		{
			name:         "bare fence",
			response:     "```\n{\"score\": 7, \"feedback\": \"Good enough\"}\n```",
			wantScore:    7,
			wantApproved: true,
			wantFeedback: "Good enough",
		},
		{
			name:         "unparseable response approves",
			response:     "I think this content is quite good overall.",
			wantScore:    7,
			wantApproved: true,
			wantFeedback: "Unable to parse critique response",
		},
		{
			name:         "missing score defaults low",
			response:     `{"feedback": "No score given"}`,
			wantScore:    5,
			wantApproved: false,
			wantFeedback: "No score given",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{responses: []string{tt.response}}
			critic := NewCritic(provider, 0, testLogger())

			result, err := critic.Critique(context.Background(), "Once upon a time...")
			if err != nil {
				t.Fatalf("Critique returned error: %v", err)
			}
			if result.Score != tt.wantScore {
				t.Errorf("Score = %d, want %d", result.Score, tt.wantScore)
			}
			if result.Approved != tt.wantApproved {
				t.Errorf("Approved = %v, want %v", result.Approved, tt.wantApproved)
			}
			if result.Feedback != tt.wantFeedback {
				t.Errorf("Feedback = %q, want %q", result.Feedback, tt.wantFeedback)
			}
			if result.Suggestions == nil {
				t.Error("Suggestions should never be nil")
			}
		})
	}
}

func TestCritiqueCustomThreshold(t *testing.T) {
	provider := &fakeProvider{responses: []string{`{"score": 8, "feedback": "Solid"}`}}
	critic := NewCritic(provider, 9, testLogger())

	result, err := critic.Critique(context.Background(), "content")
	if err != nil {
		t.Fatalf("Critique returned error: %v", err)
	}
	if result.Approved {
		t.Error("score 8 should not pass threshold 9")
	}
}

func TestCritiqueProviderError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("rate limited")}
	critic := NewCritic(provider, 7, testLogger())

	_, err := critic.Critique(context.Background(), "content")
	if err == nil {
		t.Fatal("expected error from failing provider")
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("error should wrap provider failure, got: %v", err)
	}
}

func TestCritiqueTruncatesLongContent(t *testing.T) {
	provider := &fakeProvider{responses: []string{`{"score": 8, "feedback": "ok"}`}}
	critic := NewCritic(provider, 7, testLogger())

	long := strings.Repeat("a", 5000)
	if _, err := critic.Critique(context.Background(), long); err != nil {
		t.Fatalf("Critique returned error: %v", err)
	}

	user := provider.lastMessages[len(provider.lastMessages)-1]
	if len(user.Content) > len("Evaluate this content:\n\n")+critiqueContentLimit {
		t.Errorf("content not truncated, user message length = %d", len(user.Content))
	}
}
