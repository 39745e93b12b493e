package service

import (
	"context"

	"publo-orchestrator/internal/dto"
	"publo-orchestrator/pkg/intent"
	"publo-orchestrator/pkg/llm"
)

// IIntentService exposes the classification pipeline without a workflow
// run. The canvas frontend calls it for fast intent previews.
type IIntentService interface {
	Analyze(ctx context.Context, request *dto.IntentRequest) *dto.IntentResponse
	Classify(request *dto.IntentRequest) *dto.ClassifyResponse
}

type intentService struct {
	analyzer *intent.Analyzer
}

func NewIntentService(llmProvider llm.LLMProvider) IIntentService {
	return &intentService{
		analyzer: intent.NewAnalyzer(llmProvider, initLLMLogger()),
	}
}

// Analyze runs both classification stages.
func (is *intentService) Analyze(ctx context.Context, request *dto.IntentRequest) *dto.IntentResponse {
	analysis := is.analyzer.Analyze(ctx, request.Message, intentContextFromDTO(request))
	return analysisToResponse(analysis)
}

// Classify runs the pattern stage alone. A miss is not an error; the
// response says deep analysis would be needed.
func (is *intentService) Classify(request *dto.IntentRequest) *dto.ClassifyResponse {
	analysis, ok := intent.Classify(request.Message, intentContextFromDTO(request))
	if !ok {
		return &dto.ClassifyResponse{
			Matched: false,
			Message: "No pattern matched - would need LLM analysis",
		}
	}
	return &dto.ClassifyResponse{Matched: true, Analysis: analysisToResponse(analysis)}
}

func intentContextFromDTO(request *dto.IntentRequest) intent.Context {
	pctx := intent.Context{
		Message:           request.Message,
		DocumentPanelOpen: request.Context.DocumentPanelOpen,
		DocumentFormat:    request.Context.DocumentFormat,
	}

	if seg := request.Context.ActiveSegment; seg != nil {
		pctx.ActiveSegment = &intent.Segment{
			ID:      seg.Id,
			Name:    seg.Name,
			Level:   seg.Level,
			Content: seg.Content,
		}
	}

	if canvas := request.Context.Canvas; canvas != nil {
		cc := &intent.CanvasContext{TotalNodes: canvas.TotalNodes}
		for _, n := range canvas.ConnectedNodes {
			cc.ConnectedNodes = append(cc.ConnectedNodes, intent.CanvasNode{
				NodeID:   n.NodeId,
				NodeType: n.NodeType,
				Label:    n.Label,
				Format:   n.Format,
			})
		}
		for _, n := range canvas.AllNodes {
			cc.AllNodes = append(cc.AllNodes, intent.CanvasNode{
				NodeID:   n.NodeId,
				NodeType: n.NodeType,
				Label:    n.Label,
				Format:   n.Format,
			})
		}
		pctx.Canvas = cc
	}

	for _, turn := range request.ConversationHistory {
		pctx.ConversationHistory = append(pctx.ConversationHistory, intent.Turn{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}

	return pctx
}

func analysisToResponse(a intent.Analysis) *dto.IntentResponse {
	return &dto.IntentResponse{
		Intent:             a.Intent,
		Confidence:         a.Confidence,
		Reasoning:          a.Reasoning,
		SuggestedAction:    a.SuggestedAction,
		RequiresContext:    a.RequiresContext,
		SuggestedModel:     a.SuggestedModel,
		NeedsClarification: a.NeedsClarification,
		ClarifyingQuestion: a.ClarifyingQuestion,
		ExtractedEntities:  a.ExtractedEntities,
		UsedLLM:            a.UsedLLM,
	}
}
