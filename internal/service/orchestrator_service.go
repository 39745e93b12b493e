package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"publo-orchestrator/internal/constant"
	"publo-orchestrator/internal/dto"
	"publo-orchestrator/pkg/events"
	"publo-orchestrator/pkg/intent"
	"publo-orchestrator/pkg/llm"
	"publo-orchestrator/pkg/workflow"
	"publo-orchestrator/pkg/workflow/agents"

	"github.com/google/uuid"
)

// IOrchestratorService runs the content workflow for API callers and owns
// the glue between the engine, session persistence, and the event relay.
type IOrchestratorService interface {
	Orchestrate(ctx context.Context, request *dto.OrchestrateRequest) (*dto.OrchestrateResponse, error)
	OrchestrateStream(ctx context.Context, request *dto.OrchestrateRequest) <-chan dto.StreamEventDTO
	ExecuteAction(ctx context.Context, request *dto.ExecuteActionRequest) *dto.ExecuteActionResponse
}

type orchestratorService struct {
	runner         *workflow.Runner
	writer         *agents.Writer
	sessionService ISessionService
	publisher      IPublisherService
	maxIterations  int
	llmLogger      *log.Logger
}

// NewOrchestratorService wires the full workflow pipeline around the given
// provider. The compiled graph is immutable and shared by every request.
// criticThreshold and maxIterations come from config and apply when the
// request doesn't override them.
func NewOrchestratorService(
	llmProvider llm.LLMProvider,
	sessionService ISessionService,
	publisher IPublisherService,
	criticThreshold int,
	maxIterations int,
) (IOrchestratorService, error) {
	llmLogger := initLLMLogger()

	analyzer := intent.NewAnalyzer(llmProvider, llmLogger)
	writer := agents.NewWriter(llmProvider, llmLogger)
	critic := agents.NewCritic(llmProvider, criticThreshold, llmLogger)

	nodes := workflow.NewNodes(analyzer, writer, critic, llmLogger)
	runner, err := workflow.NewOrchestratorRunner(nodes, llmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to compile workflow graph: %w", err)
	}

	return &orchestratorService{
		runner:         runner,
		writer:         writer,
		sessionService: sessionService,
		publisher:      publisher,
		maxIterations:  maxIterations,
		llmLogger:      llmLogger,
	}, nil
}

// initLLMLogger creates a dedicated logger for LLM traffic so provider
// prompts and responses don't flood the main app log.
func initLLMLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "llm_orchestrator.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[LLM-ORCH] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

// Orchestrate executes one full workflow run and returns the final state as
// a wire response. Persistence and event publishing are best-effort; a
// broken side channel never fails a run that produced content.
func (oc *orchestratorService) Orchestrate(ctx context.Context, request *dto.OrchestrateRequest) (*dto.OrchestrateResponse, error) {
	oc.llmLogger.Printf("[ORCH] Run started for user %s: %s", request.UserId, truncateKey(request.Message, 80))

	state := oc.buildState(ctx, request)
	oc.recordUserMessage(ctx, request)
	oc.publishEvent(ctx, request, events.TypeOrchestrationStarted, map[string]interface{}{
		"message": truncateKey(request.Message, 100),
	})

	final, err := oc.runner.Run(ctx, state)
	if err != nil {
		oc.publishEvent(ctx, request, events.TypeOrchestrationFailed, map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	oc.llmLogger.Printf("[ORCH] Run complete: strategy=%s actions=%d results=%d error=%q",
		final.Strategy, len(final.Actions), len(final.Results), final.Error)

	response := buildOrchestrateResponse(final, request.SessionId)
	oc.recordRunOutcome(ctx, request, final)
	oc.publishCompletion(ctx, request, final)

	return response, nil
}

// OrchestrateStream runs the workflow and emits one event per observable
// change. Every engine step carries the whole merged state, so messages and
// actions repeat across steps; the dedup keys here keep each from being
// sent twice.
func (oc *orchestratorService) OrchestrateStream(ctx context.Context, request *dto.OrchestrateRequest) <-chan dto.StreamEventDTO {
	out := make(chan dto.StreamEventDTO)

	go func() {
		defer close(out)

		emit := func(event string, data interface{}) bool {
			select {
			case out <- dto.StreamEventDTO{Event: event, Data: data}:
				return true
			case <-ctx.Done():
				return false
			}
		}

		state := oc.buildState(ctx, request)
		oc.recordUserMessage(ctx, request)
		oc.publishEvent(ctx, request, events.TypeOrchestrationStarted, map[string]interface{}{
			"message": truncateKey(request.Message, 100),
		})

		var (
			final        = state
			sentIntent   bool
			sentStrategy bool
			seenMessages = map[string]bool{}
			seenActions  = map[string]bool{}
			sentResults  = map[string]string{}
		)

		for step := range oc.runner.Stream(ctx, state) {
			if step.Err != nil {
				oc.publishEvent(ctx, request, events.TypeOrchestrationFailed, map[string]interface{}{
					"error": step.Err.Error(),
				})
				emit("error", map[string]interface{}{"error": step.Err.Error()})
				return
			}
			final = step.State

			if !sentIntent && step.State.Intent != nil {
				sentIntent = true
				analysis := step.State.Intent
				data := map[string]interface{}{
					"intent":     analysis.Intent,
					"confidence": analysis.Confidence,
					"reasoning":  analysis.Reasoning,
				}
				if analysis.NeedsClarification {
					data["needs_clarification"] = true
					data["clarifying_question"] = analysis.ClarifyingQuestion
				}
				if !emit("intent", data) {
					return
				}
			}

			if !sentStrategy && step.State.Strategy != "" {
				sentStrategy = true
				if !emit("strategy", map[string]interface{}{"strategy": string(step.State.Strategy)}) {
					return
				}
			}

			for _, m := range step.Delta.Messages {
				key := m.Role + ":" + truncateKey(m.Content, 50)
				if seenMessages[key] {
					continue
				}
				seenMessages[key] = true
				if !emit("message", dto.WorkflowMessageDTO{Role: m.Role, Content: m.Content, Type: m.Type}) {
					return
				}
			}

			for _, a := range step.Delta.Actions {
				key := string(a.Type) + ":" + a.SectionID()
				if seenActions[key] {
					continue
				}
				seenActions[key] = true
				if !emit("action", actionToDTO(a)) {
					return
				}
			}

			// Revision passes overwrite a section's content, so results dedup
			// on value, not just section id.
			sections := make([]string, 0, len(step.Delta.Results))
			for id := range step.Delta.Results {
				sections = append(sections, id)
			}
			sort.Strings(sections)
			for _, id := range sections {
				content := step.Delta.Results[id]
				if sentResults[id] == content {
					continue
				}
				sentResults[id] = content
				if !emit("result", dto.SectionResultDTO{SectionId: id, Content: content, WordCount: wordCount(content)}) {
					return
				}
			}

			if step.Node == workflow.NodeCritic && step.Delta.CriticApproved != nil {
				if !emit("critic", map[string]interface{}{
					"approved":  *step.Delta.CriticApproved,
					"iteration": step.State.Iteration,
				}) {
					return
				}
			}
		}

		if ctx.Err() != nil {
			return
		}

		response := buildOrchestrateResponse(final, request.SessionId)
		oc.recordRunOutcome(ctx, request, final)
		oc.publishCompletion(ctx, request, final)
		emit("done", response)
	}()

	return out
}

// ExecuteAction runs one client-confirmed action outside a workflow run.
// select_section and delete_node execute on the client; the server only
// acknowledges them.
func (oc *orchestratorService) ExecuteAction(ctx context.Context, request *dto.ExecuteActionRequest) *dto.ExecuteActionResponse {
	payload := request.Action.Payload

	switch workflow.ActionType(request.Action.Type) {
	case workflow.ActionGenerateContent:
		prompt, _ := payload["prompt"].(string)
		sectionName, _ := payload["sectionName"].(string)
		canvasContext, _ := request.Context["canvas_context"].(string)
		existing, _ := request.Context["existing_content"].(string)

		content, err := oc.writer.GenerateContent(ctx, agents.GenerateRequest{
			Prompt:          prompt,
			SectionName:     sectionName,
			Context:         canvasContext,
			ExistingContent: existing,
		})
		if err != nil {
			return &dto.ExecuteActionResponse{Success: false, Error: err.Error()}
		}

		metadata := map[string]interface{}{"word_count": wordCount(content)}
		if sectionID, ok := payload["sectionId"].(string); ok && sectionID != "" {
			metadata["section_id"] = sectionID
		}
		return &dto.ExecuteActionResponse{Success: true, Content: content, Metadata: metadata}

	case workflow.ActionGenerateStructure:
		return &dto.ExecuteActionResponse{Success: false, Error: "Structure generation not yet implemented"}

	case workflow.ActionSelectSection, workflow.ActionDeleteNode:
		metadata := map[string]interface{}{"acknowledged": true}
		for k, v := range payload {
			metadata[k] = v
		}
		return &dto.ExecuteActionResponse{Success: true, Metadata: metadata}

	default:
		return &dto.ExecuteActionResponse{Success: false, Error: fmt.Sprintf("Unknown action type: %s", request.Action.Type)}
	}
}

// buildState maps the wire request onto a fresh workflow State. When the
// request carries no inline history but names a session, the recent
// transcript is loaded through the history cache.
func (oc *orchestratorService) buildState(ctx context.Context, request *dto.OrchestrateRequest) workflow.State {
	state := workflow.State{
		UserMessage:       request.Message,
		UserID:            request.UserId.String(),
		DocumentPanelOpen: request.DocumentPanelOpen,
		DocumentFormat:    request.DocumentFormat,
		CanvasContext:     request.CanvasContext,
		ModelMode:         request.ModelMode,
		FixedModelID:      request.FixedModelId,
		MaxIterations:     request.MaxIterations,
		EnableCritic:      request.EnableCritic == nil || *request.EnableCritic,
	}
	if state.MaxIterations <= 0 {
		state.MaxIterations = oc.maxIterations
	}
	if state.ModelMode == "" {
		state.ModelMode = "automatic"
	}
	if request.SessionId != nil {
		state.SessionID = request.SessionId.String()
	}

	if request.ActiveSegment != nil {
		state.ActiveSegment = &intent.Segment{
			ID:      request.ActiveSegment.Id,
			Name:    request.ActiveSegment.Name,
			Level:   request.ActiveSegment.Level,
			Content: request.ActiveSegment.Content,
		}
	}
	for _, item := range request.StructureItems {
		state.StructureItems = append(state.StructureItems, workflow.StructureItem{
			ID:         item.Id,
			Name:       item.Name,
			Level:      item.Level,
			ParentID:   item.ParentId,
			HasContent: item.HasContent,
		})
	}
	for _, turn := range request.ConversationHistory {
		state.ConversationHistory = append(state.ConversationHistory, intent.Turn{Role: turn.Role, Content: turn.Content})
	}

	if len(state.ConversationHistory) == 0 && request.SessionId != nil {
		turns, err := oc.sessionService.LoadRecentHistory(ctx, *request.SessionId)
		if err != nil {
			log.Printf("[WARN] Failed to load history for session %s: %v", request.SessionId, err)
		} else {
			state.ConversationHistory = turns
		}
	}

	return state
}

// recordUserMessage appends the inbound message to the session transcript.
// Best-effort: an unknown session just skips persistence.
func (oc *orchestratorService) recordUserMessage(ctx context.Context, request *dto.OrchestrateRequest) {
	if request.SessionId == nil {
		return
	}
	_, err := oc.sessionService.AddMessage(ctx, &dto.AddOrchestratorMessageRequest{
		SessionId: *request.SessionId,
		Role:      constant.MessageRoleUser,
		Content:   request.Message,
		Type:      "message",
	})
	if err != nil {
		log.Printf("[WARN] Failed to persist user message: %v", err)
	}
}

// recordRunOutcome persists the orchestrator's reply to the transcript. The
// reply is the clarifying question when one was asked, the generated content
// when the run produced a single section, otherwise the closing summary.
func (oc *orchestratorService) recordRunOutcome(ctx context.Context, request *dto.OrchestrateRequest, final workflow.State) {
	if request.SessionId == nil {
		return
	}

	content := ""
	messageType := "message"
	if len(final.Messages) > 0 {
		content = final.Messages[len(final.Messages)-1].Content
	}
	switch {
	case final.Error != "":
		content = final.Error
		messageType = "error"
	case final.Intent != nil && final.Intent.NeedsClarification && final.Intent.ClarifyingQuestion != "":
		content = final.Intent.ClarifyingQuestion
	case len(final.Results) == 1:
		for _, c := range final.Results {
			content = c
		}
		messageType = "result"
	case len(final.Results) > 1:
		messageType = "result"
	}
	if content == "" {
		return
	}

	metadata := map[string]interface{}{
		"strategy":   string(final.Strategy),
		"iterations": final.Iteration,
	}
	if final.Intent != nil {
		metadata["intent"] = final.Intent.Intent
		metadata["confidence"] = final.Intent.Confidence
	}

	_, err := oc.sessionService.AddMessage(ctx, &dto.AddOrchestratorMessageRequest{
		SessionId: *request.SessionId,
		Role:      constant.MessageRoleOrchestrator,
		Content:   content,
		Type:      messageType,
		Metadata:  metadata,
	})
	if err != nil {
		log.Printf("[WARN] Failed to persist orchestrator message: %v", err)
	}
}

// publishCompletion reports the run's terminal event, plus content_generated
// when sections were produced.
func (oc *orchestratorService) publishCompletion(ctx context.Context, request *dto.OrchestrateRequest, final workflow.State) {
	if final.Error != "" {
		oc.publishEvent(ctx, request, events.TypeOrchestrationFailed, map[string]interface{}{
			"error": final.Error,
		})
		return
	}

	if len(final.Results) > 0 {
		sections := make([]string, 0, len(final.Results))
		for id := range final.Results {
			sections = append(sections, id)
		}
		sort.Strings(sections)
		oc.publishEvent(ctx, request, events.TypeContentGenerated, map[string]interface{}{
			"sections":   sections,
			"iterations": final.Iteration,
		})
	}

	intentName := ""
	if final.Intent != nil {
		intentName = final.Intent.Intent
	}
	oc.publishEvent(ctx, request, events.TypeOrchestrationCompleted, map[string]interface{}{
		"intent":   intentName,
		"strategy": string(final.Strategy),
		"actions":  len(final.Actions),
	})
}

// publishEvent drops a workflow event on the in-process bus. The relay owns
// websocket and NATS delivery; a failure here only loses the live view.
func (oc *orchestratorService) publishEvent(ctx context.Context, request *dto.OrchestrateRequest, eventType string, data map[string]interface{}) {
	if oc.publisher == nil {
		return
	}

	msg := dto.PublishWorkflowEventMessage{
		UserId:    request.UserId,
		EventType: eventType,
		Data:      data,
	}
	if request.SessionId != nil {
		msg.SessionId = request.SessionId.String()
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[WARN] Failed to marshal %s event: %v", eventType, err)
		return
	}
	if err := oc.publisher.Publish(ctx, payload); err != nil {
		log.Printf("[WARN] Failed to publish %s event: %v", eventType, err)
	}
}

func buildOrchestrateResponse(final workflow.State, sessionId *uuid.UUID) *dto.OrchestrateResponse {
	response := &dto.OrchestrateResponse{
		Success:        final.Error == "",
		SessionId:      sessionId,
		Strategy:       string(final.Strategy),
		Actions:        make([]dto.ActionDTO, 0, len(final.Actions)),
		Messages:       make([]dto.WorkflowMessageDTO, 0, len(final.Messages)),
		Results:        make([]dto.SectionResultDTO, 0, len(final.Results)),
		IterationsUsed: final.Iteration,
		Error:          final.Error,
	}

	if final.Intent != nil {
		response.Intent = final.Intent.Intent
		response.Confidence = final.Intent.Confidence
		response.Reasoning = final.Intent.Reasoning
	}

	for _, a := range final.Actions {
		response.Actions = append(response.Actions, actionToDTO(a))
	}
	for _, m := range final.Messages {
		response.Messages = append(response.Messages, dto.WorkflowMessageDTO{Role: m.Role, Content: m.Content, Type: m.Type})
	}

	sections := make([]string, 0, len(final.Results))
	for id := range final.Results {
		sections = append(sections, id)
	}
	sort.Strings(sections)
	for _, id := range sections {
		content := final.Results[id]
		response.Results = append(response.Results, dto.SectionResultDTO{
			SectionId: id,
			Content:   content,
			WordCount: wordCount(content),
		})
	}

	// critic_approved is only meaningful on runs that engaged the critic.
	if final.Strategy == workflow.StrategyCluster && final.EnableCritic {
		approved := final.CriticApproved
		response.CriticApproved = &approved
	}

	return response
}

func actionToDTO(a workflow.Action) dto.ActionDTO {
	return dto.ActionDTO{
		Type:              string(a.Type),
		Payload:           a.Payload(),
		RequiresUserInput: a.RequiresUserInput,
		Priority:          string(a.Priority),
	}
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func truncateKey(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
