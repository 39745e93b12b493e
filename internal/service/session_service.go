package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"publo-orchestrator/internal/constant"
	"publo-orchestrator/internal/dto"
	"publo-orchestrator/internal/entity"
	"publo-orchestrator/internal/repository/memory"
	"publo-orchestrator/internal/repository/specification"
	"publo-orchestrator/internal/repository/unitofwork"
	"publo-orchestrator/pkg/events"
	"publo-orchestrator/pkg/intent"
	pktNats "publo-orchestrator/pkg/nats"

	"github.com/google/uuid"
)

const defaultMessageLimit = 50

// ISessionService owns orchestrator session and message bookkeeping. The
// workflow core never touches persistence; everything goes through here.
type ISessionService interface {
	CreateSession(ctx context.Context, request *dto.CreateOrchestratorSessionRequest) (*dto.OrchestratorSessionResponse, error)
	GetActiveSession(ctx context.Context, userId uuid.UUID) (*dto.OrchestratorSessionResponse, error)
	GetUserSessions(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*dto.OrchestratorSessionResponse, error)
	AddMessage(ctx context.Context, request *dto.AddOrchestratorMessageRequest) (*dto.OrchestratorMessageResponse, error)
	GetSessionMessages(ctx context.Context, sessionId uuid.UUID, limit int) ([]*dto.OrchestratorMessageResponse, error)
	CloseSession(ctx context.Context, sessionId uuid.UUID) error
	LoadRecentHistory(ctx context.Context, sessionId uuid.UUID) ([]intent.Turn, error)
	Start()
}

type sessionService struct {
	uowFactory  unitofwork.RepositoryFactory
	historyRepo *memory.HistoryRepository
	natsSub     *pktNats.Subscriber
}

func NewSessionService(
	uowFactory unitofwork.RepositoryFactory,
	historyRepo *memory.HistoryRepository,
	natsSub *pktNats.Subscriber,
) ISessionService {
	return &sessionService{
		uowFactory:  uowFactory,
		historyRepo: historyRepo,
		natsSub:     natsSub,
	}
}

// CreateSession opens a fresh session for the user.
func (ss *sessionService) CreateSession(ctx context.Context, request *dto.CreateOrchestratorSessionRequest) (*dto.OrchestratorSessionResponse, error) {
	uow := ss.uowFactory.NewUnitOfWork(ctx)

	session := entity.OrchestratorSession{
		Id:        uuid.New(),
		UserId:    request.UserId,
		CanvasId:  request.CanvasId,
		Metadata:  request.Metadata,
		IsActive:  true,
		CreatedAt: time.Now(),
	}

	if err := uow.OrchestratorSessionRepository().Create(ctx, &session); err != nil {
		return nil, err
	}

	return sessionToResponse(&session), nil
}

// GetActiveSession returns the user's most recent active session, or nil
// when none is open.
func (ss *sessionService) GetActiveSession(ctx context.Context, userId uuid.UUID) (*dto.OrchestratorSessionResponse, error) {
	uow := ss.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.OrchestratorSessionRepository().FindOne(ctx,
		specification.ByUserID{UserID: userId},
		specification.ActiveOnly{},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	return sessionToResponse(session), nil
}

// GetUserSessions lists the user's sessions, newest first.
func (ss *sessionService) GetUserSessions(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*dto.OrchestratorSessionResponse, error) {
	uow := ss.uowFactory.NewUnitOfWork(ctx)

	if limit <= 0 {
		limit = 20
	}

	sessions, err := uow.OrchestratorSessionRepository().FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.OrchestratorSessionResponse, 0, len(sessions))
	for _, s := range sessions {
		response = append(response, sessionToResponse(s))
	}
	return response, nil
}

// AddMessage appends one message to a session's transcript and keeps the
// in-memory history cache warm.
func (ss *sessionService) AddMessage(ctx context.Context, request *dto.AddOrchestratorMessageRequest) (*dto.OrchestratorMessageResponse, error) {
	uow := ss.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.OrchestratorSessionRepository().FindOne(ctx, specification.ByID{ID: request.SessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("session not found")
	}

	messageType := request.Type
	if messageType == "" {
		messageType = "message"
	}

	message := entity.OrchestratorMessage{
		Id:        uuid.New(),
		SessionId: request.SessionId,
		Role:      request.Role,
		Content:   request.Content,
		Type:      messageType,
		Metadata:  request.Metadata,
		CreatedAt: time.Now(),
	}

	if err := uow.OrchestratorMessageRepository().Create(ctx, &message); err != nil {
		return nil, err
	}

	if request.Role == constant.MessageRoleUser || request.Role == constant.MessageRoleOrchestrator {
		ss.historyRepo.Append(request.SessionId.String(), intent.Turn{
			Role:    request.Role,
			Content: request.Content,
		})
	}

	return messageToResponse(&message), nil
}

// GetSessionMessages returns the transcript oldest-first.
func (ss *sessionService) GetSessionMessages(ctx context.Context, sessionId uuid.UUID, limit int) ([]*dto.OrchestratorMessageResponse, error) {
	uow := ss.uowFactory.NewUnitOfWork(ctx)

	if limit <= 0 {
		limit = defaultMessageLimit
	}

	messages, err := uow.OrchestratorMessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
		specification.Pagination{Limit: limit},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.OrchestratorMessageResponse, 0, len(messages))
	for _, m := range messages {
		response = append(response, messageToResponse(m))
	}
	return response, nil
}

// CloseSession marks the session inactive and drops its cached history.
// The transcript stays in postgres.
func (ss *sessionService) CloseSession(ctx context.Context, sessionId uuid.UUID) error {
	uow := ss.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.OrchestratorSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("session not found")
	}

	session.IsActive = false
	if err := uow.OrchestratorSessionRepository().Update(ctx, session); err != nil {
		return err
	}

	ss.historyRepo.Delete(sessionId.String())
	return nil
}

// LoadRecentHistory is a read-through: cache first, then the last
// defaultMessageLimit transcript rows, oldest-first, priming the cache.
func (ss *sessionService) LoadRecentHistory(ctx context.Context, sessionId uuid.UUID) ([]intent.Turn, error) {
	if turns, found := ss.historyRepo.Get(sessionId.String()); found {
		return turns, nil
	}

	uow := ss.uowFactory.NewUnitOfWork(ctx)
	messages, err := uow.OrchestratorMessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
		specification.Pagination{Limit: defaultMessageLimit},
	)
	if err != nil {
		return nil, err
	}

	turns := make([]intent.Turn, 0, len(messages))
	for _, m := range messages {
		if m.Role != constant.MessageRoleUser && m.Role != constant.MessageRoleOrchestrator {
			continue
		}
		turns = append(turns, intent.Turn{Role: m.Role, Content: m.Content})
	}

	if len(turns) > 0 {
		ss.historyRepo.Append(sessionId.String(), turns...)
	}
	return turns, nil
}

// Start consumes canvas lifecycle events from NATS. When the canvas app
// reports a project closed, every active session for that user is closed
// so stale sessions don't pile up.
func (ss *sessionService) Start() {
	if ss.natsSub == nil {
		return
	}

	err := ss.natsSub.Subscribe("orchestration.canvas_closed", "orchestrator-session-worker", func(ctx context.Context, event events.Event) error {
		payload := event.Payload()
		userIdStr, _ := payload["user_id"].(string)
		userId, err := uuid.Parse(userIdStr)
		if err != nil {
			log.Printf("[WARN] canvas_closed event without valid user_id: %v", payload["user_id"])
			return nil // Drop malformed events, retrying won't fix them
		}

		uow := ss.uowFactory.NewUnitOfWork(ctx)
		sessions, err := uow.OrchestratorSessionRepository().FindAll(ctx,
			specification.ByUserID{UserID: userId},
			specification.ActiveOnly{},
		)
		if err != nil {
			return err
		}

		for _, session := range sessions {
			session.IsActive = false
			if err := uow.OrchestratorSessionRepository().Update(ctx, session); err != nil {
				return err
			}
			ss.historyRepo.Delete(session.Id.String())
		}

		if len(sessions) > 0 {
			log.Printf("[INFO] Closed %d session(s) for user %s after canvas_closed", len(sessions), userId)
		}
		return nil
	})
	if err != nil {
		log.Printf("[WARN] Failed to subscribe to canvas_closed events: %v", err)
	}
}

func sessionToResponse(s *entity.OrchestratorSession) *dto.OrchestratorSessionResponse {
	return &dto.OrchestratorSessionResponse{
		Id:        s.Id,
		UserId:    s.UserId,
		CanvasId:  s.CanvasId,
		Metadata:  s.Metadata,
		IsActive:  s.IsActive,
		CreatedAt: s.CreatedAt,
	}
}

func messageToResponse(m *entity.OrchestratorMessage) *dto.OrchestratorMessageResponse {
	return &dto.OrchestratorMessageResponse{
		Id:        m.Id,
		SessionId: m.SessionId,
		Role:      m.Role,
		Content:   m.Content,
		Type:      m.Type,
		Metadata:  m.Metadata,
		CreatedAt: m.CreatedAt,
	}
}
