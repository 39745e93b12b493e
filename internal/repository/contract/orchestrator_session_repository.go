package contract

import (
	"context"

	"publo-orchestrator/internal/entity"
	"publo-orchestrator/internal/repository/specification"
)

type OrchestratorSessionRepository interface {
	Create(ctx context.Context, session *entity.OrchestratorSession) error
	Update(ctx context.Context, session *entity.OrchestratorSession) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.OrchestratorSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.OrchestratorSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
