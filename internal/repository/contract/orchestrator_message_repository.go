package contract

import (
	"context"

	"publo-orchestrator/internal/entity"
	"publo-orchestrator/internal/repository/specification"
)

type OrchestratorMessageRepository interface {
	Create(ctx context.Context, message *entity.OrchestratorMessage) error
	CreateBatch(ctx context.Context, messages []*entity.OrchestratorMessage) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.OrchestratorMessage, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
