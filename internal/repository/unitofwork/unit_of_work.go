package unitofwork

import (
	"context"

	"publo-orchestrator/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	OrchestratorSessionRepository() contract.OrchestratorSessionRepository
	OrchestratorMessageRepository() contract.OrchestratorMessageRepository
}
