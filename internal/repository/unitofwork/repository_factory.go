package unitofwork

import "context"

// RepositoryFactory hands out a fresh UnitOfWork per request. Services
// depend on this instead of *gorm.DB so transaction scope stays explicit.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
