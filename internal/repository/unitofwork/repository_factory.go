package unitofwork

import "context"

// RepositoryFactory hands out a fresh unit of work per use. Controllers
// build one per request; the job runner builds one per archive write.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
