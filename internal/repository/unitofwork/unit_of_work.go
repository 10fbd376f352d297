package unitofwork

import (
	"context"

	"ai-research-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	PaperRepository() contract.PaperRepository
	PaperChunkRepository() contract.PaperChunkRepository
	ConversationRepository() contract.ConversationRepository
}
