package contract

import (
	"context"

	"ai-research-be/internal/entity"
)

type ConversationRepository interface {
	// Save upserts by cid.
	Save(ctx context.Context, conversation *entity.Conversation) error
	FindByCid(ctx context.Context, cid string) (*entity.Conversation, error)
	// List returns metadata newest-first, up to limit entries.
	List(ctx context.Context, limit int) ([]*entity.ConversationMeta, error)
	Rename(ctx context.Context, cid string, title string) error
	Delete(ctx context.Context, cid string) error
	Count(ctx context.Context) (int64, error)
}
