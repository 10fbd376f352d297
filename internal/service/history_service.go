package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"ai-research-be/internal/constant"
	"ai-research-be/internal/dto"
	"ai-research-be/internal/entity"
	"ai-research-be/internal/repository/unitofwork"
	"ai-research-be/pkg/utils"
)

// List limits for archived conversations.
const (
	historyTitleMaxRunes = 48
	historyDefaultLimit  = 100
	historyMaxLimit      = 500
)

type IHistoryService interface {
	// Archive stores a finished research run and returns its conversation id.
	Archive(ctx context.Context, title string, result *entity.ResearchResult) (string, error)
	Show(ctx context.Context, cid string) (*dto.HistoryDetailResponse, error)
	List(ctx context.Context, limit int) ([]*entity.ConversationMeta, error)
	// Rename updates the display title. Returns nil when the cid is unknown.
	Rename(ctx context.Context, cid string, title string) (*entity.ConversationMeta, error)
	Delete(ctx context.Context, cid string) error
}

type historyService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewHistoryService(uowFactory unitofwork.RepositoryFactory) IHistoryService {
	return &historyService{
		uowFactory: uowFactory,
	}
}

func (c *historyService) Archive(ctx context.Context, title string, result *entity.ResearchResult) (string, error) {
	if result == nil {
		return "", fmt.Errorf("nothing to archive")
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled research"
	}
	title = utils.TruncateRunes(title, historyTitleMaxRunes)

	now := time.Now()
	cid := newCid(now)
	snapshot := entity.ConversationSnapshot{
		Title:     title,
		CreatedTs: utils.UnixSeconds(now),
		Messages: []entity.ConversationMessage{
			{Role: constant.ConversationRoleUser, Content: title},
			{Role: constant.ConversationRoleAssistant, Content: result.FinalReport},
		},
		JobResult: result,
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return "", err
	}
	defer uow.Rollback()

	err := uow.ConversationRepository().Save(ctx, &entity.Conversation{
		Cid:       cid,
		Title:     title,
		Snapshot:  datatypes.NewJSONType(snapshot),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return "", err
	}
	if err := uow.Commit(); err != nil {
		return "", err
	}
	return cid, nil
}

// Show returns the archived conversation, or nil when the cid is unknown.
func (c *historyService) Show(ctx context.Context, cid string) (*dto.HistoryDetailResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	conversation, err := uow.ConversationRepository().FindByCid(ctx, cid)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, nil
	}

	snapshot := conversation.Snapshot.Data()
	return &dto.HistoryDetailResponse{
		Cid:       conversation.Cid,
		Title:     conversation.Title,
		CreatedTs: snapshot.CreatedTs,
		Messages:  snapshot.Messages,
		JobResult: snapshot.JobResult,
	}, nil
}

func (c *historyService) List(ctx context.Context, limit int) ([]*entity.ConversationMeta, error) {
	if limit <= 0 {
		limit = historyDefaultLimit
	}
	if limit > historyMaxLimit {
		limit = historyMaxLimit
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	return uow.ConversationRepository().List(ctx, limit)
}

func (c *historyService) Rename(ctx context.Context, cid string, title string) (*entity.ConversationMeta, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title must not be empty")
	}
	title = utils.TruncateRunes(title, historyTitleMaxRunes)

	uow := c.uowFactory.NewUnitOfWork(ctx)
	conversation, err := uow.ConversationRepository().FindByCid(ctx, cid)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, nil
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ConversationRepository().Rename(ctx, cid, title); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return &entity.ConversationMeta{
		Cid:       cid,
		Title:     title,
		CreatedTs: utils.UnixSeconds(conversation.CreatedAt),
		UpdatedTs: utils.NowUnix(),
	}, nil
}

// Delete removes the archived conversation. Unknown cids are ignored.
func (c *historyService) Delete(ctx context.Context, cid string) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ConversationRepository().Delete(ctx, cid); err != nil {
		return err
	}
	return uow.Commit()
}

// newCid builds a sortable conversation id: a timestamp prefix plus a short
// random suffix to keep same-second archives distinct.
func newCid(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%s-%s", now.Format("20060102-150405"), suffix)
}
