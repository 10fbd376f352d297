package implementation

import (
	"context"
	"errors"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/mapper"
	"ai-research-be/internal/model"
	"ai-research-be/internal/repository/contract"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConversationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConversationMapper
}

func NewConversationRepository(db *gorm.DB) contract.ConversationRepository {
	return &ConversationRepositoryImpl{
		db:     db,
		mapper: mapper.NewConversationMapper(),
	}
}

func (r *ConversationRepositoryImpl) Save(ctx context.Context, conversation *entity.Conversation) error {
	m, err := r.mapper.ToModel(conversation)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cid"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "payload", "updated_at"}),
		}).
		Create(m).Error
}

func (r *ConversationRepositoryImpl) FindByCid(ctx context.Context, cid string) (*entity.Conversation, error) {
	var m model.Conversation
	if err := r.db.WithContext(ctx).Where("cid = ?", cid).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ConversationRepositoryImpl) List(ctx context.Context, limit int) ([]*entity.ConversationMeta, error) {
	var models []*model.Conversation
	err := r.db.WithContext(ctx).
		Select("cid", "title", "created_at", "updated_at").
		Order("updated_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	metas := make([]*entity.ConversationMeta, len(models))
	for i, m := range models {
		metas[i] = r.mapper.ToMeta(m)
	}
	return metas, nil
}

func (r *ConversationRepositoryImpl) Rename(ctx context.Context, cid string, title string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Conversation{}).
		Where("cid = ?", cid).
		Update("title", title)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ConversationRepositoryImpl) Delete(ctx context.Context, cid string) error {
	return r.db.WithContext(ctx).Where("cid = ?", cid).Delete(&model.Conversation{}).Error
}

func (r *ConversationRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Conversation{}).Count(&count).Error
	return count, err
}
