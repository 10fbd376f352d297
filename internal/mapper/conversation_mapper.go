package mapper

import (
	"encoding/json"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/model"
	"ai-research-be/pkg/utils"

	"gorm.io/datatypes"
)

type ConversationMapper struct{}

func NewConversationMapper() *ConversationMapper {
	return &ConversationMapper{}
}

func (m *ConversationMapper) ToEntity(c *model.Conversation) *entity.Conversation {
	if c == nil {
		return nil
	}

	var snapshot entity.ConversationSnapshot
	if len(c.Payload) > 0 {
		_ = json.Unmarshal(c.Payload, &snapshot)
	}

	return &entity.Conversation{
		Cid:       c.Cid,
		Title:     c.Title,
		Snapshot:  datatypes.NewJSONType(snapshot),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (m *ConversationMapper) ToModel(c *entity.Conversation) (*model.Conversation, error) {
	if c == nil {
		return nil, nil
	}

	payload, err := json.Marshal(c.Snapshot)
	if err != nil {
		return nil, err
	}

	return &model.Conversation{
		Cid:       c.Cid,
		Title:     c.Title,
		Payload:   payload,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}, nil
}

func (m *ConversationMapper) ToMeta(c *model.Conversation) *entity.ConversationMeta {
	if c == nil {
		return nil
	}

	return &entity.ConversationMeta{
		Cid:       c.Cid,
		Title:     c.Title,
		CreatedTs: utils.UnixSeconds(c.CreatedAt),
		UpdatedTs: utils.UnixSeconds(c.UpdatedAt),
	}
}
