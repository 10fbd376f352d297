package dto

import (
	"ai-research-be/internal/entity"
)

type HistoryDetailResponse struct {
	Cid       string                       `json:"cid"`
	Title     string                       `json:"title"`
	CreatedTs float64                      `json:"created_ts"`
	Messages  []entity.ConversationMessage `json:"messages"`
	JobResult *entity.ResearchResult       `json:"job_result,omitempty"`
}

type RenameHistoryRequest struct {
	Title string `json:"title" validate:"required"`
}
