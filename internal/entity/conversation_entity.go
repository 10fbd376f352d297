package entity

import (
	"time"

	"gorm.io/datatypes"
)

type ConversationMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationSnapshot is the archived form of a finished research job:
// the research question, the rendered report, and the full job result.
type ConversationSnapshot struct {
	Title     string                `json:"title"`
	CreatedTs float64               `json:"created_ts"`
	Messages  []ConversationMessage `json:"messages"`
	JobResult *ResearchResult       `json:"job_result,omitempty"`
}

type Conversation struct {
	Cid       string `gorm:"primaryKey;size:40"`
	Title     string
	Snapshot  datatypes.JSONType[ConversationSnapshot] `gorm:"type:jsonb"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ConversationMeta is the list-view projection.
type ConversationMeta struct {
	Cid       string  `json:"cid"`
	Title     string  `json:"title"`
	CreatedTs float64 `json:"created_ts"`
	UpdatedTs float64 `json:"updated_ts"`
}
