package dto

import (
	"ai-research-be/internal/entity"
)

type PlanJobRequest struct {
	Query       string              `json:"query" validate:"required"`
	Provider    string              `json:"provider"`
	Model       string              `json:"model"`
	ApiKey      string              `json:"api_key"`
	BaseURL     string              `json:"base_url"`
	Stats       *entity.CorpusStats `json:"stats"`
	NotifyEmail string              `json:"notify_email" validate:"omitempty,email"`
}

type ResearchJobRequest struct {
	Plan              *entity.Plan `json:"plan" validate:"required"`
	Provider          string       `json:"provider"`
	Model             string       `json:"model"`
	ApiKey            string       `json:"api_key"`
	BaseURL           string       `json:"base_url"`
	EmbeddingProvider string       `json:"embedding_provider"`
	EmbeddingModel    string       `json:"embedding_model"`
	EmbeddingApiKey   string       `json:"embedding_api_key"`
	EmbeddingBaseURL  string       `json:"embedding_base_url"`
	NotifyEmail       string       `json:"notify_email" validate:"omitempty,email"`
}

type JobAcceptedResponse struct {
	JobId string `json:"job_id"`
}

// JobEventMessage is the payload published on the job events topic for every
// lifecycle transition and progress tick. Snapshot is the full job state at
// the moment of publishing.
type JobEventMessage struct {
	Event       string      `json:"event"`
	JobId       string      `json:"job_id"`
	Snapshot    *entity.Job `json:"snapshot"`
	NotifyEmail string      `json:"notify_email,omitempty"`
	OccurredTs  float64     `json:"occurred_ts"`
}
