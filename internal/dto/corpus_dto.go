package dto

import (
	"ai-research-be/internal/entity"
)

type CorpusSearchResponse struct {
	Query     string                    `json:"query"`
	Filters   entity.SearchFilters      `json:"filters"`
	Fragments []entity.EvidenceFragment `json:"fragments"`
}
