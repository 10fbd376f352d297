package service

import (
	"context"
	"strings"

	"ai-research-be/internal/dto"
	"ai-research-be/internal/entity"
	"ai-research-be/internal/repository/unitofwork"
	"ai-research-be/pkg/agent"
	"ai-research-be/pkg/retrieval"
)

// Search bounds for the ad-hoc corpus endpoint.
const (
	corpusSearchPapers = 8
	corpusSearchChunks = 48
)

type ICorpusService interface {
	// Stats summarizes the indexed corpus; fed to the planner as hints.
	Stats(ctx context.Context) (*entity.CorpusStats, error)
	// Search runs an ad-hoc query. Inline operators like /year:2023 or
	// /venue:ICLR narrow the filters.
	Search(ctx context.Context, rawQuery string) (*dto.CorpusSearchResponse, error)
}

type corpusService struct {
	uowFactory unitofwork.RepositoryFactory
	searcher   retrieval.Searcher
}

func NewCorpusService(uowFactory unitofwork.RepositoryFactory, searcher retrieval.Searcher) ICorpusService {
	return &corpusService{
		uowFactory: uowFactory,
		searcher:   searcher,
	}
}

func (c *corpusService) Stats(ctx context.Context) (*entity.CorpusStats, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	papers, err := uow.PaperRepository().Count(ctx)
	if err != nil {
		return nil, err
	}
	chunks, err := uow.PaperChunkRepository().Count(ctx)
	if err != nil {
		return nil, err
	}

	stats := &entity.CorpusStats{
		Papers: papers,
		Chunks: chunks,
	}
	if papers == 0 {
		return stats, nil
	}

	if minYear, maxYear, err := uow.PaperRepository().YearBounds(ctx); err == nil {
		stats.MinYear = minYear
		stats.MaxYear = maxYear
	}
	if minRating, maxRating, err := uow.PaperRepository().RatingBounds(ctx); err == nil {
		stats.MinRating = minRating
		stats.MaxRating = maxRating
	}
	if decisions, err := uow.PaperRepository().DistinctDecisions(ctx); err == nil {
		stats.Decisions = decisions
	}
	if venues, err := uow.PaperRepository().DistinctVenues(ctx); err == nil {
		stats.Venues = venues
	}
	return stats, nil
}

func (c *corpusService) Search(ctx context.Context, rawQuery string) (*dto.CorpusSearchResponse, error) {
	query, filters := retrieval.ParseQuery(rawQuery)
	if strings.TrimSpace(query) == "" && filters.IsZero() {
		return nil, agent.NewValidationError("q", "query must not be empty")
	}

	fragments, err := c.searcher.Search(ctx, query, filters, corpusSearchPapers, corpusSearchChunks)
	if err != nil {
		return nil, err
	}

	return &dto.CorpusSearchResponse{
		Query:     query,
		Filters:   filters,
		Fragments: fragments,
	}, nil
}
