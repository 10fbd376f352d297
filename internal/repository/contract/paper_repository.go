package contract

import (
	"context"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/repository/specification"
)

type PaperRepository interface {
	Create(ctx context.Context, paper *entity.Paper) error
	CreateBulk(ctx context.Context, papers []*entity.Paper) error
	FindById(ctx context.Context, id string) (*entity.Paper, error)
	FindByIds(ctx context.Context, ids []string) ([]*entity.Paper, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Paper, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// Corpus summary lookups used for planner hints and the dashboard.
	DistinctDecisions(ctx context.Context) ([]string, error)
	DistinctVenues(ctx context.Context) ([]string, error)
	YearBounds(ctx context.Context) (min int, max int, err error)
	RatingBounds(ctx context.Context) (min float64, max float64, err error)
}
