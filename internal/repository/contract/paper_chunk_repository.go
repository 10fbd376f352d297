package contract

import (
	"context"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/repository/specification"
)

// ScoredPaperChunk is a chunk hit with its cosine similarity to the query.
type ScoredPaperChunk struct {
	Chunk      *entity.PaperChunk
	Similarity float64
}

type PaperChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.PaperChunk) error
	FindByPaperId(ctx context.Context, paperId string) ([]*entity.PaperChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// SearchSimilarWithScore runs a cosine search over chunk embeddings.
	// filterSpecs constrain the joined papers table.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, filterSpecs []specification.Specification) ([]*ScoredPaperChunk, error)

	// SearchLexical is the keyword fallback when no embedding provider is
	// available. Scores are synthetic rank positions, not similarities.
	SearchLexical(ctx context.Context, query string, limit int, filterSpecs []specification.Specification) ([]*ScoredPaperChunk, error)
}
