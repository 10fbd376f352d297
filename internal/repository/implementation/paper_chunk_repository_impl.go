package implementation

import (
	"context"

	"ai-research-be/internal/mapper"
	"ai-research-be/internal/model"
	"ai-research-be/internal/repository/contract"
	"ai-research-be/internal/repository/specification"

	"ai-research-be/internal/entity"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type PaperChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PaperChunkMapper
}

func NewPaperChunkRepository(db *gorm.DB) contract.PaperChunkRepository {
	return &PaperChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewPaperChunkMapper(),
	}
}

func (r *PaperChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.PaperChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := make([]*model.PaperChunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ToModel(c)
	}
	return r.db.WithContext(ctx).CreateInBatches(models, 100).Error
}

func (r *PaperChunkRepositoryImpl) FindByPaperId(ctx context.Context, paperId string) ([]*entity.PaperChunk, error) {
	var models []*model.PaperChunk
	err := r.db.WithContext(ctx).
		Where("paper_id = ?", paperId).
		Order("kind, chunk_index").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *PaperChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := specification.Apply(r.db.WithContext(ctx).Model(&model.PaperChunk{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SearchSimilarWithScore returns chunks with cosine similarity, filtered by
// the paper-level specs. Cosine distance in pgvector is 1 - similarity.
func (r *PaperChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, filterSpecs []specification.Specification) ([]*contract.ScoredPaperChunk, error) {
	if limit <= 0 {
		limit = 40
	}

	type result struct {
		model.PaperChunk
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("paper_chunks").
		Select("paper_chunks.*, 1 - (paper_chunks.embedding <=> ?) as similarity", queryVector).
		Joins("JOIN papers ON papers.id = paper_chunks.paper_id").
		Where("paper_chunks.embedding IS NOT NULL")
	query = specification.Apply(query, filterSpecs...)

	err := query.
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredPaperChunk, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredPaperChunk{
			Chunk:      r.mapper.ToEntity(&res.PaperChunk),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}

// SearchLexical matches chunk text by keywords. Similarity is a descending
// rank stand-in so callers can treat both search paths alike.
func (r *PaperChunkRepositoryImpl) SearchLexical(ctx context.Context, queryText string, limit int, filterSpecs []specification.Specification) ([]*contract.ScoredPaperChunk, error) {
	if limit <= 0 {
		limit = 40
	}

	var models []*model.PaperChunk

	query := r.db.WithContext(ctx).
		Table("paper_chunks").
		Select("paper_chunks.*").
		Joins("JOIN papers ON papers.id = paper_chunks.paper_id").
		Where("paper_chunks.text ILIKE ?", "%"+queryText+"%")
	query = specification.Apply(query, filterSpecs...)

	err := query.
		Order("paper_chunks.paper_id, paper_chunks.chunk_index").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredPaperChunk, len(models))
	for i, m := range models {
		scored[i] = &contract.ScoredPaperChunk{
			Chunk:      r.mapper.ToEntity(m),
			Similarity: 1.0 - float64(i)/float64(limit+1),
		}
	}
	return scored, nil
}
