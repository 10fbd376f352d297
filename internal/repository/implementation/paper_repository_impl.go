package implementation

import (
	"context"
	"errors"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/mapper"
	"ai-research-be/internal/model"
	"ai-research-be/internal/repository/contract"
	"ai-research-be/internal/repository/specification"

	"gorm.io/gorm"
)

type PaperRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PaperMapper
}

func NewPaperRepository(db *gorm.DB) contract.PaperRepository {
	return &PaperRepositoryImpl{
		db:     db,
		mapper: mapper.NewPaperMapper(),
	}
}

func (r *PaperRepositoryImpl) Create(ctx context.Context, paper *entity.Paper) error {
	m := r.mapper.ToModel(paper)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*paper = *r.mapper.ToEntity(m)
	return nil
}

func (r *PaperRepositoryImpl) CreateBulk(ctx context.Context, papers []*entity.Paper) error {
	if len(papers) == 0 {
		return nil
	}
	models := make([]*model.Paper, len(papers))
	for i, p := range papers {
		models[i] = r.mapper.ToModel(p)
	}
	return r.db.WithContext(ctx).CreateInBatches(models, 100).Error
}

func (r *PaperRepositoryImpl) FindById(ctx context.Context, id string) (*entity.Paper, error) {
	var m model.Paper
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *PaperRepositoryImpl) FindByIds(ctx context.Context, ids []string) ([]*entity.Paper, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []*model.Paper
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *PaperRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Paper, error) {
	var models []*model.Paper
	query := specification.Apply(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *PaperRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := specification.Apply(r.db.WithContext(ctx).Model(&model.Paper{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PaperRepositoryImpl) DistinctDecisions(ctx context.Context) ([]string, error) {
	var values []string
	err := r.db.WithContext(ctx).
		Model(&model.Paper{}).
		Distinct("decision").
		Where("decision <> ''").
		Order("decision").
		Pluck("decision", &values).Error
	return values, err
}

func (r *PaperRepositoryImpl) DistinctVenues(ctx context.Context) ([]string, error) {
	var values []string
	err := r.db.WithContext(ctx).
		Model(&model.Paper{}).
		Distinct("venue").
		Where("venue <> ''").
		Order("venue").
		Pluck("venue", &values).Error
	return values, err
}

func (r *PaperRepositoryImpl) YearBounds(ctx context.Context) (int, int, error) {
	type bounds struct {
		Min int
		Max int
	}
	var b bounds
	err := r.db.WithContext(ctx).
		Model(&model.Paper{}).
		Select("COALESCE(MIN(year), 0) as min, COALESCE(MAX(year), 0) as max").
		Where("year > 0").
		Scan(&b).Error
	return b.Min, b.Max, err
}

func (r *PaperRepositoryImpl) RatingBounds(ctx context.Context) (float64, float64, error) {
	type bounds struct {
		Min float64
		Max float64
	}
	var b bounds
	err := r.db.WithContext(ctx).
		Model(&model.Paper{}).
		Select("COALESCE(MIN(rating), 0) as min, COALESCE(MAX(rating), 0) as max").
		Where("rating > 0").
		Scan(&b).Error
	return b.Min, b.Max, err
}
