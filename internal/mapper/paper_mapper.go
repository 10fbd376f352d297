package mapper

import (
	"encoding/json"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type PaperMapper struct{}

func NewPaperMapper() *PaperMapper {
	return &PaperMapper{}
}

func (m *PaperMapper) ToEntity(p *model.Paper) *entity.Paper {
	if p == nil {
		return nil
	}

	var authors, keywords []string
	if len(p.Authors) > 0 {
		_ = json.Unmarshal(p.Authors, &authors)
	}
	if len(p.Keywords) > 0 {
		_ = json.Unmarshal(p.Keywords, &keywords)
	}

	return &entity.Paper{
		Id:           p.Id,
		Title:        p.Title,
		Authors:      authors,
		Venue:        p.Venue,
		Year:         p.Year,
		Rating:       p.Rating,
		Decision:     p.Decision,
		Presentation: p.Presentation,
		Keywords:     keywords,
		Abstract:     p.Abstract,
	}
}

func (m *PaperMapper) ToModel(p *entity.Paper) *model.Paper {
	if p == nil {
		return nil
	}

	authors, _ := json.Marshal(p.Authors)
	keywords, _ := json.Marshal(p.Keywords)

	return &model.Paper{
		Id:           p.Id,
		Title:        p.Title,
		Authors:      authors,
		Venue:        p.Venue,
		Year:         p.Year,
		Rating:       p.Rating,
		Decision:     p.Decision,
		Presentation: p.Presentation,
		Keywords:     keywords,
		Abstract:     p.Abstract,
	}
}

func (m *PaperMapper) ToEntities(papers []*model.Paper) []*entity.Paper {
	entities := make([]*entity.Paper, len(papers))
	for i, p := range papers {
		entities[i] = m.ToEntity(p)
	}
	return entities
}

type PaperChunkMapper struct{}

func NewPaperChunkMapper() *PaperChunkMapper {
	return &PaperChunkMapper{}
}

func (m *PaperChunkMapper) ToEntity(c *model.PaperChunk) *entity.PaperChunk {
	if c == nil {
		return nil
	}

	var emb []float32
	if c.Embedding != nil {
		emb = c.Embedding.Slice()
	}

	return &entity.PaperChunk{
		Id:         c.Id,
		PaperId:    c.PaperId,
		Kind:       entity.ChunkKind(c.Kind),
		ChunkIndex: c.ChunkIndex,
		Text:       c.Text,
		Embedding:  emb,
	}
}

func (m *PaperChunkMapper) ToModel(c *entity.PaperChunk) *model.PaperChunk {
	if c == nil {
		return nil
	}

	var emb *pgvector.Vector
	if len(c.Embedding) > 0 {
		v := pgvector.NewVector(c.Embedding)
		emb = &v
	}

	return &model.PaperChunk{
		Id:         c.Id,
		PaperId:    c.PaperId,
		Kind:       string(c.Kind),
		ChunkIndex: c.ChunkIndex,
		Text:       c.Text,
		Embedding:  emb,
	}
}

func (m *PaperChunkMapper) ToEntities(chunks []*model.PaperChunk) []*entity.PaperChunk {
	entities := make([]*entity.PaperChunk, len(chunks))
	for i, c := range chunks {
		entities[i] = m.ToEntity(c)
	}
	return entities
}
