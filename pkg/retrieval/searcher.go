package retrieval

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/repository/contract"
	"ai-research-be/internal/repository/specification"
	"ai-research-be/internal/repository/unitofwork"
	"ai-research-be/pkg/embedding"
	"ai-research-be/pkg/utils"
)

// Excerpt caps keep per-paper evidence inside the writer's context window.
const (
	metaExcerptCap        = 900
	reviewExcerptCap      = 1200
	contentExcerptCap     = 1400
	contentChunksPerPaper = 2
)

// Searcher retrieves evidence for one section query. Implementations may
// return fewer fragments than requested.
type Searcher interface {
	Search(ctx context.Context, query string, filters entity.SearchFilters, topKPapers, topKChunks int) ([]entity.EvidenceFragment, error)
}

// VectorSearcher searches the corpus by pgvector cosine similarity, grouping
// chunk hits by paper and composing one evidence fragment per paper. Falls
// back to keyword matching when no embedding provider is configured.
type VectorSearcher struct {
	uowFactory unitofwork.RepositoryFactory
	provider   embedding.EmbeddingProvider
	cache      *ResultCache
	logger     *log.Logger
}

var _ Searcher = &VectorSearcher{}

func NewVectorSearcher(
	uowFactory unitofwork.RepositoryFactory,
	provider embedding.EmbeddingProvider,
	cache *ResultCache,
	logger *log.Logger,
) *VectorSearcher {
	if logger == nil {
		logger = log.Default()
	}
	return &VectorSearcher{
		uowFactory: uowFactory,
		provider:   provider,
		cache:      cache,
		logger:     logger,
	}
}

func (s *VectorSearcher) Search(ctx context.Context, query string, filters entity.SearchFilters, topKPapers, topKChunks int) ([]entity.EvidenceFragment, error) {
	if fragments, ok := s.cache.Get(ctx, query, filters, topKPapers, topKChunks); ok {
		s.logger.Printf("[RETRIEVAL] Cache hit for %q", utils.TruncateRunes(query, 60))
		return fragments, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	specs := specification.FromSearchFilters(filters)

	hits, err := s.searchChunks(ctx, uow, query, topKChunks, specs)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("[RETRIEVAL] Raw hits: %d chunks for %q", len(hits), utils.TruncateRunes(query, 60))
	if len(hits) == 0 {
		return nil, nil
	}

	ranked := rankPapers(hits, topKPapers)

	fragments := make([]entity.EvidenceFragment, 0, len(ranked))
	for _, pr := range ranked {
		frag, err := s.composeFragment(ctx, uow, pr)
		if err != nil {
			s.logger.Printf("[WARN] Skipping paper %s: %v", pr.paperId, err)
			continue
		}
		fragments = append(fragments, frag)
	}

	s.cache.Put(ctx, query, filters, topKPapers, topKChunks, fragments)
	return fragments, nil
}

func (s *VectorSearcher) searchChunks(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	query string,
	topKChunks int,
	specs []specification.Specification,
) ([]*contract.ScoredPaperChunk, error) {
	if s.provider == nil {
		s.logger.Printf("[RETRIEVAL] No embedding provider, using lexical search")
		return uow.PaperChunkRepository().SearchLexical(ctx, query, topKChunks, specs)
	}

	embeddingRes, err := s.provider.Generate(query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	return uow.PaperChunkRepository().SearchSimilarWithScore(ctx, embeddingRes.Embedding.Values, topKChunks, specs)
}

type paperRank struct {
	paperId string
	best    float64
	content []*contract.ScoredPaperChunk
}

// rankPapers groups chunk hits by paper, ranks papers by their best hit and
// keeps the top k. Content hits stay ordered best-first per paper.
func rankPapers(hits []*contract.ScoredPaperChunk, topKPapers int) []*paperRank {
	byPaper := make(map[string]*paperRank)
	var order []*paperRank

	for _, h := range hits {
		pr, ok := byPaper[h.Chunk.PaperId]
		if !ok {
			pr = &paperRank{paperId: h.Chunk.PaperId, best: h.Similarity}
			byPaper[h.Chunk.PaperId] = pr
			order = append(order, pr)
		}
		if h.Similarity > pr.best {
			pr.best = h.Similarity
		}
		if h.Chunk.Kind == entity.ChunkKindContent {
			pr.content = append(pr.content, h)
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].best > order[j].best
	})
	if topKPapers > 0 && len(order) > topKPapers {
		order = order[:topKPapers]
	}
	return order
}

// composeFragment builds the single excerpt for a paper: metadata header,
// decision/rebuttal/review context, then the best-matching content chunks.
func (s *VectorSearcher) composeFragment(ctx context.Context, uow unitofwork.UnitOfWork, pr *paperRank) (entity.EvidenceFragment, error) {
	paper, err := uow.PaperRepository().FindById(ctx, pr.paperId)
	if err != nil {
		return entity.EvidenceFragment{}, err
	}
	if paper == nil {
		return entity.EvidenceFragment{}, fmt.Errorf("paper %s not found", pr.paperId)
	}

	chunks, err := uow.PaperChunkRepository().FindByPaperId(ctx, pr.paperId)
	if err != nil {
		return entity.EvidenceFragment{}, err
	}

	parts := []string{utils.TruncateRunes(metaHeader(paper), metaExcerptCap)}

	var decisionUsed, rebuttalUsed bool
	reviewsUsed := 0
	for _, c := range chunks {
		switch c.Kind {
		case entity.ChunkKindDecision:
			if !decisionUsed {
				parts = append(parts, "Decision notes: "+utils.TruncateRunes(c.Text, reviewExcerptCap))
				decisionUsed = true
			}
		case entity.ChunkKindRebuttal:
			if !rebuttalUsed {
				parts = append(parts, "Rebuttal: "+utils.TruncateRunes(c.Text, reviewExcerptCap))
				rebuttalUsed = true
			}
		case entity.ChunkKindReview:
			if reviewsUsed < 2 {
				parts = append(parts, "Review: "+utils.TruncateRunes(c.Text, reviewExcerptCap))
				reviewsUsed++
			}
		}
	}

	for _, text := range contentTexts(pr, chunks) {
		parts = append(parts, utils.TruncateRunes(text, contentExcerptCap))
	}

	return entity.EvidenceFragment{
		PaperId: paper.Id,
		Title:   paper.Title,
		Source:  paperSource(paper),
		Excerpt: strings.Join(parts, "\n\n"),
	}, nil
}

// contentTexts prefers the section's own content hits and falls back to the
// paper's leading content chunks.
func contentTexts(pr *paperRank, chunks []*entity.PaperChunk) []string {
	var texts []string
	for _, h := range pr.content {
		if len(texts) >= contentChunksPerPaper {
			break
		}
		texts = append(texts, h.Chunk.Text)
	}
	if len(texts) > 0 {
		return texts
	}
	for _, c := range chunks {
		if c.Kind != entity.ChunkKindContent {
			continue
		}
		texts = append(texts, c.Text)
		if len(texts) >= contentChunksPerPaper {
			break
		}
	}
	return texts
}

func metaHeader(p *entity.Paper) string {
	var b strings.Builder
	b.WriteString("Title: " + p.Title)
	if len(p.Authors) > 0 {
		b.WriteString("\nAuthors: " + strings.Join(p.Authors, ", "))
	}
	if src := paperSource(p); src != "corpus" {
		b.WriteString("\nVenue: " + src)
	}
	if p.Rating > 0 {
		b.WriteString(fmt.Sprintf("\nRating: %.1f", p.Rating))
	}
	if p.Decision != "" {
		b.WriteString("\nDecision: " + p.Decision)
	}
	if p.Presentation != "" {
		b.WriteString("\nPresentation: " + p.Presentation)
	}
	if p.Abstract != "" {
		b.WriteString("\nAbstract: " + p.Abstract)
	}
	return b.String()
}

func paperSource(p *entity.Paper) string {
	switch {
	case p.Venue != "" && p.Year > 0:
		return fmt.Sprintf("%s %d", p.Venue, p.Year)
	case p.Venue != "":
		return p.Venue
	case p.Year > 0:
		return fmt.Sprintf("%d", p.Year)
	default:
		return "corpus"
	}
}
