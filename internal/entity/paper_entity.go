package entity

type ChunkKind string

const (
	ChunkKindMeta     ChunkKind = "meta"
	ChunkKindContent  ChunkKind = "content"
	ChunkKindDecision ChunkKind = "decision"
	ChunkKindReview   ChunkKind = "review"
	ChunkKindRebuttal ChunkKind = "rebuttal"
)

type Paper struct {
	Id           string   `json:"id"`
	Title        string   `json:"title"`
	Authors      []string `json:"authors"`
	Venue        string   `json:"venue"`
	Year         int      `json:"year"`
	Rating       float64  `json:"rating"`
	Decision     string   `json:"decision"`
	Presentation string   `json:"presentation"`
	Keywords     []string `json:"keywords"`
	Abstract     string   `json:"abstract"`
}

type PaperChunk struct {
	Id         string    `json:"id"`
	PaperId    string    `json:"paper_id"`
	Kind       ChunkKind `json:"kind"`
	ChunkIndex int       `json:"chunk_index"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"-"` // set on ingest only, never serialized
}

// CorpusStats summarizes the corpus for planner hints and the dashboard.
type CorpusStats struct {
	Papers    int64    `json:"papers"`
	Chunks    int64    `json:"chunks"`
	MinYear   int      `json:"min_year,omitempty"`
	MaxYear   int      `json:"max_year,omitempty"`
	MinRating float64  `json:"min_rating,omitempty"`
	MaxRating float64  `json:"max_rating,omitempty"`
	Decisions []string `json:"decisions,omitempty"`
	Venues    []string `json:"venues,omitempty"`
}
