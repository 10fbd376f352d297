package entity

import (
	"fmt"
	"strings"
)

// Bounds applied when a plan is normalized.
const (
	MinTopKPapers     = 3
	MaxTopKPapers     = 20
	MinTopKChunks     = 20
	MaxTopKChunks     = 120
	DefaultTopKPapers = 10
)

// SearchFilters narrows corpus retrieval. String fields match as
// case-insensitive substrings; list fields match any element.
type SearchFilters struct {
	TitleContains   string   `json:"title_contains,omitempty"`
	VenueContains   string   `json:"venue_contains,omitempty"`
	AuthorContains  string   `json:"author_contains,omitempty"`
	KeywordContains string   `json:"keyword_contains,omitempty"`
	MinRating       float64  `json:"min_rating,omitempty"`
	MinYear         int      `json:"min_year,omitempty"`
	MaxYear         int      `json:"max_year,omitempty"`
	YearIn          []int    `json:"year_in,omitempty"`
	DecisionIn      []string `json:"decision_in,omitempty"`
	PresentationIn  []string `json:"presentation_in,omitempty"`
}

func (f SearchFilters) IsZero() bool {
	return f.TitleContains == "" && f.VenueContains == "" &&
		f.AuthorContains == "" && f.KeywordContains == "" &&
		f.MinRating == 0 && f.MinYear == 0 && f.MaxYear == 0 &&
		len(f.YearIn) == 0 && len(f.DecisionIn) == 0 && len(f.PresentationIn) == 0
}

// Merge overlays f on top of base. Fields set on f win; list fields replace
// the base list entirely rather than appending.
func (f SearchFilters) Merge(base SearchFilters) SearchFilters {
	out := base
	if f.TitleContains != "" {
		out.TitleContains = f.TitleContains
	}
	if f.VenueContains != "" {
		out.VenueContains = f.VenueContains
	}
	if f.AuthorContains != "" {
		out.AuthorContains = f.AuthorContains
	}
	if f.KeywordContains != "" {
		out.KeywordContains = f.KeywordContains
	}
	if f.MinRating != 0 {
		out.MinRating = f.MinRating
	}
	if f.MinYear != 0 {
		out.MinYear = f.MinYear
	}
	if f.MaxYear != 0 {
		out.MaxYear = f.MaxYear
	}
	if len(f.YearIn) > 0 {
		out.YearIn = f.YearIn
	}
	if len(f.DecisionIn) > 0 {
		out.DecisionIn = f.DecisionIn
	}
	if len(f.PresentationIn) > 0 {
		out.PresentationIn = f.PresentationIn
	}
	return out
}

type PlanSection struct {
	Name        string         `json:"name"`
	SearchQuery string         `json:"search_query"`
	Filters     *SearchFilters `json:"filters,omitempty"`
	TopKPapers  int            `json:"top_k_papers,omitempty"`
	TopKChunks  int            `json:"top_k_chunks,omitempty"`
}

// EffectiveFilters resolves the section's filters against the plan-level
// defaults. Section values win on conflict.
func (s *PlanSection) EffectiveFilters(global *SearchFilters) SearchFilters {
	var base, own SearchFilters
	if global != nil {
		base = *global
	}
	if s.Filters != nil {
		own = *s.Filters
	}
	return own.Merge(base)
}

// Plan is the research outline produced by the planner. It is frozen once a
// research job starts.
type Plan struct {
	Title           string         `json:"title"`
	Sections        []PlanSection  `json:"sections"`
	GlobalFilters   *SearchFilters `json:"global_filters,omitempty"`
	EstimatedPapers int            `json:"estimated_papers,omitempty"`
}

func (p *Plan) Validate() error {
	if p == nil {
		return fmt.Errorf("plan is empty")
	}
	if len(p.Sections) == 0 {
		return fmt.Errorf("plan has no sections")
	}
	for i, s := range p.Sections {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("section %d has no name", i+1)
		}
		if strings.TrimSpace(s.SearchQuery) == "" {
			return fmt.Errorf("section %q has no search query", s.Name)
		}
	}
	return nil
}

// Normalize applies defaults and clamps section budgets into their bounds,
// then recomputes EstimatedPapers as the sum of section budgets.
func (p *Plan) Normalize() {
	defaultPapers := DefaultTopKPapers
	if p.EstimatedPapers > 0 {
		defaultPapers = clampInt(p.EstimatedPapers, 5, MaxTopKPapers)
	}
	total := 0
	for i := range p.Sections {
		s := &p.Sections[i]
		s.Name = strings.TrimSpace(s.Name)
		s.SearchQuery = strings.TrimSpace(s.SearchQuery)
		if s.TopKPapers == 0 {
			s.TopKPapers = defaultPapers
		}
		s.TopKPapers = clampInt(s.TopKPapers, MinTopKPapers, MaxTopKPapers)
		if s.TopKChunks == 0 {
			s.TopKChunks = s.TopKPapers * 4
			if s.TopKChunks < 40 {
				s.TopKChunks = 40
			}
		}
		s.TopKChunks = clampInt(s.TopKChunks, MinTopKChunks, MaxTopKChunks)
		total += s.TopKPapers
	}
	p.EstimatedPapers = total
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
