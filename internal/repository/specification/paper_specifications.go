package specification

import (
	"gorm.io/gorm"

	"ai-research-be/internal/entity"
)

// Paper filter specifications. Column references carry the "papers." prefix
// so the same specs work on direct paper queries and on chunk queries that
// join papers.

type PaperTitleContains struct {
	Value string
}

func (s PaperTitleContains) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("papers.title ILIKE ?", "%"+s.Value+"%")
}

type PaperVenueContains struct {
	Value string
}

func (s PaperVenueContains) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("papers.venue ILIKE ?", "%"+s.Value+"%")
}

// PaperAuthorContains matches against the JSON-encoded author list.
type PaperAuthorContains struct {
	Value string
}

func (s PaperAuthorContains) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("papers.authors::text ILIKE ?", "%"+s.Value+"%")
}

type PaperKeywordContains struct {
	Value string
}

func (s PaperKeywordContains) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("papers.keywords::text ILIKE ?", "%"+s.Value+"%")
}

type PaperMinRating struct {
	Value float64
}

func (s PaperMinRating) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("papers.rating >= ?", s.Value)
}

type PaperMinYear struct {
	Value int
}

func (s PaperMinYear) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("papers.year >= ?", s.Value)
}

type PaperMaxYear struct {
	Value int
}

func (s PaperMaxYear) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("papers.year <= ?", s.Value)
}

type PaperYearIn struct {
	Years []int
}

func (s PaperYearIn) Apply(db *gorm.DB) *gorm.DB {
	if len(s.Years) == 0 {
		return db
	}
	return db.Where("papers.year IN ?", s.Years)
}

// PaperDecisionIn matches any of the given decisions as a substring, so
// "Accept" also catches "Accept (oral)".
type PaperDecisionIn struct {
	Decisions []string
}

func (s PaperDecisionIn) Apply(db *gorm.DB) *gorm.DB {
	if len(s.Decisions) == 0 {
		return db
	}
	group := db.Session(&gorm.Session{NewDB: true}).
		Where("papers.decision ILIKE ?", "%"+s.Decisions[0]+"%")
	for _, d := range s.Decisions[1:] {
		group = group.Or("papers.decision ILIKE ?", "%"+d+"%")
	}
	return db.Where(group)
}

type PaperPresentationIn struct {
	Presentations []string
}

func (s PaperPresentationIn) Apply(db *gorm.DB) *gorm.DB {
	if len(s.Presentations) == 0 {
		return db
	}
	group := db.Session(&gorm.Session{NewDB: true}).
		Where("papers.presentation ILIKE ?", "%"+s.Presentations[0]+"%")
	for _, p := range s.Presentations[1:] {
		group = group.Or("papers.presentation ILIKE ?", "%"+p+"%")
	}
	return db.Where(group)
}

// FromSearchFilters compiles a filter set into the matching specifications.
// Zero-valued fields contribute nothing.
func FromSearchFilters(f entity.SearchFilters) []Specification {
	var specs []Specification
	if f.TitleContains != "" {
		specs = append(specs, PaperTitleContains{Value: f.TitleContains})
	}
	if f.VenueContains != "" {
		specs = append(specs, PaperVenueContains{Value: f.VenueContains})
	}
	if f.AuthorContains != "" {
		specs = append(specs, PaperAuthorContains{Value: f.AuthorContains})
	}
	if f.KeywordContains != "" {
		specs = append(specs, PaperKeywordContains{Value: f.KeywordContains})
	}
	if f.MinRating > 0 {
		specs = append(specs, PaperMinRating{Value: f.MinRating})
	}
	if f.MinYear > 0 {
		specs = append(specs, PaperMinYear{Value: f.MinYear})
	}
	if f.MaxYear > 0 {
		specs = append(specs, PaperMaxYear{Value: f.MaxYear})
	}
	if len(f.YearIn) > 0 {
		specs = append(specs, PaperYearIn{Years: f.YearIn})
	}
	if len(f.DecisionIn) > 0 {
		specs = append(specs, PaperDecisionIn{Decisions: f.DecisionIn})
	}
	if len(f.PresentationIn) > 0 {
		specs = append(specs, PaperPresentationIn{Presentations: f.PresentationIn})
	}
	return specs
}
