package researcher

import (
	"context"
	"log"

	"ai-research-be/internal/entity"
	"ai-research-be/pkg/agent"
	"ai-research-be/pkg/citation"
	"ai-research-be/pkg/retrieval"
)

// ProgressFunc is invoked after each completed section.
type ProgressFunc func(current, total int)

// Result is the evidence gathered for a plan. Notes keep the plan's section
// order; Degraded lists sections whose retrieval soft-failed.
type Result struct {
	Notes    []entity.SectionNotes
	Degraded []string
}

// Researcher executes retrieval per plan section and fills the citation
// registry. One section failing does not abort the run.
type Researcher struct {
	searcher retrieval.Searcher
	logger   *log.Logger
}

func NewResearcher(searcher retrieval.Searcher, logger *log.Logger) *Researcher {
	return &Researcher{
		searcher: searcher,
		logger:   logger,
	}
}

// Collect walks the plan's sections in order. Every retrieved fragment is
// registered in the registry (deduplicated across sections, so a fragment
// already seen reuses its ref id). On cancellation the partial Result is
// returned alongside the error.
func (r *Researcher) Collect(
	ctx context.Context,
	plan *entity.Plan,
	registry *citation.Registry,
	report ProgressFunc,
) (*Result, error) {

	result := &Result{
		Notes: make([]entity.SectionNotes, 0, len(plan.Sections)),
	}
	total := len(plan.Sections)

	for i := range plan.Sections {
		section := &plan.Sections[i]

		if ctx.Err() != nil {
			return result, &agent.CancelledError{Stage: entity.JobStageResearch}
		}

		filters := section.EffectiveFilters(plan.GlobalFilters)
		fragments, err := r.searcher.Search(ctx, section.SearchQuery, filters, section.TopKPapers, section.TopKChunks)
		if err != nil {
			if ctx.Err() != nil {
				return result, &agent.CancelledError{Stage: entity.JobStageResearch}
			}
			retErr := &agent.RetrievalError{Section: section.Name, Err: err}
			r.logger.Printf("[WARN] %v", retErr)
			result.Notes = append(result.Notes, entity.SectionNotes{
				Section: section.Name,
				RefIds:  []string{},
				Note:    "retrieval failed; section has no evidence",
			})
			result.Degraded = append(result.Degraded, section.Name)
			if report != nil {
				report(i+1, total)
			}
			continue
		}

		notes := entity.SectionNotes{
			Section: section.Name,
			RefIds:  make([]string, 0, len(fragments)),
		}
		seen := make(map[string]bool, len(fragments))
		for _, frag := range fragments {
			frag.Section = section.Name
			refId := registry.Register(frag)
			if !seen[refId] {
				seen[refId] = true
				notes.RefIds = append(notes.RefIds, refId)
			}
		}
		if len(notes.RefIds) == 0 {
			notes.Note = "no matching papers found"
		}

		r.logger.Printf("[RESEARCHER] Section %d/%d %q: %d refs (%d in registry)",
			i+1, total, section.Name, len(notes.RefIds), registry.Len())

		result.Notes = append(result.Notes, notes)
		if report != nil {
			report(i+1, total)
		}
	}

	return result, nil
}
