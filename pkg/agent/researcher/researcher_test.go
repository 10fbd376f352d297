package researcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"reflect"
	"testing"

	"ai-research-be/internal/entity"
	"ai-research-be/pkg/agent"
	"ai-research-be/pkg/citation"
)

// stubSearcher serves canned fragments per query and can fail on demand.
type stubSearcher struct {
	byQuery map[string][]entity.EvidenceFragment
	failOn  map[string]bool
	calls   int
}

func (s *stubSearcher) Search(_ context.Context, query string, _ entity.SearchFilters, _, _ int) ([]entity.EvidenceFragment, error) {
	s.calls++
	if s.failOn[query] {
		return nil, fmt.Errorf("index unavailable")
	}
	return s.byQuery[query], nil
}

func fragment(paperId, excerpt string) entity.EvidenceFragment {
	return entity.EvidenceFragment{
		PaperId: paperId,
		Title:   "Paper " + paperId,
		Source:  "ICLR 2024",
		Excerpt: excerpt,
	}
}

func twoSectionPlan() *entity.Plan {
	plan := &entity.Plan{
		Title: "Survey",
		Sections: []entity.PlanSection{
			{Name: "Background", SearchQuery: "q1"},
			{Name: "Recent Work", SearchQuery: "q2"},
		},
	}
	plan.Normalize()
	return plan
}

func testLogger() *log.Logger {
	return log.New(os.Stderr, "", 0)
}

func TestCollectRegistersAndDedupes(t *testing.T) {
	shared := fragment("p2", "shared excerpt")
	searcher := &stubSearcher{byQuery: map[string][]entity.EvidenceFragment{
		"q1": {fragment("p1", "alpha"), shared},
		"q2": {shared, fragment("p3", "gamma")},
	}}

	registry := citation.NewRegistry()
	r := NewResearcher(searcher, testLogger())

	result, err := r.Collect(context.Background(), twoSectionPlan(), registry, nil)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	if registry.Len() != 3 {
		t.Errorf("registry len = %d, want 3 (shared fragment must reuse its ref id)", registry.Len())
	}
	if len(result.Notes) != 2 {
		t.Fatalf("notes = %d, want 2", len(result.Notes))
	}
	if want := []string{"R1", "R2"}; !reflect.DeepEqual(result.Notes[0].RefIds, want) {
		t.Errorf("section 1 refs = %v, want %v", result.Notes[0].RefIds, want)
	}
	if want := []string{"R2", "R3"}; !reflect.DeepEqual(result.Notes[1].RefIds, want) {
		t.Errorf("section 2 refs = %v, want %v", result.Notes[1].RefIds, want)
	}
	if len(result.Degraded) != 0 {
		t.Errorf("degraded = %v, want none", result.Degraded)
	}
}

func TestCollectSoftFailContinues(t *testing.T) {
	searcher := &stubSearcher{
		byQuery: map[string][]entity.EvidenceFragment{
			"q2": {fragment("p1", "alpha")},
		},
		failOn: map[string]bool{"q1": true},
	}

	registry := citation.NewRegistry()
	r := NewResearcher(searcher, testLogger())

	var progress [][2]int
	result, err := r.Collect(context.Background(), twoSectionPlan(), registry, func(current, total int) {
		progress = append(progress, [2]int{current, total})
	})
	if err != nil {
		t.Fatalf("Collect() error = %v, one failed section must not abort the run", err)
	}

	if len(result.Notes) != 2 {
		t.Fatalf("notes = %d, want 2", len(result.Notes))
	}
	if len(result.Notes[0].RefIds) != 0 {
		t.Errorf("failed section refs = %v, want none", result.Notes[0].RefIds)
	}
	if result.Notes[0].Note == "" {
		t.Error("failed section has no note")
	}
	if want := []string{"Background"}; !reflect.DeepEqual(result.Degraded, want) {
		t.Errorf("degraded = %v, want %v", result.Degraded, want)
	}
	if want := []string{"R1"}; !reflect.DeepEqual(result.Notes[1].RefIds, want) {
		t.Errorf("surviving section refs = %v, want %v", result.Notes[1].RefIds, want)
	}
	if want := [][2]int{{1, 2}, {2, 2}}; !reflect.DeepEqual(progress, want) {
		t.Errorf("progress = %v, want %v", progress, want)
	}
}

func TestCollectCancelBetweenSections(t *testing.T) {
	searcher := &stubSearcher{byQuery: map[string][]entity.EvidenceFragment{
		"q1": {fragment("p1", "alpha")},
		"q2": {fragment("p2", "beta")},
	}}

	registry := citation.NewRegistry()
	r := NewResearcher(searcher, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	result, err := r.Collect(ctx, twoSectionPlan(), registry, func(current, total int) {
		if current == 1 {
			cancel()
		}
	})

	var ce *agent.CancelledError
	if !errors.As(err, &ce) || ce.Stage != entity.JobStageResearch {
		t.Fatalf("err = %v, want CancelledError in research stage", err)
	}
	if len(result.Notes) != 1 {
		t.Fatalf("notes = %d, want 1 (only the completed section)", len(result.Notes))
	}
	if result.Notes[0].Section != "Background" {
		t.Errorf("kept section = %q, want %q", result.Notes[0].Section, "Background")
	}
	if searcher.calls != 1 {
		t.Errorf("search calls = %d, want 1 (no work after cancellation)", searcher.calls)
	}
}
