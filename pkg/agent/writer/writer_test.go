package writer

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"testing"

	"ai-research-be/internal/entity"
	"ai-research-be/pkg/agent"
	"ai-research-be/pkg/citation"
	"ai-research-be/pkg/llm"
)

// scriptedProvider replays canned responses in call order.
type scriptedProvider struct {
	responses []string
	err       error
	calls     int
}

func (p *scriptedProvider) Chat(ctx context.Context, _ []llm.Message, options ...llm.Option) (string, error) {
	return p.Generate(ctx, "", options...)
}

func (p *scriptedProvider) Generate(_ context.Context, _ string, _ ...llm.Option) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	i := p.calls
	p.calls++
	if i >= len(p.responses) {
		i = len(p.responses) - 1
	}
	return p.responses[i], nil
}

func testLogger() *log.Logger {
	return log.New(os.Stderr, "", 0)
}

func seededRegistry() *citation.Registry {
	registry := citation.NewRegistry()
	registry.Register(entity.EvidenceFragment{PaperId: "p1", Title: "First Paper", Source: "ICLR 2023", Excerpt: "alpha"})
	registry.Register(entity.EvidenceFragment{PaperId: "p2", Title: "Second Paper", Source: "NeurIPS 2024", Excerpt: "beta"})
	return registry
}

func surveyPlan() *entity.Plan {
	return &entity.Plan{
		Title: "DPO Trends",
		Sections: []entity.PlanSection{
			{Name: "Background", SearchQuery: "q1"},
			{Name: "Recent Work", SearchQuery: "q2"},
		},
	}
}

func TestComposeKeepsOnlyCatalogRefs(t *testing.T) {
	registry := seededRegistry()
	notes := []entity.SectionNotes{
		{Section: "Background", RefIds: []string{"R1"}},
		{Section: "Recent Work", RefIds: []string{"R2"}},
	}
	provider := &scriptedProvider{responses: []string{
		"The field began with preference tuning [R1]. A bogus source sneaks in [R9].",
		"Later work refined the loss [R2] building on the original formulation [R1].",
	}}

	w := NewWriter(provider, testLogger())
	draft, err := w.Compose(context.Background(), surveyPlan(), notes, registry, nil)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	if strings.Contains(draft.Markdown, "R9") {
		t.Error("markdown still cites R9, unknown refs must be stripped")
	}
	for _, refId := range draft.UsedRefs {
		if !registry.Has(refId) {
			t.Errorf("markdown cites %s which is not in the catalog", refId)
		}
	}
	// Cross-referencing an earlier section's evidence is allowed.
	if !strings.Contains(draft.Markdown, "[R1]") {
		t.Error("markdown lost the valid [R1] citation")
	}
	if !strings.HasPrefix(draft.Markdown, "# DPO Trends") {
		t.Errorf("markdown does not start with the report title: %q", firstLine(draft.Markdown))
	}
	if !strings.Contains(draft.Markdown, "## Background") || !strings.Contains(draft.Markdown, "## Recent Work") {
		t.Error("markdown is missing section headings")
	}
}

func TestComposeRenderedReport(t *testing.T) {
	registry := seededRegistry()
	notes := []entity.SectionNotes{
		{Section: "Background", RefIds: []string{"R1", "R2"}},
	}
	provider := &scriptedProvider{responses: []string{
		"Both papers agree on the core claim [R1,R2].",
	}}

	w := NewWriter(provider, testLogger())
	draft, err := w.Compose(context.Background(), &entity.Plan{Title: "T", Sections: surveyPlan().Sections[:1]}, notes, registry, nil)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	if !strings.Contains(draft.Rendered, "⁽ᴿ¹˒ᴿ²⁾") {
		t.Errorf("rendered report has no superscript marker: %q", draft.Rendered)
	}
	if !strings.Contains(draft.Rendered, "## References") {
		t.Error("rendered report has no references appendix")
	}
	if !strings.Contains(draft.Rendered, "R1. First Paper (ICLR 2023)") {
		t.Errorf("references appendix is missing R1: %q", draft.Rendered)
	}
	// The verification input keeps the bracket form.
	if !strings.Contains(draft.Markdown, "[R1,R2]") {
		t.Errorf("markdown lost the bracket marker: %q", draft.Markdown)
	}
	if got := citation.DecodeMarker("⁽ᴿ¹˒ᴿ²⁾"); len(got) != 2 || got[0] != "R1" || got[1] != "R2" {
		t.Errorf("superscript marker is not losslessly decodable: %v", got)
	}
}

func TestComposeEvidencelessSectionSkipsModel(t *testing.T) {
	registry := seededRegistry()
	notes := []entity.SectionNotes{
		{Section: "Background", RefIds: []string{}, Note: "retrieval failed; section has no evidence"},
	}
	provider := &scriptedProvider{responses: []string{"should never be used"}}

	w := NewWriter(provider, testLogger())
	draft, err := w.Compose(context.Background(), &entity.Plan{Title: "T", Sections: surveyPlan().Sections[:1]}, notes, registry, nil)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	if provider.calls != 0 {
		t.Errorf("provider calls = %d, want 0 for an evidence-less section", provider.calls)
	}
	if !strings.Contains(draft.Markdown, "No corpus evidence was retrieved") {
		t.Errorf("placeholder missing: %q", draft.Markdown)
	}
}

func TestComposeGenerationErrorAbortsStage(t *testing.T) {
	registry := seededRegistry()
	notes := []entity.SectionNotes{
		{Section: "Background", RefIds: []string{"R1"}},
	}
	provider := &scriptedProvider{err: &llm.APIError{StatusCode: 400, Body: "bad request"}}

	w := NewWriter(provider, testLogger())
	draft, err := w.Compose(context.Background(), &entity.Plan{Title: "T", Sections: surveyPlan().Sections[:1]}, notes, registry, nil)

	if draft != nil {
		t.Errorf("draft = %+v, want nil (no partial narrative)", draft)
	}
	var ge *agent.GenerationError
	if !errors.As(err, &ge) || ge.Stage != entity.JobStageWrite {
		t.Fatalf("err = %v, want GenerationError in write stage", err)
	}
}

func TestComposeProgressPerSection(t *testing.T) {
	registry := seededRegistry()
	notes := []entity.SectionNotes{
		{Section: "Background", RefIds: []string{"R1"}},
		{Section: "Recent Work", RefIds: []string{"R2"}},
	}
	provider := &scriptedProvider{responses: []string{"Text one [R1].", "Text two [R2]."}}

	w := NewWriter(provider, testLogger())
	var progress [][2]int
	if _, err := w.Compose(context.Background(), surveyPlan(), notes, registry, func(current, total int) {
		progress = append(progress, [2]int{current, total})
	}); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	if len(progress) != 2 || progress[0] != [2]int{1, 2} || progress[1] != [2]int{2, 2} {
		t.Errorf("progress = %v, want [[1 2] [2 2]]", progress)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
