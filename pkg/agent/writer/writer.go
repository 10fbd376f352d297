package writer

import (
	"context"
	"fmt"
	"log"
	"strings"

	"ai-research-be/internal/entity"
	"ai-research-be/pkg/agent"
	"ai-research-be/pkg/citation"
	"ai-research-be/pkg/llm"
)

// ProgressFunc is invoked after each completed section.
type ProgressFunc func(current, total int)

// Draft is the written report in both encodings. Markdown carries canonical
// bracket markers and feeds verification; Rendered carries superscript
// markers plus the references appendix and is what clients display.
type Draft struct {
	Markdown string
	Rendered string
	UsedRefs []string
}

const (
	sectionAttempts   = 2
	transportAttempts = 2
)

// Writer produces the narrative section by section. Every citation in the
// output resolves to a registry entry scoped to the current or an earlier
// section; markers citing anything else are stripped.
type Writer struct {
	provider llm.LLMProvider
	logger   *log.Logger
}

func NewWriter(provider llm.LLMProvider, logger *log.Logger) *Writer {
	return &Writer{
		provider: provider,
		logger:   logger,
	}
}

// Compose writes the full report. A section with no evidence gets a fixed
// placeholder paragraph instead of a model call. Any section failing after
// bounded retries aborts the whole stage: a half-written report is never
// treated as final.
func (w *Writer) Compose(
	ctx context.Context,
	plan *entity.Plan,
	notes []entity.SectionNotes,
	registry *citation.Registry,
	report ProgressFunc,
) (*Draft, error) {

	total := len(notes)
	parts := make([]string, 0, total+1)
	parts = append(parts, "# "+plan.Title)

	// Refs the model may cite grow section by section, so later sections can
	// cross-reference earlier evidence.
	allowed := make(map[string]bool)

	for i, note := range notes {
		if ctx.Err() != nil {
			return nil, &agent.CancelledError{Stage: entity.JobStageWrite}
		}

		for _, refId := range note.RefIds {
			allowed[refId] = true
		}

		body, err := w.composeSection(ctx, plan, notes, i, registry)
		if err != nil {
			return nil, err
		}

		body = w.sanitizeMarkers(body, note.Section, allowed)
		parts = append(parts, "## "+note.Section+"\n\n"+body)

		w.logger.Printf("[WRITER] Section %d/%d %q written (%d chars)", i+1, total, note.Section, len(body))
		if report != nil {
			report(i+1, total)
		}
	}

	markdown := strings.Join(parts, "\n\n")
	usedRefs := citation.ExtractRefIds(markdown)

	return &Draft{
		Markdown: markdown,
		Rendered: renderReport(markdown, usedRefs, registry),
		UsedRefs: usedRefs,
	}, nil
}

func (w *Writer) composeSection(
	ctx context.Context,
	plan *entity.Plan,
	notes []entity.SectionNotes,
	idx int,
	registry *citation.Registry,
) (string, error) {

	note := notes[idx]
	if len(note.RefIds) == 0 {
		reason := "No corpus evidence was retrieved for this section."
		if note.Note != "" {
			reason = fmt.Sprintf("No corpus evidence was retrieved for this section (%s).", note.Note)
		}
		return reason, nil
	}

	prompt := w.buildSectionPrompt(plan, notes, idx, registry)

	var lastErr error
	for attempt := 1; attempt <= sectionAttempts; attempt++ {
		response, err := llm.GenerateWithRetry(ctx, w.provider, prompt, transportAttempts,
			llm.WithTemperature(0.4))
		if err != nil {
			if ctx.Err() != nil {
				return "", &agent.CancelledError{Stage: entity.JobStageWrite}
			}
			lastErr = err
			break
		}

		body := strings.TrimSpace(response)
		if body == "" {
			lastErr = fmt.Errorf("model returned an empty section")
			w.logger.Printf("[WARN] Section %q attempt %d/%d empty, retrying", note.Section, attempt, sectionAttempts)
			continue
		}
		return body, nil
	}

	return "", &agent.GenerationError{
		Stage:    entity.JobStageWrite,
		Attempts: sectionAttempts,
		Err:      fmt.Errorf("section %q: %w", note.Section, lastErr),
	}
}

// sanitizeMarkers normalizes variant marker styles to the canonical bracket
// form and strips ref ids outside the allowed scope.
func (w *Writer) sanitizeMarkers(body, section string, allowed map[string]bool) string {
	normalized := citation.NormalizeMarkers(body)

	dropped := 0
	filtered := citation.FilterMarkers(normalized, func(refId string) bool {
		if allowed[refId] {
			return true
		}
		dropped++
		return false
	})
	if dropped > 0 {
		w.logger.Printf("[WARN] Section %q cited %d unknown ref ids, stripped", section, dropped)
	}
	return filtered
}

func (w *Writer) buildSectionPrompt(
	plan *entity.Plan,
	notes []entity.SectionNotes,
	idx int,
	registry *citation.Registry,
) string {

	note := notes[idx]
	var prompt strings.Builder

	prompt.WriteString("<task>\n")
	prompt.WriteString("You are writing one section of a survey report grounded in retrieved paper excerpts.\n")
	prompt.WriteString("Write ONLY the body of the current section. Do not repeat its heading.\n")
	prompt.WriteString("</task>\n\n")

	prompt.WriteString("<report_outline>\n")
	prompt.WriteString(fmt.Sprintf("Report title: %s\n", plan.Title))
	for i, n := range notes {
		marker := " "
		if i == idx {
			marker = ">"
		}
		prompt.WriteString(fmt.Sprintf("%s %d. %s\n", marker, i+1, n.Section))
	}
	prompt.WriteString(fmt.Sprintf("You are writing section %d: %q\n", idx+1, note.Section))
	prompt.WriteString("</report_outline>\n\n")

	prompt.WriteString("<reference_material>\n")
	prompt.WriteString("CRITICAL: This is the ONLY data source. Do NOT use outside knowledge.\n\n")
	for _, refId := range note.RefIds {
		item, ok := registry.Resolve(refId)
		if !ok {
			continue
		}
		prompt.WriteString(fmt.Sprintf("--- [%s] %s (%s) ---\n", item.RefId, item.Title, item.Source))
		prompt.WriteString(item.Excerpt)
		prompt.WriteString("\n\n")
	}
	prompt.WriteString("</reference_material>\n\n")

	w.writeEarlierRefs(&prompt, notes, idx, registry)

	prompt.WriteString("<citation_rules>\n")
	prompt.WriteString("1. Cite evidence with bracket markers: [R3] for one source, [R3,R7] for several.\n")
	prompt.WriteString("2. Place the marker at the end of the sentence it supports, before the period.\n")
	prompt.WriteString("3. Use ONLY the ref ids listed above. NEVER invent a ref id.\n")
	prompt.WriteString("4. Every factual claim needs at least one marker; synthesis sentences that\n")
	prompt.WriteString("   merely connect cited claims do not.\n")
	prompt.WriteString("</citation_rules>\n\n")

	prompt.WriteString("<style_rules>\n")
	prompt.WriteString("1. Academic survey register, markdown prose. 2-4 paragraphs.\n")
	prompt.WriteString("2. Compare and contrast sources; name disagreements explicitly.\n")
	prompt.WriteString("3. No bullet lists unless the material is genuinely enumerable.\n")
	prompt.WriteString("4. No concluding pleasantries, no \"in this section\" scaffolding.\n")
	prompt.WriteString("</style_rules>\n\n")

	prompt.WriteString("Write the section body now:")

	return prompt.String()
}

func (w *Writer) writeEarlierRefs(prompt *strings.Builder, notes []entity.SectionNotes, idx int, registry *citation.Registry) {
	earlier := make([]string, 0)
	seen := make(map[string]bool)
	for _, n := range notes[:idx] {
		for _, refId := range n.RefIds {
			if seen[refId] {
				continue
			}
			seen[refId] = true
			if item, ok := registry.Resolve(refId); ok {
				earlier = append(earlier, fmt.Sprintf("[%s] %s", item.RefId, item.Title))
			}
		}
	}
	if len(earlier) == 0 {
		return
	}

	prompt.WriteString("<earlier_references>\n")
	prompt.WriteString("Sources already cited in earlier sections. You may cross-reference them\n")
	prompt.WriteString("by their ref id, but prefer this section's own material:\n")
	for _, line := range earlier {
		prompt.WriteString(line)
		prompt.WriteString("\n")
	}
	prompt.WriteString("</earlier_references>\n\n")
}

// renderReport converts bracket markers to their superscript display form and
// appends the references section, sorted by ref number.
func renderReport(markdown string, usedRefs []string, registry *citation.Registry) string {
	rendered := citation.RenderSuperscript(markdown)
	if len(usedRefs) == 0 {
		return rendered
	}

	sorted := make([]string, len(usedRefs))
	copy(sorted, usedRefs)
	citation.SortRefIds(sorted)

	var appendix strings.Builder
	appendix.WriteString(rendered)
	appendix.WriteString("\n\n## References\n\n")
	for _, refId := range sorted {
		item, ok := registry.Resolve(refId)
		if !ok {
			continue
		}
		appendix.WriteString(fmt.Sprintf("%s. %s (%s)\n", item.RefId, item.Title, item.Source))
	}
	return appendix.String()
}
