package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"ai-research-be/internal/entity"
	"ai-research-be/pkg/agent"
	"ai-research-be/pkg/llm"
)

const (
	// structureAttempts re-asks the model when it returns something that is
	// not a valid plan. Transport-level retries live in llm.GenerateWithRetry.
	structureAttempts = 3
	transportAttempts = 2
)

// Planner decomposes a free-text research query into an ordered section plan
// with retrieval filters. Stateless and idempotent per call.
type Planner struct {
	provider llm.LLMProvider
	logger   *log.Logger
}

func NewPlanner(provider llm.LLMProvider, logger *log.Logger) *Planner {
	return &Planner{
		provider: provider,
		logger:   logger,
	}
}

// BuildPlan produces a validated, normalized Plan for the query. Corpus stats
// are optional hints that help the model pick realistic filters.
func (p *Planner) BuildPlan(ctx context.Context, query string, stats *entity.CorpusStats) (*entity.Plan, error) {
	prompt := p.buildPrompt(query, stats)

	var lastErr error
	for attempt := 1; attempt <= structureAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, &agent.CancelledError{Stage: entity.JobStagePlan}
		}

		response, err := llm.GenerateWithRetry(ctx, p.provider, prompt, transportAttempts,
			llm.WithTemperature(0.0), llm.WithJSONMode())
		if err != nil {
			if ctx.Err() != nil {
				return nil, &agent.CancelledError{Stage: entity.JobStagePlan}
			}
			// GenerateWithRetry already exhausted transport retries.
			lastErr = err
			break
		}

		plan, err := parsePlan(response)
		if err != nil {
			lastErr = err
			p.logger.Printf("[WARN] Plan attempt %d/%d rejected: %v", attempt, structureAttempts, err)
			continue
		}

		plan.Normalize()
		p.logger.Printf("[PLANNER] Plan ready: %q, %d sections, ~%d papers",
			plan.Title, len(plan.Sections), plan.EstimatedPapers)
		return plan, nil
	}

	return nil, &agent.GenerationError{
		Stage:    entity.JobStagePlan,
		Attempts: structureAttempts,
		Err:      lastErr,
	}
}

func (p *Planner) buildPrompt(query string, stats *entity.CorpusStats) string {
	var prompt strings.Builder

	prompt.WriteString("<system_role>\n")
	prompt.WriteString("You are a research planning agent for a local corpus of academic papers.\n")
	prompt.WriteString("Your ONLY job is to decompose the user's question into an ordered list of\n")
	prompt.WriteString("research sections, each with a focused retrieval query and optional filters.\n")
	prompt.WriteString("You do NOT answer the question and you do NOT write prose.\n")
	prompt.WriteString("</system_role>\n\n")

	p.writeCorpusProfile(&prompt, stats)

	prompt.WriteString("<planning_rules>\n")
	prompt.WriteString("1. Produce 1-5 sections. Fewer, sharper sections beat many vague ones.\n")
	prompt.WriteString("2. A section's search_query is a dense keyword phrase, not a full sentence.\n")
	prompt.WriteString("3. Order sections from background to specifics; the report follows this order.\n")
	prompt.WriteString("4. Only add a filter when the user's question implies it (a year, a venue,\n")
	prompt.WriteString("   an acceptance decision). Leave filters out otherwise.\n")
	prompt.WriteString("5. top_k_papers is the paper budget per section, between 3 and 20.\n")
	prompt.WriteString("</planning_rules>\n\n")

	prompt.WriteString("<filter_reference>\n")
	prompt.WriteString("Available filter keys (all optional, per section or in global_filters):\n")
	prompt.WriteString("- title_contains, venue_contains, author_contains, keyword_contains: case-insensitive substrings\n")
	prompt.WriteString("- min_rating: minimum average review rating (float)\n")
	prompt.WriteString("- min_year, max_year: inclusive year range; year_in: explicit list of years\n")
	prompt.WriteString("- decision_in: acceptance decisions (e.g. [\"Accept\", \"Reject\"])\n")
	prompt.WriteString("- presentation_in: presentation formats (e.g. [\"oral\", \"poster\"])\n")
	prompt.WriteString("</filter_reference>\n\n")

	prompt.WriteString("<user_query>\n")
	prompt.WriteString(query)
	prompt.WriteString("\n</user_query>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON in this exact structure:\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"title\": \"short report title\",\n")
	prompt.WriteString("  \"sections\": [\n")
	prompt.WriteString("    {\n")
	prompt.WriteString("      \"name\": \"section heading\",\n")
	prompt.WriteString("      \"search_query\": \"retrieval keywords\",\n")
	prompt.WriteString("      \"filters\": {\"min_year\": 2022},\n")
	prompt.WriteString("      \"top_k_papers\": 8\n")
	prompt.WriteString("    }\n")
	prompt.WriteString("  ],\n")
	prompt.WriteString("  \"global_filters\": {},\n")
	prompt.WriteString("  \"estimated_papers\": 8\n")
	prompt.WriteString("}\n")
	prompt.WriteString("IMPORTANT: Output ONLY the JSON. No preamble, no markdown fences.\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

func (p *Planner) writeCorpusProfile(prompt *strings.Builder, stats *entity.CorpusStats) {
	if stats == nil || stats.Papers == 0 {
		return
	}

	prompt.WriteString("<corpus_profile>\n")
	prompt.WriteString(fmt.Sprintf("The corpus holds %d papers (%d indexed chunks).\n", stats.Papers, stats.Chunks))
	if stats.MinYear > 0 && stats.MaxYear > 0 {
		prompt.WriteString(fmt.Sprintf("Publication years span %d-%d.\n", stats.MinYear, stats.MaxYear))
	}
	if stats.MaxRating > 0 {
		prompt.WriteString(fmt.Sprintf("Review ratings range from %.1f to %.1f.\n", stats.MinRating, stats.MaxRating))
	}
	if len(stats.Decisions) > 0 {
		prompt.WriteString(fmt.Sprintf("Known decisions: %s.\n", strings.Join(stats.Decisions, ", ")))
	}
	if len(stats.Venues) > 0 {
		prompt.WriteString(fmt.Sprintf("Known venues: %s.\n", strings.Join(stats.Venues, ", ")))
	}
	prompt.WriteString("Filters that fall outside these bounds will match nothing.\n")
	prompt.WriteString("</corpus_profile>\n\n")
}

// parsePlan extracts and structurally validates the plan JSON.
func parsePlan(response string) (*entity.Plan, error) {
	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var plan entity.Plan
	if err := json.Unmarshal([]byte(jsonContent), &plan); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

// extractJSON isolates the outermost JSON object, tolerating markdown fences
// and prose around it.
func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
