package executor

import (
	"context"
	"fmt"
	"log"

	"ai-research-be/internal/entity"
	"ai-research-be/pkg/agent/researcher"
	"ai-research-be/pkg/agent/verifier"
	"ai-research-be/pkg/agent/writer"
	"ai-research-be/pkg/citation"
	"ai-research-be/pkg/llm"
	"ai-research-be/pkg/retrieval"
)

// Reporter receives stage transitions and per-unit progress while a pipeline
// runs. The job owner implements it; the pipeline never touches job state
// directly.
type Reporter interface {
	StageStarted(stage entity.JobStage, message string)
	UnitDone(stage entity.JobStage, current, total int)
}

// ExecutionResult carries whatever the pipeline completed. On error or
// cancellation the fields filled so far stay set, so partial results remain
// visible to the client.
type ExecutionResult struct {
	Research *entity.ResearchResult
	Degraded []string
}

// ResearchPipeline orchestrates the three-phase research run
// Phase 1: Evidence Retrieval → Phase 2: Report Writing → Phase 3: Claim Verification
type ResearchPipeline struct {
	researcher *researcher.Researcher
	writer     *writer.Writer
	verifier   *verifier.Verifier
	logger     *log.Logger
}

// NewResearchPipeline wires the three stages around one provider, one
// retrieval backend and one claim classifier.
func NewResearchPipeline(
	provider llm.LLMProvider,
	searcher retrieval.Searcher,
	classifier verifier.Classifier,
	maxClaims int,
	logger *log.Logger,
) *ResearchPipeline {
	return &ResearchPipeline{
		researcher: researcher.NewResearcher(searcher, logger),
		writer:     writer.NewWriter(provider, logger),
		verifier:   verifier.NewVerifier(classifier, maxClaims, logger),
		logger:     logger,
	}
}

// Execute runs the complete pipeline for an approved plan. The registry is
// created here and owned by this run alone, so ref ids never collide across
// jobs.
func (p *ResearchPipeline) Execute(ctx context.Context, plan *entity.Plan, rep Reporter) (*ExecutionResult, error) {
	registry := citation.NewRegistry()
	result := &ExecutionResult{Research: &entity.ResearchResult{}}

	p.logger.Printf("[PIPELINE] Starting research run %q (%d sections)", plan.Title, len(plan.Sections))

	// ═══════════════════════════════════════════════════════════════
	// PHASE 1: EVIDENCE RETRIEVAL
	// ═══════════════════════════════════════════════════════════════
	rep.StageStarted(entity.JobStageResearch, fmt.Sprintf("Retrieving evidence for %d sections", len(plan.Sections)))
	p.logger.Printf("[PHASE 1] Collecting evidence...")

	research, err := p.researcher.Collect(ctx, plan, registry, func(current, total int) {
		rep.UnitDone(entity.JobStageResearch, current, total)
	})
	if research != nil {
		result.Research.ResearchNotes = research.Notes
		result.Research.ReportRefCtx = registry.Items()
		result.Degraded = research.Degraded
	}
	if err != nil {
		return result, err
	}

	p.logger.Printf("[PHASE 1] Evidence collected: %d refs across %d sections (%d degraded)",
		registry.Len(), len(research.Notes), len(research.Degraded))

	// ═══════════════════════════════════════════════════════════════
	// PHASE 2: REPORT WRITING
	// ═══════════════════════════════════════════════════════════════
	rep.StageStarted(entity.JobStageWrite, "Writing the report")
	p.logger.Printf("[PHASE 2] Writing report...")

	draft, err := p.writer.Compose(ctx, plan, research.Notes, registry, func(current, total int) {
		rep.UnitDone(entity.JobStageWrite, current, total)
	})
	if err != nil {
		return result, err
	}

	result.Research.FinalReport = draft.Rendered
	p.logger.Printf("[PHASE 2] Report written: %d chars, %d refs cited", len(draft.Markdown), len(draft.UsedRefs))

	// ═══════════════════════════════════════════════════════════════
	// PHASE 3: CLAIM VERIFICATION
	// ═══════════════════════════════════════════════════════════════
	rep.StageStarted(entity.JobStageVerify, "Verifying claims against cited evidence")
	p.logger.Printf("[PHASE 3] Verifying claims...")

	verification, err := p.verifier.Verify(ctx, draft.Markdown, registry, func(current, total int) {
		rep.UnitDone(entity.JobStageVerify, current, total)
	})
	if err != nil {
		return result, err
	}

	result.Research.VerificationResult = verification
	p.logger.Printf("[PHASE 3] Verification done: score %d/10 (%d/%d claims checked)",
		verification.Score, verification.Stats.ClaimsChecked, verification.Stats.ClaimsTotal)

	return result, nil
}
