package verifier

import (
	"context"
	"fmt"
	"log"

	"ai-research-be/internal/entity"
	"ai-research-be/pkg/agent"
	"ai-research-be/pkg/citation"
)

// ProgressFunc is invoked after each classified claim.
type ProgressFunc func(current, total int)

const (
	minClaimCap      = 10
	maxClaimCap      = 100
	DefaultMaxClaims = 60
)

// Verifier extracts claims from the narrative and checks each against its
// cited evidence. Classification is pluggable; the orchestration here stays
// the same whichever policy is behind it.
type Verifier struct {
	classifier Classifier
	maxClaims  int
	logger     *log.Logger
}

// NewVerifier clamps maxClaims into [10, 100]; zero selects the default.
func NewVerifier(classifier Classifier, maxClaims int, logger *log.Logger) *Verifier {
	if maxClaims == 0 {
		maxClaims = DefaultMaxClaims
	}
	if maxClaims < minClaimCap {
		maxClaims = minClaimCap
	}
	if maxClaims > maxClaimCap {
		maxClaims = maxClaimCap
	}
	return &Verifier{
		classifier: classifier,
		maxClaims:  maxClaims,
		logger:     logger,
	}
}

// Verify produces the trust score for a finished narrative. A report with no
// extractable claims yields score 0 with an explanatory comment, which is a
// valid terminal result, not a failure. Cancellation is checked per claim.
func (v *Verifier) Verify(
	ctx context.Context,
	narrative string,
	registry *citation.Registry,
	report ProgressFunc,
) (*entity.VerificationResult, error) {

	claims := ExtractClaims(narrative)
	if len(claims) == 0 {
		inconclusive := &agent.VerificationInconclusive{Reason: "no verifiable claims found in the report"}
		v.logger.Printf("[VERIFIER] %v", inconclusive)
		return &entity.VerificationResult{
			Score:   0,
			Comment: inconclusive.Error(),
			Stats:   entity.VerificationStats{ClaimsChecked: 0, ClaimsTotal: len(claims)},
		}, nil
	}

	evaluated := claims
	truncated := false
	if len(evaluated) > v.maxClaims {
		evaluated = evaluated[:v.maxClaims]
		truncated = true
	}

	findings := make([]entity.ClaimFinding, 0, len(evaluated))
	checked := 0
	counts := map[entity.Verdict]int{}

	for i, claim := range evaluated {
		if ctx.Err() != nil {
			return nil, &agent.CancelledError{Stage: entity.JobStageVerify}
		}

		verdict, note := v.checkClaim(ctx, claim, registry, &checked)
		if verdict == "" {
			return nil, &agent.CancelledError{Stage: entity.JobStageVerify}
		}
		counts[verdict]++

		findings = append(findings, entity.ClaimFinding{
			Claim:   claim.Text,
			RefIds:  claim.RefIds,
			Verdict: verdict,
			Note:    note,
		})
		if report != nil {
			report(i+1, len(evaluated))
		}
	}

	score := scoreOf(counts[entity.VerdictVerified], len(evaluated))
	comment := fmt.Sprintf("%d/%d claims verified, %d uncertain, %d conflicting",
		counts[entity.VerdictVerified], len(evaluated),
		counts[entity.VerdictUncertain], counts[entity.VerdictConflict])
	if truncated {
		comment += fmt.Sprintf(" (evaluated the first %d of %d claims)", len(evaluated), len(claims))
	}

	v.logger.Printf("[VERIFIER] Score %d/10: %s", score, comment)

	return &entity.VerificationResult{
		Score:    score,
		Comment:  comment,
		Findings: findings,
		Stats: entity.VerificationStats{
			ClaimsChecked: checked,
			ClaimsTotal:   len(claims),
		},
	}, nil
}

// checkClaim resolves the claim's citations and classifies it. An uncited or
// unresolvable claim is uncertain without a classifier call. An empty verdict
// signals cancellation.
func (v *Verifier) checkClaim(ctx context.Context, claim Claim, registry *citation.Registry, checked *int) (entity.Verdict, string) {
	evidence := make([]entity.RefItem, 0, len(claim.RefIds))
	for _, refId := range claim.RefIds {
		if item, ok := registry.Resolve(refId); ok {
			evidence = append(evidence, item)
		}
	}

	if len(evidence) == 0 {
		if len(claim.RefIds) > 0 {
			return entity.VerdictUncertain, "cited ref ids did not resolve"
		}
		return entity.VerdictUncertain, "no citation"
	}

	*checked++
	verdict, note, err := v.classifier.Classify(ctx, claim.Text, evidence)
	if err != nil {
		if ctx.Err() != nil {
			return "", ""
		}
		v.logger.Printf("[WARN] Claim classification failed: %v", err)
		return entity.VerdictUncertain, "classification failed"
	}
	return verdict, note
}

// scoreOf aggregates verdicts into a 0-10 score, equal weight per claim.
// Integer arithmetic rounds .5 down, keeping ties conservative.
func scoreOf(verified, evaluated int) int {
	if evaluated == 0 {
		return 0
	}
	return (20*verified + evaluated - 1) / (2 * evaluated)
}
