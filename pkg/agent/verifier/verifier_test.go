package verifier

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"testing"

	"ai-research-be/internal/entity"
	"ai-research-be/pkg/agent"
	"ai-research-be/pkg/citation"
)

// verdictByClaim classifies from a fixed table, defaulting to verified.
type verdictByClaim struct {
	verdicts map[string]entity.Verdict
	calls    int
}

func (c *verdictByClaim) Classify(_ context.Context, claim string, _ []entity.RefItem) (entity.Verdict, string, error) {
	c.calls++
	for fragment, verdict := range c.verdicts {
		if strings.Contains(claim, fragment) {
			return verdict, "stubbed", nil
		}
	}
	return entity.VerdictVerified, "stubbed", nil
}

func testLogger() *log.Logger {
	return log.New(os.Stderr, "", 0)
}

func testRegistry(n int) *citation.Registry {
	registry := citation.NewRegistry()
	for i := 0; i < n; i++ {
		registry.Register(entity.EvidenceFragment{
			PaperId: fmt.Sprintf("paper-%d", i+1),
			Title:   fmt.Sprintf("Paper %d", i+1),
			Source:  "ICLR 2024",
			Excerpt: fmt.Sprintf("Excerpt %d", i+1),
		})
	}
	return registry
}

func TestScoreOf(t *testing.T) {
	tests := []struct {
		name      string
		verified  int
		evaluated int
		want      int
	}{
		{"all verified", 4, 4, 10},
		{"none verified", 0, 4, 0},
		{"no claims", 0, 0, 0},
		{"exact half rounds down", 1, 4, 2},
		{"three quarters rounds down", 3, 4, 7},
		{"two thirds rounds to seven", 2, 3, 7},
		{"half of two", 1, 2, 5},
		{"single verified", 1, 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreOf(tt.verified, tt.evaluated)
			if got != tt.want {
				t.Errorf("scoreOf(%d, %d) = %d, want %d", tt.verified, tt.evaluated, got, tt.want)
			}
			if got < 0 || got > 10 {
				t.Errorf("scoreOf(%d, %d) = %d, out of [0,10]", tt.verified, tt.evaluated, got)
			}
		})
	}
}

func TestVerifyCountsAndScore(t *testing.T) {
	registry := testRegistry(2)
	classifier := &verdictByClaim{verdicts: map[string]entity.Verdict{
		"contradicts": entity.VerdictConflict,
	}}
	v := NewVerifier(classifier, 0, testLogger())

	narrative := strings.Join([]string{
		"The first method outperforms the baseline [R1].",
		"A later study contradicts the scaling result [R2].",
		"Uncited synthesis connects both lines of work here.",
	}, " ")

	result, err := v.Verify(context.Background(), narrative, registry, nil)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	if result.Stats.ClaimsTotal != 3 {
		t.Errorf("ClaimsTotal = %d, want 3", result.Stats.ClaimsTotal)
	}
	if result.Stats.ClaimsChecked != 2 {
		t.Errorf("ClaimsChecked = %d, want 2", result.Stats.ClaimsChecked)
	}
	if classifier.calls != 2 {
		t.Errorf("classifier calls = %d, want 2 (uncited claims must not be classified)", classifier.calls)
	}

	// 1 verified of 3 evaluated: 10/3 rounds down to 3.
	if result.Score != 3 {
		t.Errorf("Score = %d, want 3", result.Score)
	}
	if len(result.Findings) != 3 {
		t.Fatalf("Findings = %d, want 3", len(result.Findings))
	}
	if result.Findings[2].Verdict != entity.VerdictUncertain {
		t.Errorf("uncited claim verdict = %s, want %s", result.Findings[2].Verdict, entity.VerdictUncertain)
	}
}

func TestVerifyUnresolvableCitationIsNotChecked(t *testing.T) {
	registry := testRegistry(1)
	classifier := &verdictByClaim{}
	v := NewVerifier(classifier, 0, testLogger())

	narrative := "This claim cites a ref id that does not exist anywhere [R9]."

	result, err := v.Verify(context.Background(), narrative, registry, nil)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	if result.Stats.ClaimsChecked != 0 {
		t.Errorf("ClaimsChecked = %d, want 0", result.Stats.ClaimsChecked)
	}
	if result.Stats.ClaimsTotal != 1 {
		t.Errorf("ClaimsTotal = %d, want 1", result.Stats.ClaimsTotal)
	}
	if classifier.calls != 0 {
		t.Errorf("classifier calls = %d, want 0", classifier.calls)
	}
	if result.Findings[0].Verdict != entity.VerdictUncertain {
		t.Errorf("verdict = %s, want %s", result.Findings[0].Verdict, entity.VerdictUncertain)
	}
}

func TestVerifyNoClaimsIsValidZeroScore(t *testing.T) {
	v := NewVerifier(&verdictByClaim{}, 0, testLogger())

	result, err := v.Verify(context.Background(), "## Heading only\n", testRegistry(0), nil)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if result.Score != 0 {
		t.Errorf("Score = %d, want 0", result.Score)
	}
	if result.Comment == "" {
		t.Error("Comment is empty, want an explanation")
	}
	if result.Stats.ClaimsTotal != 0 || result.Stats.ClaimsChecked != 0 {
		t.Errorf("Stats = %+v, want zeroes", result.Stats)
	}
}

func TestVerifyClaimCapTruncates(t *testing.T) {
	registry := testRegistry(1)
	classifier := &verdictByClaim{}
	v := NewVerifier(classifier, 10, testLogger())

	var sentences []string
	for i := 0; i < 25; i++ {
		sentences = append(sentences, fmt.Sprintf("Claim number %d restates the central finding [R1].", i))
	}
	narrative := strings.Join(sentences, " ")

	var lastCurrent, lastTotal int
	result, err := v.Verify(context.Background(), narrative, registry, func(current, total int) {
		lastCurrent, lastTotal = current, total
	})
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	if result.Stats.ClaimsTotal != 25 {
		t.Errorf("ClaimsTotal = %d, want 25", result.Stats.ClaimsTotal)
	}
	if len(result.Findings) != 10 {
		t.Errorf("Findings = %d, want 10", len(result.Findings))
	}
	if classifier.calls != 10 {
		t.Errorf("classifier calls = %d, want 10", classifier.calls)
	}
	if lastCurrent != 10 || lastTotal != 10 {
		t.Errorf("last progress = %d/%d, want 10/10", lastCurrent, lastTotal)
	}
	if !strings.Contains(result.Comment, "first 10 of 25") {
		t.Errorf("Comment = %q, want truncation note", result.Comment)
	}
}

func TestVerifyCancellationPerClaim(t *testing.T) {
	registry := testRegistry(1)
	v := NewVerifier(&verdictByClaim{}, 0, testLogger())

	narrative := "First claim stands on its own evidence [R1]. Second claim would also be checked [R1]."

	ctx, cancel := context.WithCancel(context.Background())
	result, err := v.Verify(ctx, narrative, registry, func(current, total int) {
		if current == 1 {
			cancel()
		}
	})

	if result != nil {
		t.Errorf("result = %+v, want nil on cancellation", result)
	}
	if !agent.IsCancelled(err) {
		t.Errorf("err = %v, want cancellation", err)
	}
	var ce *agent.CancelledError
	if !errors.As(err, &ce) || ce.Stage != entity.JobStageVerify {
		t.Errorf("err = %v, want CancelledError in verify stage", err)
	}
}
